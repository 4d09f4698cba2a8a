package model

import (
	"context"
	"errors"

	"github.com/chainguard-dev/clog"

	"repoguardian/internal/pipeline"
)

type fallback struct {
	primary   Backend
	secondary Backend
}

// Fallback tries primary and, only when it is unavailable, secondary.
// Timeouts and other failures of primary are returned as is.
func Fallback(primary, secondary Backend) Backend {
	return &fallback{primary: primary, secondary: secondary}
}

func (f *fallback) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := f.primary.Complete(ctx, prompt)
	if err == nil || !errors.Is(err, pipeline.ErrBackendUnavailable) || f.secondary == nil {
		return out, err
	}
	clog.FromContext(ctx).Debugf("model backend unavailable (%v); trying fallback", err)
	out, secondErr := f.secondary.Complete(ctx, prompt)
	if secondErr != nil {
		return "", pipeline.Failure(pipeline.KindOf(secondErr), "%s; %s", err.Error(), secondErr.Error())
	}
	return out, nil
}
