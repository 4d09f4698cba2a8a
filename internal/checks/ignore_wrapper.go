package checks

import (
	"context"
	"fmt"
)

// IgnoreWrapper gives every registered check the ignore.paths option.
type IgnoreWrapper struct {
	Check
	ignore IgnoreList
}

func (w *IgnoreWrapper) Unwrap() Check {
	return w.Check
}

// Run skips ignored files and otherwise delegates to the inner check.
func (w *IgnoreWrapper) Run(ctx context.Context, f File) (Result, error) {
	if ignored, pattern := w.ignore.IsIgnored(f.Path); ignored {
		return SkippedResult(f, w.ID(), fmt.Sprintf("Ignored by ignore.paths (%s)", pattern)), nil
	}
	return w.Check.Run(ctx, f)
}

// Options returns the ignore options followed by the inner check's own.
func (w *IgnoreWrapper) Options() []Option {
	opts := w.ignore.Options()
	if cc, ok := w.Check.(ConfigurableCheck); ok {
		opts = append(opts, cc.Options()...)
	}
	return opts
}

func (w *IgnoreWrapper) Configure(opts map[string]string) error {
	w.ignore.Configure(opts)
	if cc, ok := w.Check.(ConfigurableCheck); ok {
		return cc.Configure(opts)
	}
	return nil
}
