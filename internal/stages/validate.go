package stages

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/chainguard-dev/clog"

	"repoguardian/internal/checks"
	"repoguardian/internal/models"
	"repoguardian/internal/pipeline"
)

// validate runs every applicable check over each fetched file.
func validate(deps Deps) pipeline.Operation {
	return func(ctx context.Context, _ pipeline.Request, state pipeline.State) (any, error) {
		fetched, ok := pipeline.Lookup[*models.FetchResult](state, StageFetch)
		if !ok {
			return nil, missing(StageValidate, StageFetch)
		}
		if len(fetched.Files) == 0 {
			return nil, pipeline.Failure(pipeline.KindValidation, "no files to validate")
		}

		out := &models.Validation{
			Files:      make([]models.FileValidation, 0, len(fetched.Files)),
			CheckKinds: make(map[string]checks.Kind, len(deps.Checks)),
		}
		for _, c := range deps.Checks {
			out.CheckKinds[c.ID()] = c.Kind()
		}

		for _, file := range fetched.Files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			fv := validateFile(ctx, deps.Checks, file, &out.Stats)
			out.Stats.FilesAnalyzed++
			if !fv.SyntaxOK {
				out.Stats.SyntaxErrors++
			}
			if fv.LintFailures > 0 {
				out.Stats.FilesWithWarnings++
			}
			out.Files = append(out.Files, fv)
		}

		out.Summary = out.Stats.String()
		clog.FromContext(ctx).Infof("validated: %s", out.Summary)
		return out, nil
	}
}

func validateFile(ctx context.Context, selected []checks.Check, file models.FetchedFile, stats *models.ValidationStats) models.FileValidation {
	fv := models.FileValidation{
		Path:     file.Path,
		Lines:    countLines(file.Content),
		Chars:    utf8.RuneCountInString(file.Content),
		SyntaxOK: true,
	}
	in := checks.File{Path: file.Path, Content: []byte(file.Content)}

	for _, c := range selected {
		if !c.Applies(file.Path) {
			continue
		}
		res, err := c.Run(ctx, in)
		if err != nil {
			clog.FromContext(ctx).Warnf("check %s on %s: %v", c.ID(), file.Path, err)
			res = checks.ErrorResult(in, c.ID(), err.Error())
		}
		if res.Status == checks.StatusError {
			stats.CheckErrors++
		}
		isCode := c.Kind() == checks.KindSyntax || c.Kind() == checks.KindLint
		if isCode && res.Status != checks.StatusSkipped {
			fv.CodeChecked = true
		}
		if res.Status == checks.StatusFail {
			switch c.Kind() {
			case checks.KindSyntax:
				fv.SyntaxOK = false
			case checks.KindLint:
				fv.LintFailures++
			}
		}
		fv.Checks = append(fv.Checks, res)
	}
	return fv
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
