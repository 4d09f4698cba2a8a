package stages

import (
	"context"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/pmezard/go-difflib/difflib"

	"repoguardian/internal/models"
	"repoguardian/internal/pipeline"
)

// fix asks the model for a corrected version of each file that failed a
// syntax or lint check.
func fix(deps Deps) pipeline.Operation {
	return func(ctx context.Context, _ pipeline.Request, state pipeline.State) (any, error) {
		val, ok := pipeline.Lookup[*models.Validation](state, StageValidate)
		if !ok {
			return nil, missing(StageFix, StageValidate)
		}
		fetched, ok := pipeline.Lookup[*models.FetchResult](state, StageFetch)
		if !ok {
			return nil, missing(StageFix, StageFetch)
		}
		log := clog.FromContext(ctx)

		out := &models.FixSuggestions{Suggestions: make([]models.FixSuggestion, 0, len(val.Files))}
		needed := 0
		for _, fv := range val.Files {
			if fv.CodeChecked && fv.NeedsFix() {
				needed++
			}
		}
		if needed > 0 && deps.Model == nil {
			return nil, pipeline.Failure(pipeline.KindBackendUnavailable, "no model backend configured")
		}

		timeouts := 0
		for _, fv := range val.Files {
			s := models.FixSuggestion{Path: fv.Path}
			switch {
			case !fv.CodeChecked:
				s.Action = models.ActionNoCodeAnalysis
			case !fv.NeedsFix():
				s.Action = models.ActionNoChange
			case out.Attempted >= deps.Limits.MaxFixFiles:
				s.Action = models.ActionSkippedMax
			default:
				content, _ := fetched.Content(fv.Path)
				out.Attempted++
				resp, err := deps.Model.Complete(ctx, buildFixPrompt(fv.Path, content, fv, val.CheckKinds))
				if err != nil {
					kind := pipeline.KindOf(err)
					if kind == pipeline.KindBackendUnavailable {
						return nil, err
					}
					if kind == pipeline.KindTimeout {
						timeouts++
					}
					log.Warnf("fix %s: %v", fv.Path, err)
					s.Action = models.ActionModelError
					s.Error = err.Error()
					break
				}
				s = parseFixResponse(fv.Path, content, resp)
			}
			if s.Action == models.ActionSuggestFix {
				out.Suggested++
			}
			out.Suggestions = append(out.Suggestions, s)
		}

		if out.Attempted > 0 && timeouts == out.Attempted {
			return nil, pipeline.Failure(pipeline.KindTimeout, "all %d model calls timed out", out.Attempted)
		}
		log.Infof("fix suggestions: %d suggested of %d attempted", out.Suggested, out.Attempted)
		return out, nil
	}
}

// parseFixResponse extracts the corrected file between the file markers, or
// recognizes NO_CHANGE.
func parseFixResponse(path, original, resp string) models.FixSuggestion {
	s := models.FixSuggestion{Path: path}

	start := strings.Index(resp, fileStartMarker)
	if start >= 0 {
		body := resp[start+len(fileStartMarker):]
		if end := strings.Index(body, fileEndMarker); end >= 0 {
			corrected := strings.TrimSpace(body[:end])
			if corrected == "" {
				s.Action = models.ActionExtractFailed
				s.Error = "model returned an empty file"
				return s
			}
			if corrected == strings.TrimSpace(original) {
				s.Action = models.ActionNoChange
				return s
			}
			s.Action = models.ActionSuggestFix
			s.Diff = unifiedDiff(original, corrected+"\n", path)
			s.Preview = truncateRunes(corrected, previewChars)
			s.Notes = truncateRunes(strings.TrimSpace(body[end+len(fileEndMarker):]), notesChars)
			return s
		}
	}
	if strings.TrimSpace(resp) == noChangeMarker {
		s.Action = models.ActionNoChange
		return s
	}
	s.Action = models.ActionExtractFailed
	s.Error = "model response had no " + fileStartMarker + "/" + fileEndMarker + " block"
	s.Notes = truncateRunes(strings.TrimSpace(resp), notesChars)
	return s
}

func unifiedDiff(before, after, path string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: path,
		ToFile:   path + ".fixed",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}
