package stages

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"

	"repoguardian/internal/models"
	"repoguardian/internal/pipeline"
)

const (
	penaltySyntax     = 50
	penaltyLint       = 15
	penaltyNonCode    = 2
	penaltySuggestFix = 5
)

// fileScore starts at 100 and deducts for each problem found.
func fileScore(fv models.FileValidation, fixes *models.FixSuggestions) int {
	score := 100
	if !fv.CodeChecked {
		score -= penaltyNonCode
	}
	if !fv.SyntaxOK {
		score -= penaltySyntax
	}
	score -= penaltyLint * fv.LintFailures
	if s, ok := fixes.For(fv.Path); ok && s.Action == models.ActionSuggestFix {
		score -= penaltySuggestFix
	}
	return max(0, score)
}

// HealthScore is the truncated mean of the file scores, 100 when there are
// no files.
func HealthScore(val *models.Validation, fixes *models.FixSuggestions) (int, []models.FileScore) {
	if val == nil || len(val.Files) == 0 {
		return 100, nil
	}
	scores := make([]models.FileScore, 0, len(val.Files))
	total := 0
	for _, fv := range val.Files {
		s := fileScore(fv, fixes)
		total += s
		scores = append(scores, models.FileScore{Path: fv.Path, Score: s})
	}
	return total / len(val.Files), scores
}

// summarize scores the repository and asks the model for a narrative. Model
// failures keep the computed summary.
func summarize(deps Deps) pipeline.Operation {
	return func(ctx context.Context, req pipeline.Request, state pipeline.State) (any, error) {
		val, ok := pipeline.Lookup[*models.Validation](state, StageValidate)
		if !ok {
			return nil, missing(StageSummarize, StageValidate)
		}
		fixes, _ := pipeline.Lookup[*models.FixSuggestions](state, StageFix)

		repo, branch := req.RepositoryURL(), req.Branch()
		if info, ok := pipeline.Lookup[*models.RepoInfo](state, StageAuthenticate); ok {
			repo, branch = info.FullName, info.Branch
		}

		score, perFile := HealthScore(val, fixes)
		out := &models.Summary{
			Repository:   repo,
			Branch:       branch,
			HealthScore:  score,
			Verdict:      models.VerdictFor(score),
			FilesScanned: val.Stats.FilesAnalyzed,
			SyntaxErrors: val.Stats.SyntaxErrors,
			LintWarnings: val.Stats.FilesWithWarnings,
			FileScores:   perFile,
		}
		if fixes != nil {
			out.FixesOffered = fixes.Suggested
		}

		var examples []string
		for _, fv := range val.Files {
			if len(examples) == maxExamples {
				break
			}
			if fv.NeedsFix() {
				examples = append(examples, fv.Path)
			}
		}

		headline := fmt.Sprintf("%s@%s: health %d/100 (%s). %d files analyzed, %d with syntax errors, %d with lint warnings, %d fixes suggested.",
			out.Repository, out.Branch, out.HealthScore, out.Verdict, out.FilesScanned, out.SyntaxErrors, out.LintWarnings, out.FixesOffered)
		out.Text = headline

		if deps.Model == nil {
			out.ModelError = "no model backend configured"
			return out, nil
		}
		text, err := deps.Model.Complete(ctx, buildSummaryPrompt(summaryInput{
			Repo:         out.Repository,
			Branch:       out.Branch,
			Score:        out.HealthScore,
			Files:        out.FilesScanned,
			SyntaxErrors: out.SyntaxErrors,
			LintWarnings: out.LintWarnings,
			Fixes:        out.FixesOffered,
			Examples:     examples,
		}))
		if err != nil {
			clog.FromContext(ctx).Warnf("summary model call failed, keeping computed summary: %v", err)
			out.ModelError = err.Error()
			return out, nil
		}
		if text != "" {
			out.Text = headline + "\n\n" + text
		}
		return out, nil
	}
}
