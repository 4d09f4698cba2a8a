package models

import "strings"

type Verdict string

const (
	VerdictHealthy   Verdict = "Healthy"
	VerdictFair      Verdict = "Fair"
	VerdictNeedsWork Verdict = "Needs Work"
)

// VerdictFor maps a 0..100 health score to a verdict.
func VerdictFor(score int) Verdict {
	switch {
	case score >= 85:
		return VerdictHealthy
	case score >= 65:
		return VerdictFair
	default:
		return VerdictNeedsWork
	}
}

type FileScore struct {
	Path  string `json:"path"`
	Score int    `json:"score"`
}

// Summary is the summarize stage payload.
type Summary struct {
	Repository   string      `json:"repository"`
	Branch       string      `json:"branch"`
	HealthScore  int         `json:"health_score"`
	Verdict      Verdict     `json:"verdict"`
	FilesScanned int         `json:"files_scanned"`
	SyntaxErrors int         `json:"syntax_errors"`
	LintWarnings int         `json:"files_with_warnings"`
	FixesOffered int         `json:"fixes_suggested"`
	FileScores   []FileScore `json:"file_scores"`

	// Text is the human-readable summary, written by the model when one is
	// reachable and generated otherwise.
	Text       string `json:"text"`
	ModelError string `json:"model_error,omitempty"`
}

func (s *Summary) SummaryText() string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(s.Text)
}
