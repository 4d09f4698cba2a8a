package models

type FixAction string

const (
	ActionSuggestFix     FixAction = "suggest_fix"
	ActionNoChange       FixAction = "no_change_needed"
	ActionNoCodeAnalysis FixAction = "no_code_analysis"
	ActionSkippedMax     FixAction = "skipped_max_files"
	ActionModelError     FixAction = "llm_error"
	ActionExtractFailed  FixAction = "failed_to_extract_fix"
)

type FixSuggestion struct {
	Path   string    `json:"path"`
	Action FixAction `json:"action"`
	// Diff is a unified diff from the original to the corrected file.
	Diff string `json:"diff,omitempty"`
	// Preview is the head of the corrected file.
	Preview string `json:"corrected_preview,omitempty"`
	Notes   string `json:"notes,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FixSuggestions is the fix stage payload.
type FixSuggestions struct {
	Suggestions []FixSuggestion `json:"suggestions"`
	Attempted   int             `json:"attempted"`
	Suggested   int             `json:"suggested"`
}

// For returns the suggestion recorded for path.
func (f *FixSuggestions) For(path string) (FixSuggestion, bool) {
	if f == nil {
		return FixSuggestion{}, false
	}
	for _, s := range f.Suggestions {
		if s.Path == path {
			return s, true
		}
	}
	return FixSuggestion{}, false
}
