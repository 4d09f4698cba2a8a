package checks

type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusSkipped Status = "SKIPPED"
	StatusError   Status = "ERROR"
)

// Issue is one finding reported by a check. Line and Column are 1-based;
// zero means unknown.
type Issue struct {
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
	Code   string `json:"code,omitempty"`
	Text   string `json:"text"`
}

type Result struct {
	CheckID string  `json:"check_id"`
	Path    string  `json:"path"`
	Status  Status  `json:"status"`
	Message string  `json:"message,omitempty"`
	Issues  []Issue `json:"issues,omitempty"`
}

// Lines returns the distinct issue line numbers in report order.
func (r Result) Lines() []int {
	var out []int
	seen := make(map[int]bool)
	for _, is := range r.Issues {
		if is.Line <= 0 || seen[is.Line] {
			continue
		}
		seen[is.Line] = true
		out = append(out, is.Line)
	}
	return out
}
