package output

import (
	"fmt"
	"strings"
	"time"

	"repoguardian/internal/checks"
	"repoguardian/internal/models"
	"repoguardian/internal/pipeline"
)

// sections holds the typed payloads of the successful stages of a report.
type sections struct {
	repo       *models.RepoInfo
	fetch      *models.FetchResult
	validation *models.Validation
	fixes      *models.FixSuggestions
	summary    *models.Summary
}

func sectionsOf(r *pipeline.Report) sections {
	var s sections
	if r == nil {
		return s
	}
	for _, e := range r.Entries {
		if !e.Result.OK() {
			continue
		}
		switch p := e.Result.Payload.(type) {
		case *models.RepoInfo:
			s.repo = p
		case *models.FetchResult:
			s.fetch = p
		case *models.Validation:
			s.validation = p
		case *models.FixSuggestions:
			s.fixes = p
		case *models.Summary:
			s.summary = p
		}
	}
	return s
}

func (s sections) title(r *pipeline.Report) string {
	if s.repo != nil {
		return s.repo.FullName + "@" + s.repo.Branch
	}
	return r.Repository
}

// stageStatus is the console label of an entry.
func stageStatus(e pipeline.Entry) string {
	if e.Result.OK() {
		return "OK"
	}
	return "FAIL"
}

func stageDetail(e pipeline.Entry) string {
	if e.Result.OK() {
		return ""
	}
	detail := fmt.Sprintf("%s: %s", e.Result.Kind(), e.Result.Err.Error())
	if !e.Required {
		detail += " (best-effort)"
	}
	return detail
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Millisecond:
		return d.String()
	default:
		return d.Round(time.Millisecond).String()
	}
}

// failingChecks returns the failing or erroring check results of a file.
func failingChecks(f models.FileValidation) []checks.Result {
	var out []checks.Result
	for _, r := range f.Checks {
		if r.Status == checks.StatusFail || r.Status == checks.StatusError {
			out = append(out, r)
		}
	}
	return out
}

func formatIssue(is checks.Issue) string {
	var b strings.Builder
	if is.Line > 0 {
		fmt.Fprintf(&b, "%d", is.Line)
		if is.Column > 0 {
			fmt.Fprintf(&b, ":%d", is.Column)
		}
		b.WriteString(": ")
	}
	if is.Code != "" {
		b.WriteString(is.Code + " ")
	}
	b.WriteString(is.Text)
	return b.String()
}

// notRun returns the stages of want that have no entry in the report.
func notRun(r *pipeline.Report, want []string) []string {
	var out []string
	for _, name := range want {
		if _, ok := r.Entry(name); !ok {
			out = append(out, name)
		}
	}
	return out
}

const maxIssuesPerCheck = 5
