package output

import (
	"fmt"
	"io"
	"strings"

	"repoguardian/internal/models"
	"repoguardian/internal/pipeline"
)

// RenderText writes a plain-text rendering of report: stage outcomes, files
// scanned, validation findings, fix suggestions and the summary.
func RenderText(w io.Writer, report *pipeline.Report) error {
	if report == nil {
		_, err := fmt.Fprintln(w, "no report")
		return err
	}
	s := sectionsOf(report)
	var b strings.Builder

	fmt.Fprintf(&b, "Repository: %s\n", s.title(report))
	fmt.Fprintf(&b, "Run: %s (%s)\n\n", report.RunID, report.State)

	b.WriteString("Stages:\n")
	for _, e := range report.Entries {
		fmt.Fprintf(&b, "  [%s] %-12s %s", stageStatus(e), e.Stage, formatDuration(e.Duration))
		if d := stageDetail(e); d != "" {
			fmt.Fprintf(&b, "  %s", d)
		}
		b.WriteString("\n")
	}
	if report.Aborted() {
		fmt.Fprintf(&b, "  aborted at %s; later stages were not run\n", report.AbortedAt)
	}

	if s.fetch != nil {
		fmt.Fprintf(&b, "\nFiles scanned: %d (listed %d, skipped %d, failed %d)\n",
			len(s.fetch.Files), s.fetch.Listed, len(s.fetch.Skipped), len(s.fetch.Failed))
		if s.fetch.Truncated {
			b.WriteString("  repository tree was truncated by GitHub\n")
		}
	}

	if s.validation != nil {
		fmt.Fprintf(&b, "\nValidation: %s\n", s.validation.Stats)
		writeTextFindings(&b, s.validation)
	}

	if s.fixes != nil {
		fmt.Fprintf(&b, "\nFix suggestions: %d suggested, %d model calls\n", s.fixes.Suggested, s.fixes.Attempted)
		for _, fs := range s.fixes.Suggestions {
			if fs.Action == models.ActionNoCodeAnalysis {
				continue
			}
			fmt.Fprintf(&b, "  %s: %s", fs.Path, fs.Action)
			if fs.Error != "" {
				fmt.Fprintf(&b, " (%s)", fs.Error)
			}
			b.WriteString("\n")
			if fs.Diff != "" {
				for _, line := range strings.Split(strings.TrimRight(fs.Diff, "\n"), "\n") {
					b.WriteString("    " + line + "\n")
				}
			}
			if fs.Notes != "" {
				fmt.Fprintf(&b, "    notes: %s\n", fs.Notes)
			}
		}
	}

	b.WriteString("\nSummary:\n")
	b.WriteString(strings.TrimSpace(report.Summary))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTextFindings(b *strings.Builder, v *models.Validation) {
	for _, f := range v.Files {
		failing := failingChecks(f)
		if len(failing) == 0 {
			continue
		}
		fmt.Fprintf(b, "  %s\n", f.Path)
		for _, r := range failing {
			fmt.Fprintf(b, "    [%s] %s", r.Status, r.CheckID)
			if r.Message != "" {
				fmt.Fprintf(b, ": %s", r.Message)
			}
			b.WriteString("\n")
			for i, is := range r.Issues {
				if i == maxIssuesPerCheck {
					fmt.Fprintf(b, "      ... %d more\n", len(r.Issues)-i)
					break
				}
				fmt.Fprintf(b, "      %s\n", formatIssue(is))
			}
		}
	}
}
