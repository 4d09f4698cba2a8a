package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"repoguardian/internal/models"
	"repoguardian/internal/pipeline"
)

// ReportSink writes a Markdown health report on Close.
type ReportSink struct {
	path         string
	file         *os.File
	mu           sync.Mutex
	report       *pipeline.Report
	exitCode     int
	haveExitCode bool
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}
	f, err := createFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return &ReportSink{path: path, file: f}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case *pipeline.Report:
		s.report = t
	case Event:
		if t.Type == EventRunFinished {
			s.exitCode = t.ExitCode
			s.haveExitCode = true
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := RenderMarkdown(s.file, s.report)
	if err == nil && s.haveExitCode {
		_, err = fmt.Fprintf(s.file, "\n_Exit code: %d_\n", s.exitCode)
	}
	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// RenderMarkdown writes report as a Markdown document.
func RenderMarkdown(w io.Writer, report *pipeline.Report) error {
	if report == nil {
		_, err := io.WriteString(w, "# RepoGuardian Report\n\nNo analysis was run.\n")
		return err
	}
	s := sectionsOf(report)
	var b strings.Builder

	b.WriteString("# RepoGuardian Report\n\n")
	fmt.Fprintf(&b, "- **Repository:** %s\n", s.title(report))
	fmt.Fprintf(&b, "- **Run:** `%s`\n", report.RunID)
	fmt.Fprintf(&b, "- **State:** %s", report.State)
	if report.Aborted() {
		fmt.Fprintf(&b, " (at %s)", report.AbortedAt)
	}
	b.WriteString("\n")
	if s.summary != nil {
		fmt.Fprintf(&b, "- **Health:** %d/100 (%s)\n", s.summary.HealthScore, s.summary.Verdict)
	}
	b.WriteString("\n## Stages\n\n")

	table := newMarkdownTable(&b, []string{"Stage", "Required", "Status", "Duration", "Detail"})
	for _, e := range report.Entries {
		_ = table.Append([]string{
			e.Stage,
			strconv.FormatBool(e.Required),
			e.Result.Status(),
			formatDuration(e.Duration),
			mdCell(stageDetail(e)),
		})
	}
	_ = table.Render()

	if s.validation != nil {
		b.WriteString("\n## Validation\n\n")
		b.WriteString(s.validation.Stats.String() + "\n\n")
		scores := map[string]int{}
		if s.summary != nil {
			for _, fs := range s.summary.FileScores {
				scores[fs.Path] = fs.Score
			}
		}
		files := newMarkdownTable(&b, []string{"File", "Lines", "Syntax", "Lint failures", "Score"})
		for _, f := range s.validation.Files {
			syntax := "ok"
			if !f.SyntaxOK {
				syntax = "error"
			} else if !f.CodeChecked {
				syntax = "n/a"
			}
			score := "-"
			if v, ok := scores[f.Path]; ok {
				score = strconv.Itoa(v)
			}
			_ = files.Append([]string{mdCell(f.Path), strconv.Itoa(f.Lines), syntax, strconv.Itoa(f.LintFailures), score})
		}
		_ = files.Render()
		writeMarkdownFindings(&b, s.validation)
	}

	if s.fixes != nil {
		b.WriteString("\n## Fix suggestions\n\n")
		fmt.Fprintf(&b, "%d suggested from %d model calls.\n", s.fixes.Suggested, s.fixes.Attempted)
		for _, fs := range s.fixes.Suggestions {
			if fs.Action == models.ActionNoCodeAnalysis {
				continue
			}
			fmt.Fprintf(&b, "\n### %s\n\n", fs.Path)
			fmt.Fprintf(&b, "Action: `%s`\n", fs.Action)
			if fs.Error != "" {
				fmt.Fprintf(&b, "\nError: %s\n", fs.Error)
			}
			if fs.Diff != "" {
				fmt.Fprintf(&b, "\n```diff\n%s\n```\n", strings.TrimRight(fs.Diff, "\n"))
			}
			if fs.Notes != "" {
				fmt.Fprintf(&b, "\nNotes: %s\n", fs.Notes)
			}
		}
	}

	b.WriteString("\n## Summary\n\n")
	b.WriteString(strings.TrimSpace(report.Summary) + "\n")
	if s.summary != nil && s.summary.ModelError != "" {
		fmt.Fprintf(&b, "\n_Model summary unavailable: %s_\n", s.summary.ModelError)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeMarkdownFindings(b *strings.Builder, v *models.Validation) {
	wrote := false
	for _, f := range v.Files {
		failing := failingChecks(f)
		if len(failing) == 0 {
			continue
		}
		if !wrote {
			b.WriteString("\n### Findings\n")
			wrote = true
		}
		fmt.Fprintf(b, "\n**%s**\n\n", f.Path)
		for _, r := range failing {
			fmt.Fprintf(b, "- `%s` %s", r.CheckID, r.Status)
			if r.Message != "" {
				fmt.Fprintf(b, ": %s", r.Message)
			}
			b.WriteString("\n")
			for i, is := range r.Issues {
				if i == maxIssuesPerCheck {
					fmt.Fprintf(b, "  - ... %d more\n", len(r.Issues)-i)
					break
				}
				fmt.Fprintf(b, "  - %s\n", formatIssue(is))
			}
		}
	}
}

func newMarkdownTable(w io.Writer, headers []string) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{Left: tw.On, Top: tw.Off, Right: tw.On, Bottom: tw.Off},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}

// mdCell keeps a value on one table row.
func mdCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}
