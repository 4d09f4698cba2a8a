package stages

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"repoguardian/internal/checks"
	"repoguardian/internal/models"
)

const (
	fileStartMarker = "<START_FILE>"
	fileEndMarker   = "<END_FILE>"
	noChangeMarker  = "NO_CHANGE"

	// Files longer than snippetThreshold send only context around issue
	// lines; longer than headTailThreshold (and without line numbers)
	// they send head and tail.
	snippetThreshold  = 10_000
	headTailThreshold = 15_000
	headTailChars     = 8_000

	previewChars = 2_000
	notesChars   = 1_000
	maxExamples  = 8
)

const fixInstructions = `You are a careful senior software engineer. For the provided file:
- Fix syntax errors and clear lint issues.
- Make **minimal** changes and preserve intent/style.
- Do NOT add new external dependencies.
If no changes are needed, return exactly: NO_CHANGE

Return the corrected file **only** between markers:
<START_FILE>
...corrected file content...
<END_FILE>

After the markers, optionally include a short "SUGGESTIONS:" bullet list (3 max) describing repo-level improvements relevant to this file (testing, types, docs).`

var languages = map[string]string{
	".py":   "Python",
	".go":   "Go",
	".js":   "JavaScript",
	".ts":   "TypeScript",
	".java": "Java",
	".c":    "C",
	".h":    "C",
	".cpp":  "C++",
	".json": "JSON",
	".yaml": "YAML",
	".yml":  "YAML",
}

func buildFixPrompt(p, content string, fv models.FileValidation, kinds map[string]checks.Kind) string {
	issues := fv.Issues(kinds)

	var lines []int
	seen := make(map[int]bool)
	for _, is := range issues {
		if is.Line > 0 && !seen[is.Line] {
			seen[is.Line] = true
			lines = append(lines, is.Line)
		}
	}
	sort.Ints(lines)

	var b strings.Builder
	b.WriteString(fixInstructions)
	b.WriteString("\n\nFILE_PATH: ")
	b.WriteString(p)
	if lang, ok := languages[strings.ToLower(path.Ext(p))]; ok {
		b.WriteString("\nLANGUAGE: ")
		b.WriteString(lang)
	}
	b.WriteString("\n\nISSUES:\n")
	for _, r := range fv.Checks {
		if r.Status != checks.StatusFail {
			continue
		}
		if len(r.Issues) == 0 {
			fmt.Fprintf(&b, "- [%s] %s\n", r.CheckID, r.Message)
		}
		for _, is := range r.Issues {
			fmt.Fprintf(&b, "- [%s] %s\n", r.CheckID, formatIssue(is))
		}
	}
	b.WriteString("\nCURRENT_CONTENT:\n<START_ORIGINAL>\n")
	b.WriteString(contentForPrompt(content, lines))
	b.WriteString("\n<END_ORIGINAL>\n\nProduce corrected file between <START_FILE> and <END_FILE>.")
	return b.String()
}

func formatIssue(is checks.Issue) string {
	var loc string
	switch {
	case is.Line > 0 && is.Column > 0:
		loc = fmt.Sprintf("%d:%d: ", is.Line, is.Column)
	case is.Line > 0:
		loc = fmt.Sprintf("%d: ", is.Line)
	}
	if is.Code != "" {
		return loc + is.Code + " " + is.Text
	}
	return loc + is.Text
}

// contentForPrompt shrinks large files to the parts the model needs.
func contentForPrompt(content string, issueLines []int) string {
	if len(issueLines) > 0 && len(content) > snippetThreshold {
		all := strings.Split(content, "\n")
		snippets := make([]string, 0, len(issueLines))
		for _, ln := range issueLines {
			start := max(0, ln-4)
			end := min(len(all), ln+3)
			if start >= end {
				continue
			}
			snippets = append(snippets, fmt.Sprintf("# --- context for line %d ---\n%s\n", ln, strings.Join(all[start:end], "\n")))
		}
		return "# NOTE: sending only context snippets because file is large\n" + strings.Join(snippets, "\n\n")
	}
	if len(content) > headTailThreshold {
		head := strings.ToValidUTF8(content[:headTailChars], "")
		tail := strings.ToValidUTF8(content[len(content)-headTailChars:], "")
		return "# NOTE: head...\n" + head + "\n\n# NOTE: tail...\n" + tail
	}
	return content
}

type summaryInput struct {
	Repo         string
	Branch       string
	Score        int
	Files        int
	SyntaxErrors int
	LintWarnings int
	Fixes        int
	Examples     []string
}

const summaryInstructions = `You are an expert repository reviewer. Given the repo name, a numeric health score, counts and example files with issues,
produce:
1) A 4-line executive summary.
2) A bullet list of 8 prioritized improvements. For each improvement mark [Auto] if it can be automated, else [Human].
3) A one-line verdict: Healthy / Fair / Needs Work`

func buildSummaryPrompt(in summaryInput) string {
	examples := "none"
	if len(in.Examples) > 0 {
		examples = strings.Join(in.Examples, ", ")
	}
	return fmt.Sprintf(`%s

INPUT:
REPO: %s
BRANCH: %s
HEALTH_SCORE: %d
FILES_ANALYZED: %d
SYNTAX_ERRORS: %d
LINT_WARN_FILES: %d
FIXES_SUGGESTED: %d
EXAMPLE_ISSUE_FILES: %s

Provide concise output.`, summaryInstructions, in.Repo, in.Branch, in.Score, in.Files, in.SyntaxErrors, in.LintWarnings, in.Fixes, examples)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
