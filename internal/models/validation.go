package models

import (
	"fmt"

	"repoguardian/internal/checks"
)

// FileValidation holds every check result for one file.
type FileValidation struct {
	Path   string          `json:"path"`
	Lines  int             `json:"lines"`
	Chars  int             `json:"chars"`
	Checks []checks.Result `json:"checks"`

	// SyntaxOK is false when any syntax check failed.
	SyntaxOK bool `json:"syntax_ok"`
	// CodeChecked is true when at least one syntax or lint check ran.
	CodeChecked bool `json:"code_checked"`
	// LintFailures counts failing lint checks.
	LintFailures int `json:"lint_failures"`
}

// NeedsFix reports whether a fix suggestion is worth requesting.
func (v FileValidation) NeedsFix() bool {
	return !v.SyntaxOK || v.LintFailures > 0
}

// Issues returns the issues of every failing check, syntax checks first.
func (v FileValidation) Issues(kinds map[string]checks.Kind) []checks.Issue {
	var syntax, rest []checks.Issue
	for _, r := range v.Checks {
		if r.Status != checks.StatusFail {
			continue
		}
		if kinds[r.CheckID] == checks.KindSyntax {
			syntax = append(syntax, r.Issues...)
		} else {
			rest = append(rest, r.Issues...)
		}
	}
	return append(syntax, rest...)
}

type ValidationStats struct {
	FilesAnalyzed     int `json:"files_analyzed"`
	SyntaxErrors      int `json:"syntax_errors"`
	FilesWithWarnings int `json:"files_with_warnings"`
	CheckErrors       int `json:"check_errors"`
}

// Validation is the validate stage payload.
type Validation struct {
	Files   []FileValidation `json:"files"`
	Stats   ValidationStats  `json:"stats"`
	Summary string           `json:"summary"`

	// CheckKinds maps check ID to kind for every check that ran.
	CheckKinds map[string]checks.Kind `json:"check_kinds"`
}

func (v ValidationStats) String() string {
	return fmt.Sprintf("Files analyzed: %d | Syntax errors: %d | Files with lint warnings: %d",
		v.FilesAnalyzed, v.SyntaxErrors, v.FilesWithWarnings)
}

func (v *Validation) File(path string) (FileValidation, bool) {
	if v == nil {
		return FileValidation{}, false
	}
	for _, f := range v.Files {
		if f.Path == path {
			return f, true
		}
	}
	return FileValidation{}, false
}
