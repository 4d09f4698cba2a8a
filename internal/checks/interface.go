package checks

import (
	"context"
	"path"
	"strings"
)

// Kind groups checks for scoring: a failing syntax check marks a file as
// broken, a failing lint check marks it as needing attention.
type Kind string

const (
	KindSyntax Kind = "syntax"
	KindLint   Kind = "lint"
	KindBasic  Kind = "basic"
)

// File is one fetched repository file handed to a check.
type File struct {
	Path    string
	Content []byte
}

func (f File) Ext() string {
	return strings.ToLower(path.Ext(f.Path))
}

type Check interface {
	ID() string
	Title() string
	Description() string
	Kind() Kind

	// Applies reports whether the check understands files at this path.
	Applies(path string) bool

	// Run inspects a single file. Checks MUST NOT mutate f.Content.
	// A returned error means the check itself broke; findings in the file
	// are reported through Result.
	Run(ctx context.Context, f File) (Result, error)
}

type Option struct {
	Name        string
	Description string
	Default     string
}

type ConfigurableCheck interface {
	Check
	Options() []Option
	Configure(opts map[string]string) error
}

// HasExt reports whether p ends in one of exts (lowercase, with dot).
func HasExt(p string, exts ...string) bool {
	e := strings.ToLower(path.Ext(p))
	for _, want := range exts {
		if e == want {
			return true
		}
	}
	return false
}
