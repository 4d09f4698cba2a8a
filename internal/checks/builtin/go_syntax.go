package builtin

import (
	"context"
	"errors"
	"go/parser"
	"go/scanner"
	"go/token"

	"repoguardian/internal/checks"
)

type GoSyntaxCheck struct{}

func (c *GoSyntaxCheck) ID() string            { return "go-syntax" }
func (c *GoSyntaxCheck) Title() string         { return "Go Source Parses" }
func (c *GoSyntaxCheck) Kind() checks.Kind     { return checks.KindSyntax }
func (c *GoSyntaxCheck) Applies(p string) bool { return checks.HasExt(p, ".go") }

func (c *GoSyntaxCheck) Description() string {
	return "Parses Go files with go/parser and reports every syntax error with its position."
}

func (c *GoSyntaxCheck) Run(ctx context.Context, f checks.File) (checks.Result, error) {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, f.Path, f.Content, parser.AllErrors|parser.SkipObjectResolution)
	if err == nil {
		return checks.PassResult(f, c.ID()), nil
	}

	var list scanner.ErrorList
	if !errors.As(err, &list) {
		return checks.FailResult(f, c.ID(), err.Error(), checks.Issue{Text: err.Error()}), nil
	}
	issues := make([]checks.Issue, 0, len(list))
	for _, e := range list {
		issues = append(issues, checks.Issue{Line: e.Pos.Line, Column: e.Pos.Column, Text: e.Msg})
	}
	return checks.FailResult(f, c.ID(), list[0].Error(), issues...), nil
}

func init() {
	checks.Register(&GoSyntaxCheck{})
}
