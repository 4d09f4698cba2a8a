package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"repoguardian/internal/checks"
)

// astProgram parses stdin with the ast module and prints one JSON object.
const astProgram = `import ast, json, sys
src = sys.stdin.buffer.read()
try:
    ast.parse(src, filename=sys.argv[1])
    print(json.dumps({"ok": True}))
except SyntaxError as e:
    print(json.dumps({"ok": False, "line": e.lineno or 0, "col": e.offset or 0, "msg": e.msg or str(e)}))
`

type astVerdict struct {
	OK   bool   `json:"ok"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
	Msg  string `json:"msg"`
}

type PythonSyntaxCheck struct {
	pythonOption
}

func (c *PythonSyntaxCheck) ID() string            { return "python-syntax" }
func (c *PythonSyntaxCheck) Title() string         { return "Python Source Parses" }
func (c *PythonSyntaxCheck) Kind() checks.Kind     { return checks.KindSyntax }
func (c *PythonSyntaxCheck) Applies(p string) bool { return checks.HasExt(p, ".py") }

func (c *PythonSyntaxCheck) Description() string {
	return "Parses Python files with the interpreter's ast module and reports the syntax error position."
}

func (c *PythonSyntaxCheck) Options() []checks.Option {
	return []checks.Option{{Name: "python", Description: c.description(), Default: defaultPython}}
}

func (c *PythonSyntaxCheck) Configure(opts map[string]string) error {
	return c.configure(opts)
}

func (c *PythonSyntaxCheck) Run(ctx context.Context, f checks.File) (checks.Result, error) {
	out, err := runPython(ctx, c.interpreter(), f.Content, "-c", astProgram, f.Path)
	if errors.Is(err, errToolMissing) {
		return checks.SkippedResult(f, c.ID(), err.Error()), nil
	}
	if err != nil {
		return checks.Result{}, err
	}

	var v astVerdict
	if jerr := json.Unmarshal(out.stdout, &v); jerr != nil {
		return checks.ErrorResult(f, c.ID(), fmt.Sprintf("unreadable ast output: %s", lastLine(append(out.stdout, out.stderr...)))), nil
	}
	if v.OK {
		return checks.PassResult(f, c.ID()), nil
	}
	msg := fmt.Sprintf("SyntaxError: %s (line %d)", v.Msg, v.Line)
	return checks.FailResult(f, c.ID(), msg, checks.Issue{Line: v.Line, Column: v.Col, Code: "E999", Text: "SyntaxError: " + v.Msg}), nil
}

func init() {
	checks.Register(&PythonSyntaxCheck{})
}
