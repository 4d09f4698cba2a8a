package checks

import (
	"context"
	"testing"
)

type failingCheck struct {
	dummyCheck
	configured map[string]string
}

func (c *failingCheck) Run(ctx context.Context, f File) (Result, error) {
	return FailResult(f, c.id, "", Issue{Line: 1, Text: "bad"}), nil
}

func (c *failingCheck) Options() []Option {
	return []Option{{Name: "mock.option", Description: "A mock option"}}
}

func (c *failingCheck) Configure(opts map[string]string) error {
	c.configured = opts
	return nil
}

func TestIgnoreList_IsIgnored(t *testing.T) {
	var l IgnoreList
	l.Configure(map[string]string{"ignore.paths": "vendor/, *_pb2.py, docs/*.md,,"})

	tests := []struct {
		path string
		want bool
	}{
		{path: "vendor/github.com/x/y.go", want: true},
		{path: "./vendor/a.go", want: true},
		{path: "pkg/vendor/a.go", want: false},
		{path: "api/service_pb2.py", want: true},
		{path: "docs/index.md", want: true},
		{path: "docs/sub/index.md", want: false},
		{path: "main.go", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got, _ := l.IsIgnored(tt.path); got != tt.want {
				t.Fatalf("IsIgnored(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestIgnoreWrapper_Run(t *testing.T) {
	inner := &failingCheck{dummyCheck: dummyCheck{id: "mock"}}
	w := &IgnoreWrapper{Check: inner}

	res, err := w.Run(context.Background(), File{Path: "gen/x.py"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != StatusFail || res.Message != "1 issue(s)" {
		t.Fatalf("expected FAIL with derived message, got %+v", res)
	}

	if err := w.Configure(map[string]string{"ignore.paths": "gen/", "mock.option": "v"}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if inner.configured["mock.option"] != "v" {
		t.Fatalf("inner check not configured: %v", inner.configured)
	}
	res, _ = w.Run(context.Background(), File{Path: "gen/x.py"})
	if res.Status != StatusSkipped {
		t.Fatalf("expected SKIPPED, got %s", res.Status)
	}
	if w.Unwrap() != inner {
		t.Fatal("Unwrap must return the inner check")
	}
}

func TestIgnoreWrapper_Options(t *testing.T) {
	if n := len((&IgnoreWrapper{Check: &dummyCheck{id: "simple"}}).Options()); n != 1 {
		t.Fatalf("expected 1 option, got %d", n)
	}
	if n := len((&IgnoreWrapper{Check: &failingCheck{dummyCheck: dummyCheck{id: "c"}}}).Options()); n != 2 {
		t.Fatalf("expected 2 options, got %d", n)
	}
}

func TestResult_Lines(t *testing.T) {
	r := Result{Issues: []Issue{{Line: 4}, {Line: 0}, {Line: 2}, {Line: 4}}}
	got := r.Lines()
	if len(got) != 2 || got[0] != 4 || got[1] != 2 {
		t.Fatalf("unexpected lines %v", got)
	}
}
