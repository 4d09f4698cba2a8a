package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	_ "repoguardian/internal/checks/builtin"
	"repoguardian/internal/config"
	gh "repoguardian/internal/github"
	"repoguardian/internal/models"
	"repoguardian/internal/pipeline"
)

type file struct {
	path, sha, content string
}

func fakeGitHub(t *testing.T, files []file) *httptest.Server {
	t.Helper()
	blobs := map[string]string{}
	var tree []map[string]any
	for _, f := range files {
		tree = append(tree, map[string]any{"path": f.path, "type": "blob", "sha": f.sha, "size": len(f.content)})
		blobs[f.sha] = f.content
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/foo", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"full_name":"acme/foo","default_branch":"main","owner":{"login":"acme"}}`)
	})
	mux.HandleFunc("/repos/acme/foo/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"sha": "root", "tree": tree})
	})
	mux.HandleFunc("/repos/acme/foo/git/blobs/", func(w http.ResponseWriter, r *http.Request) {
		content, ok := blobs[strings.TrimPrefix(r.URL.Path, "/repos/acme/foo/git/blobs/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
			return
		}
		fmt.Fprint(w, content)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

type scriptedModel func(prompt string) (string, error)

func (m scriptedModel) Complete(_ context.Context, prompt string) (string, error) {
	return m(prompt)
}

var healthyRepo = []file{
	{path: "main.go", sha: "g1", content: "package main\n\nfunc main() {}\n"},
	{path: "README.md", sha: "m1", content: "# foo\n"},
}

var brokenRepo = append([]file{
	{path: "bad.go", sha: "g2", content: "package main\n\nfunc (\n"},
}, healthyRepo...)

func fixingModel(prompt string) (string, error) {
	if strings.Contains(prompt, "FILE_PATH: bad.go") {
		return "<START_FILE>\npackage main\n\nfunc f() {}\n<END_FILE>\nclosed the declaration", nil
	}
	return "The repository looks well kept.", nil
}

func unavailableModel(string) (string, error) {
	return "", pipeline.Failure(pipeline.KindBackendUnavailable, "ollama is not running")
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.Target.Repository = "https://github.com/acme/foo"
	cfg.Checks.Selector = "go-syntax,non-empty"
	cfg.Output.NoConsole = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return cfg
}

func newTestEngine(t *testing.T, cfg *config.Config, server *httptest.Server, m scriptedModel) *Engine {
	t.Helper()
	eng, err := FromConfig(cfg, WithClientOptions(gh.WithBaseURL(server.URL)), WithModel(m))
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	return eng
}

func TestExitCode(t *testing.T) {
	summary := func(v models.Verdict) pipeline.Entry {
		return pipeline.Entry{Stage: "summarize", Result: pipeline.Succeeded(&models.Summary{Verdict: v})}
	}
	failedFix := pipeline.Entry{Stage: "fix", Result: pipeline.Failed(pipeline.Failure(pipeline.KindBackendUnavailable, "down"))}

	tests := []struct {
		name   string
		report *pipeline.Report
		want   int
	}{
		{name: "nil report", report: nil, want: 3},
		{name: "aborted", report: &pipeline.Report{State: pipeline.StateAborted, AbortedAt: "fetch"}, want: 3},
		{name: "healthy", report: &pipeline.Report{State: pipeline.StateCompleted, Entries: []pipeline.Entry{summary(models.VerdictHealthy)}}, want: 0},
		{name: "fair", report: &pipeline.Report{State: pipeline.StateCompleted, Entries: []pipeline.Entry{summary(models.VerdictFair)}}, want: 1},
		{name: "best-effort failure wins over verdict", report: &pipeline.Report{State: pipeline.StateCompleted, Entries: []pipeline.Entry{failedFix, summary(models.VerdictHealthy)}}, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.report); got != tt.want {
				t.Fatalf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFromConfig_Stages(t *testing.T) {
	eng, err := FromConfig(testConfig(t), WithModel(scriptedModel(fixingModel)))
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	var got []string
	for _, s := range eng.Stages() {
		got = append(got, s.Name)
	}
	want := []string{"authenticate", "fetch", "validate", "fix", "summarize"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("stages mismatch (-want +got):\n%s", diff)
	}
}

func TestFromConfig_RejectsBadChecks(t *testing.T) {
	tests := []struct {
		name     string
		selector string
		set      []string
	}{
		{name: "unknown check", selector: "no-such-check"},
		{name: "option for unselected check", selector: "go-syntax", set: []string{"flake8.python=python3"}},
		{name: "unknown option", selector: "go-syntax", set: []string{"go-syntax.color=blue"}},
		{name: "bad syntax", selector: "go-syntax", set: []string{"go-syntax"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			cfg.Checks.Selector = tt.selector
			cfg.Checks.Set = tt.set
			if _, err := FromConfig(cfg, WithModel(scriptedModel(fixingModel))); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestFromConfig_RejectsUnknownBackend(t *testing.T) {
	cfg := config.New()
	cfg.Model.Backend = "openai"
	if _, err := FromConfig(cfg); err == nil {
		t.Fatal("expected error for unknown model backend")
	}
}

func TestAnalyze_IndependentRuns(t *testing.T) {
	server := fakeGitHub(t, brokenRepo)
	eng := newTestEngine(t, testConfig(t), server, fixingModel)

	req, err := pipeline.NewRequest("acme/foo", "")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	first, err := eng.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	second, err := eng.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if first.RunID == second.RunID {
		t.Fatalf("runs share a run id %q", first.RunID)
	}
	if diff := cmp.Diff(first.Stages(), second.Stages()); diff != "" {
		t.Fatalf("runs differ (-first +second):\n%s", diff)
	}
	if first.Summary != second.Summary {
		t.Fatalf("summaries differ:\n%s\n%s", first.Summary, second.Summary)
	}
}

func TestRun_ExitCodes(t *testing.T) {
	tests := []struct {
		name  string
		files []file
		model scriptedModel
		repo  string
		want  int
	}{
		{name: "healthy", files: healthyRepo, model: fixingModel, want: 0},
		{name: "needs attention", files: brokenRepo, model: fixingModel, want: 1},
		{name: "model down", files: brokenRepo, model: unavailableModel, want: 2},
		{name: "not found", files: healthyRepo, model: fixingModel, repo: "acme/missing", want: 3},
		{name: "invalid url", files: healthyRepo, model: fixingModel, repo: "not a repo", want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := fakeGitHub(t, tt.files)
			cfg := testConfig(t)
			if tt.repo != "" {
				cfg.Target.Repository = tt.repo
			}
			eng := newTestEngine(t, cfg, server, tt.model)
			if got := eng.Run(context.Background(), cfg); got != tt.want {
				t.Fatalf("Run() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRun_EmptyRepositoryIsFatal(t *testing.T) {
	server := fakeGitHub(t, healthyRepo)
	cfg := testConfig(t)
	cfg.Target.Repository = ""
	eng := newTestEngine(t, cfg, server, fixingModel)
	if got := eng.Run(context.Background(), cfg); got != 3 {
		t.Fatalf("Run() = %d, want 3", got)
	}
}

func TestRun_WritesOutputs(t *testing.T) {
	server := fakeGitHub(t, brokenRepo)
	dir := t.TempDir()
	cfg := testConfig(t)
	cfg.Output.Out = filepath.Join(dir, "out", "report.json")
	cfg.Output.OutFormat = "json"
	cfg.Output.Report = filepath.Join(dir, "report.md")
	eng := newTestEngine(t, cfg, server, fixingModel)

	if got := eng.Run(context.Background(), cfg); got != 1 {
		t.Fatalf("Run() = %d, want 1", got)
	}

	b, err := os.ReadFile(cfg.Output.Out)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var report struct {
		State   string `json:"state"`
		Summary string `json:"summary"`
		Entries []struct {
			Stage string `json:"stage"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(b, &report); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, b)
	}
	if report.State != "completed" || len(report.Entries) != 5 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if !strings.Contains(report.Summary, "acme/foo@main: health") {
		t.Fatalf("summary missing headline: %q", report.Summary)
	}
	if strings.Contains(string(b), `"content"`) {
		t.Fatal("file content leaked into JSON report")
	}

	md, err := os.ReadFile(cfg.Output.Report)
	if err != nil {
		t.Fatalf("read markdown: %v", err)
	}
	for _, want := range []string{"# RepoGuardian Report", "### bad.go", "```diff", "_Exit code: 1_"} {
		if !strings.Contains(string(md), want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}
