package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"repoguardian/internal/models"
	"repoguardian/internal/pipeline"
)

type fakeAnalyzer struct {
	mu   sync.Mutex
	reqs []pipeline.Request
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req pipeline.Request, _ ...pipeline.Option) (*pipeline.Report, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	return &pipeline.Report{
		RunID:      "run-1",
		Repository: req.RepositoryURL(),
		State:      pipeline.StateCompleted,
		Summary:    "acme/foo@main: health 99/100 (Healthy). <ok>",
		Entries: []pipeline.Entry{
			{Stage: "authenticate", Required: true, Result: pipeline.Succeeded(&models.RepoInfo{FullName: "acme/foo", Branch: "main"})},
		},
	}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeAnalyzer) {
	t.Helper()
	t.Setenv("GITHUB_TOKEN", "")
	fa := &fakeAnalyzer{}
	s, err := New(":0", fa)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, fa
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func TestNew_RejectsNilAnalyzer(t *testing.T) {
	if _, err := New(":0", nil); err == nil {
		t.Fatal("expected error for nil analyzer")
	}
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || body != "ok" {
		t.Fatalf("GET /health = %d %q", resp.StatusCode, body)
	}
}

func TestIndexRendersForm(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	body := readBody(t, resp)
	if !strings.Contains(body, `name="repository_url"`) || !strings.Contains(body, `name="token"`) {
		t.Fatalf("form fields missing:\n%s", body)
	}
}

func TestAnalyzeForm(t *testing.T) {
	ts, fa := newTestServer(t)
	resp, err := http.PostForm(ts.URL+"/analyze", url.Values{
		"repository_url": {" https://github.com/acme/foo "},
		"token":          {"form-token"},
		"branch":         {"dev"},
	})
	if err != nil {
		t.Fatalf("POST /analyze: %v", err)
	}
	defer resp.Body.Close()
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d\n%s", resp.StatusCode, body)
	}
	for _, want := range []string{"Repository: acme/foo@main", "[OK] authenticate", "health 99/100", "&lt;ok&gt;"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "form-token") {
		t.Error("token echoed back into the page")
	}
	if len(fa.reqs) != 1 {
		t.Fatalf("analyses = %d, want 1", len(fa.reqs))
	}
	got := fa.reqs[0]
	if got.RepositoryURL() != "https://github.com/acme/foo" || got.Credential() != "form-token" || got.Branch() != "dev" {
		t.Fatalf("unexpected request: %s branch=%q", got, got.Branch())
	}
}

func TestAnalyzeForm_EmptyURLDoesNotRun(t *testing.T) {
	ts, fa := newTestServer(t)
	resp, err := http.PostForm(ts.URL+"/analyze", url.Values{"repository_url": {"  "}})
	if err != nil {
		t.Fatalf("POST /analyze: %v", err)
	}
	defer resp.Body.Close()
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if !strings.Contains(body, "Please enter a GitHub repository URL.") {
		t.Fatalf("error message missing:\n%s", body)
	}
	if len(fa.reqs) != 0 {
		t.Fatalf("analysis ran %d times for an empty URL", len(fa.reqs))
	}
}

func TestAnalyzeForm_FallsBackToEnvToken(t *testing.T) {
	ts, fa := newTestServer(t)
	t.Setenv("GITHUB_TOKEN", "env-token")
	resp, err := http.PostForm(ts.URL+"/analyze", url.Values{"repository_url": {"acme/foo"}})
	if err != nil {
		t.Fatalf("POST /analyze: %v", err)
	}
	resp.Body.Close()
	if len(fa.reqs) != 1 || fa.reqs[0].Credential() != "env-token" {
		t.Fatalf("expected env token to be used, got %+v", fa.reqs)
	}
}

func TestAnalyzeAPI(t *testing.T) {
	ts, fa := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/analyze", "application/json",
		strings.NewReader(`{"repository_url":"acme/foo","branch":"main"}`))
	if err != nil {
		t.Fatalf("POST /api/analyze: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	var got struct {
		RunID   string `json:"run_id"`
		State   string `json:"state"`
		Entries []struct {
			Stage string `json:"stage"`
		} `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RunID != "run-1" || got.State != "completed" || len(got.Entries) != 1 {
		t.Fatalf("unexpected report: %+v", got)
	}
	if len(fa.reqs) != 1 || !fa.reqs[0].Anonymous() {
		t.Fatalf("expected one anonymous analysis, got %+v", fa.reqs)
	}
}

func TestAnalyzeAPI_BadRequests(t *testing.T) {
	ts, fa := newTestServer(t)
	for _, body := range []string{`not json`, `{"repository_url":""}`} {
		resp, err := http.Post(ts.URL+"/api/analyze", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST /api/analyze: %v", err)
		}
		var e errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest || e.Error == "" {
			t.Errorf("body %q: status = %d error = %q", body, resp.StatusCode, e.Error)
		}
	}
	if len(fa.reqs) != 0 {
		t.Fatalf("analysis ran for bad requests: %d", len(fa.reqs))
	}
}

func TestAnalyze_SavesReport(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	path := filepath.Join(t.TempDir(), "reports", "repo_report.json")
	s, err := New(":0", &fakeAnalyzer{}, WithReportPath(path))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.PostForm(ts.URL+"/analyze", url.Values{"repository_url": {"acme/foo"}})
	if err != nil {
		t.Fatalf("POST /analyze: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	var got struct {
		RunID      string `json:"run_id"`
		Repository string `json:"repository"`
	}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if got.RunID != "run-1" || got.Repository != "acme/foo" {
		t.Fatalf("unexpected saved report: %+v", got)
	}
}

func TestAnalyze_NoReportPathWritesNothing(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	ts, _ := newTestServer(t)
	resp, err := http.PostForm(ts.URL+"/analyze", url.Values{"repository_url": {"acme/foo"}})
	if err != nil {
		t.Fatalf("POST /analyze: %v", err)
	}
	resp.Body.Close()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("unexpected files written: %v", entries)
	}
}
