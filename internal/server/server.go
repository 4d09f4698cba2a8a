// Package server serves the RepoGuardian web form and JSON API.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	gh "repoguardian/internal/github"
	"repoguardian/internal/output"
	"repoguardian/internal/pipeline"
)

// Analyzer runs one analysis. *engine.Engine implements it.
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.Request, opts ...pipeline.Option) (*pipeline.Report, error)
}

type Server struct {
	addr     string
	analyzer Analyzer
	timeout  time.Duration
	router   chi.Router

	reportPath string
	reportMu   sync.Mutex
}

type Option func(*Server)

// WithTimeout bounds each request. The default is ten minutes.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithReportPath writes the JSON report of every completed analysis to path,
// replacing the previous one.
func WithReportPath(path string) Option {
	return func(s *Server) { s.reportPath = strings.TrimSpace(path) }
}

func New(addr string, analyzer Analyzer, opts ...Option) (*Server, error) {
	if analyzer == nil {
		return nil, errors.New("server: analyzer is nil")
	}
	s := &Server{addr: addr, analyzer: analyzer, timeout: 10 * time.Minute}
	for _, apply := range opts {
		if apply != nil {
			apply(s)
		}
	}
	s.router = s.buildRouter()
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.router }

// Start listens until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	clog.FromContext(ctx).Infof("RepoGuardian listening on %s", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/", s.handleIndex)
	r.Post("/analyze", s.handleAnalyzeForm)
	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyzeAPI)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

type analyzeRequest struct {
	RepositoryURL string `json:"repository_url"`
	Token         string `json:"token,omitempty"`
	Branch        string `json:"branch,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// analyze resolves the credential and runs one analysis. The host's gh CLI
// login is never used for web visitors.
func (s *Server) analyze(ctx context.Context, in analyzeRequest) (*pipeline.Report, error) {
	token, _, err := gh.ResolveAuthToken(ctx, in.Token)
	if err != nil {
		return nil, err
	}
	req, err := pipeline.NewRequest(in.RepositoryURL, token, pipeline.WithBranch(in.Branch))
	if err != nil {
		return nil, err
	}
	clog.FromContext(ctx).Infof("analyzing %s", req)
	report, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	s.persist(ctx, report)
	return report, nil
}

// persist saves report when a report path is configured. Failures are
// logged and leave the response untouched.
func (s *Server) persist(ctx context.Context, report *pipeline.Report) {
	if s.reportPath == "" || report == nil {
		return
	}
	s.reportMu.Lock()
	defer s.reportMu.Unlock()
	if err := output.WriteReport(s.reportPath, report); err != nil {
		clog.FromContext(ctx).Warnf("save report to %s: %v", s.reportPath, err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	renderPage(w, http.StatusOK, pageData{})
}

func (s *Server) handleAnalyzeForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderPage(w, http.StatusBadRequest, pageData{Error: "invalid form submission"})
		return
	}
	in := analyzeRequest{
		RepositoryURL: strings.TrimSpace(r.PostFormValue("repository_url")),
		Token:         r.PostFormValue("token"),
		Branch:        strings.TrimSpace(r.PostFormValue("branch")),
	}
	data := pageData{RepositoryURL: in.RepositoryURL, Branch: in.Branch}
	if in.RepositoryURL == "" {
		data.Error = "Please enter a GitHub repository URL."
		renderPage(w, http.StatusBadRequest, data)
		return
	}

	report, err := s.analyze(r.Context(), in)
	if err != nil {
		clog.FromContext(r.Context()).Warnf("analyze %s: %v", in.RepositoryURL, err)
		data.Error = err.Error()
		renderPage(w, http.StatusInternalServerError, data)
		return
	}
	var buf bytes.Buffer
	if err := output.RenderText(&buf, report); err != nil {
		data.Error = fmt.Sprintf("render report: %v", err)
		renderPage(w, http.StatusInternalServerError, data)
		return
	}
	data.Report = buf.String()
	data.State = string(report.State)
	renderPage(w, http.StatusOK, data)
}

func (s *Server) handleAnalyzeAPI(w http.ResponseWriter, r *http.Request) {
	var in analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(in.RepositoryURL) == "" {
		writeError(w, http.StatusBadRequest, "repository_url is required")
		return
	}
	report, err := s.analyze(r.Context(), in)
	if err != nil {
		clog.FromContext(r.Context()).Warnf("analyze %s: %v", in.RepositoryURL, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
