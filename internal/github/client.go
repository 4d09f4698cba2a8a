package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/go-github/v81/github"
	"golang.org/x/oauth2"
)

// Client bundles the go-github client with the HTTP client it was built on.
type Client struct {
	Client *github.Client
	HTTP   *http.Client

	authenticated bool
}

// Authenticated reports whether the client sends a token.
func (c *Client) Authenticated() bool {
	return c != nil && c.authenticated
}

type options struct {
	verbose bool
	// writer receives verbose HTTP lines (stderr by default) so structured
	// output on stdout stays clean.
	writer  io.Writer
	baseURL string
	timeout time.Duration
}

type Option func(*options)

func WithVerbose(enabled bool, writer io.Writer) Option {
	return func(o *options) {
		o.verbose = enabled
		o.writer = writer
	}
}

// WithBaseURL points the client at a GitHub Enterprise or test server.
func WithBaseURL(raw string) Option {
	return func(o *options) { o.baseURL = raw }
}

// WithTimeout bounds every HTTP call the client makes.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// loggingRoundTripper emits one line per request and response (with latency)
// when verbose logging is enabled.
type loggingRoundTripper struct {
	base http.RoundTripper
	w    io.Writer
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.w == nil {
		return t.base.RoundTrip(req)
	}
	start := time.Now()
	_, _ = fmt.Fprintf(t.w, "[verbose] github api: %s %s\n", req.Method, req.URL.Redacted())
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	switch {
	case err != nil:
		_, _ = fmt.Fprintf(t.w, "[verbose] github api: error after %s: %v\n", dur, err)
	case resp.Header.Get("X-RateLimit-Remaining") != "":
		_, _ = fmt.Fprintf(t.w, "[verbose] github api: %d %s (%s, %s requests left)\n",
			resp.StatusCode, http.StatusText(resp.StatusCode), dur, resp.Header.Get("X-RateLimit-Remaining"))
	default:
		_, _ = fmt.Fprintf(t.w, "[verbose] github api: %d %s (%s)\n", resp.StatusCode, http.StatusText(resp.StatusCode), dur)
	}
	return resp, err
}

// NewClient builds a GitHub client. An empty token yields an anonymous
// client, which GitHub rate-limits far more aggressively.
func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.verbose && o.writer == nil {
		o.writer = os.Stderr
	}

	transport := http.DefaultTransport
	if o.verbose {
		transport = &loggingRoundTripper{base: transport, w: o.writer}
	}
	token = strings.TrimSpace(token)
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	tc := &http.Client{Transport: transport, Timeout: o.timeout}

	gc := github.NewClient(tc)
	if o.baseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(o.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github client: invalid base url %q: %w", o.baseURL, err)
		}
		gc.BaseURL = base
		gc.UploadURL = base
	}

	return &Client{
		Client:        gc,
		HTTP:          tc,
		authenticated: token != "",
	}, nil
}
