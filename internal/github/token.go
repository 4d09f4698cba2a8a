package github

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

type AuthTokenSource string

const (
	AuthTokenSourceNone     AuthTokenSource = ""
	AuthTokenSourceExplicit AuthTokenSource = "explicit"
	AuthTokenSourceEnv      AuthTokenSource = "env:GITHUB_TOKEN"
	AuthTokenSourceGitHubCL AuthTokenSource = "gh"
)

type resolveOptions struct {
	useGitHubCLI bool
}

type ResolveOption func(*resolveOptions)

// WithGitHubCLI enables the `gh auth token` fallback. The web server leaves it
// off so that visitors never borrow the host's credentials.
func WithGitHubCLI(enabled bool) ResolveOption {
	return func(o *resolveOptions) { o.useGitHubCLI = enabled }
}

// ResolveAuthToken resolves the credential for one analysis.
//
// Precedence:
//  1. provided (if non-empty)
//  2. GITHUB_TOKEN env var
//  3. GitHub CLI: `gh auth token -h github.com` (only WithGitHubCLI(true))
//
// An empty result means anonymous access. It never prints the token.
func ResolveAuthToken(ctx context.Context, provided string, opts ...ResolveOption) (string, AuthTokenSource, error) {
	o := resolveOptions{}
	for _, apply := range opts {
		if apply != nil {
			apply(&o)
		}
	}

	if tok := strings.TrimSpace(provided); tok != "" {
		return tok, AuthTokenSourceExplicit, nil
	}
	if env := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); env != "" {
		return env, AuthTokenSourceEnv, nil
	}
	if !o.useGitHubCLI {
		return "", AuthTokenSourceNone, nil
	}

	tok, ok, err := tokenFromGitHubCLI(ctx)
	if err != nil {
		return "", AuthTokenSourceNone, err
	}
	if ok {
		return tok, AuthTokenSourceGitHubCL, nil
	}
	return "", AuthTokenSourceNone, nil
}

func tokenFromGitHubCLI(ctx context.Context) (string, bool, error) {
	if _, err := exec.LookPath("gh"); err != nil {
		return "", false, nil
	}

	// A broken gh credential helper must not hang the analysis.
	cmdCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "gh", "auth", "token", "-h", "github.com")
	env := make([]string, 0, len(os.Environ())+1)
	for _, entry := range os.Environ() {
		if !strings.HasPrefix(entry, "GH_PAGER=") {
			env = append(env, entry)
		}
	}
	cmd.Env = append(env, "GH_PAGER=cat")

	out, runErr := cmd.Output()
	if runErr != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		// Not logged in, or gh failed: anonymous. Raw gh output is not surfaced.
		return "", false, nil
	}

	tok := strings.TrimSpace(string(out))
	if tok == "" {
		return "", false, nil
	}
	if strings.ContainsAny(tok, " \t\n\r") {
		return "", false, errors.New("invalid token returned by gh: contains whitespace")
	}
	return tok, true, nil
}
