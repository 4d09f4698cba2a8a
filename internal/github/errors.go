package github

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/google/go-github/v81/github"

	"repoguardian/internal/pipeline"
)

// Classify maps a go-github (or transport) error onto a pipeline error kind
// and strips the request URL that go-github prefixes to its messages.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var classified *pipeline.Error
	if errors.As(err, &classified) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return pipeline.Failure(pipeline.KindTimeout, "GitHub API request timed out")
	}
	if errors.Is(err, context.Canceled) {
		return pipeline.Failure(pipeline.KindCollaborator, "GitHub API request canceled")
	}

	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		return pipeline.Failure(pipeline.KindNetwork, "GitHub API rate limit exceeded (resets %s)", rle.Rate.Reset.Time.Format("15:04:05 MST"))
	}
	var arle *github.AbuseRateLimitError
	if errors.As(err, &arle) {
		return pipeline.Failure(pipeline.KindNetwork, "GitHub API secondary rate limit: %s", strings.TrimSpace(arle.Message))
	}

	var er *github.ErrorResponse
	if errors.As(err, &er) {
		msg := strings.TrimSpace(er.Message)
		status := 0
		if er.Response != nil {
			status = er.Response.StatusCode
		}
		if msg == "" {
			msg = "GitHub API request failed"
		}
		detail := msg
		if status != 0 {
			detail = fmt.Sprintf("GitHub API request failed (%d %s): %s", status, http.StatusText(status), msg)
		}
		switch {
		case status == http.StatusUnauthorized, status == http.StatusForbidden:
			return pipeline.Failure(pipeline.KindAuth, "%s", detail)
		case status == http.StatusNotFound:
			return pipeline.Failure(pipeline.KindNotFound, "%s", detail)
		case status >= 500, status == http.StatusTooManyRequests:
			return pipeline.Failure(pipeline.KindNetwork, "%s", detail)
		default:
			return pipeline.Failure(pipeline.KindCollaborator, "%s", detail)
		}
	}

	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return pipeline.Failure(pipeline.KindTimeout, "GitHub API request timed out")
		}
		return pipeline.Failure(pipeline.KindNetwork, "%s", scrubOrDefault(err.Error()))
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return pipeline.Failure(pipeline.KindNetwork, "%s", scrubOrDefault(err.Error()))
	}

	return pipeline.Failure(pipeline.KindCollaborator, "%s", scrubOrDefault(err.Error()))
}

func scrubOrDefault(s string) string {
	s = strings.TrimSpace(s)
	if scrubbed := scrubRequestFromErrorString(s); scrubbed != "" {
		return scrubbed
	}
	if s == "" {
		return "GitHub API request failed"
	}
	return s
}

// scrubRequestFromErrorString drops the leading "GET https://...: " that
// go-github puts in front of its error strings.
func scrubRequestFromErrorString(s string) string {
	for _, m := range []string{"GET ", "POST ", "PUT ", "PATCH ", "DELETE "} {
		if !strings.HasPrefix(s, m) {
			continue
		}
		if i := strings.Index(s, "://"); i >= 0 {
			if j := strings.Index(s[i:], ": "); j >= 0 {
				return strings.TrimSpace(s[i+j+2:])
			}
		}
		if j := strings.Index(s, ": "); j >= 0 {
			return strings.TrimSpace(s[j+2:])
		}
		return ""
	}
	return ""
}
