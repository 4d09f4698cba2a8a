package pipeline

import (
	"fmt"
	"strings"
)

// Request identifies one analysis run. It is immutable once built; the
// credential is never printed.
type Request struct {
	repositoryURL string
	credential    string
	branch        string
}

type RequestOption func(*Request)

// WithBranch analyses the given branch instead of the repository default.
func WithBranch(branch string) RequestOption {
	return func(r *Request) {
		r.branch = strings.TrimSpace(branch)
	}
}

// NewRequest validates and builds a Request. An empty credential means
// anonymous access.
func NewRequest(repositoryURL, credential string, opts ...RequestOption) (Request, error) {
	r := Request{
		repositoryURL: strings.TrimSpace(repositoryURL),
		credential:    strings.TrimSpace(credential),
	}
	if r.repositoryURL == "" {
		return Request{}, ErrEmptyRepositoryURL
	}
	for _, apply := range opts {
		if apply != nil {
			apply(&r)
		}
	}
	return r, nil
}

func (r Request) RepositoryURL() string { return r.repositoryURL }
func (r Request) Credential() string    { return r.credential }
func (r Request) Branch() string        { return r.branch }

// Anonymous reports whether the request carries no credential.
func (r Request) Anonymous() bool { return r.credential == "" }

func (r Request) String() string {
	auth := "anonymous"
	if !r.Anonymous() {
		auth = "token"
	}
	if r.branch != "" {
		return fmt.Sprintf("%s@%s (%s)", r.repositoryURL, r.branch, auth)
	}
	return fmt.Sprintf("%s (%s)", r.repositoryURL, auth)
}
