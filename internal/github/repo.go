package github

import (
	"fmt"
	"net/url"
	"strings"
)

// RepoRef names a repository as owner/name. Branch is set when the URL
// pointed into a branch (/tree/<branch>).
type RepoRef struct {
	Owner  string
	Name   string
	Branch string
}

func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// ParseRepoURL accepts the repository forms users paste into the form:
//
//	owner/repo
//	https://github.com/owner/repo
//	https://github.com/owner/repo.git
//	https://github.com/owner/repo/tree/main (Branch is "main")
//	github.com/owner/repo
//	git@github.com:owner/repo.git
func ParseRepoURL(raw string) (RepoRef, error) {
	sel := strings.TrimSpace(raw)
	if sel == "" {
		return RepoRef{}, fmt.Errorf("repository url is empty")
	}
	invalid := func() (RepoRef, error) {
		return RepoRef{}, fmt.Errorf("invalid repository %q; expected owner/name or a github.com URL", raw)
	}

	if strings.HasPrefix(sel, "github.com/") || strings.HasPrefix(sel, "www.github.com/") {
		sel = "https://" + sel
	}

	var path string
	switch {
	case strings.HasPrefix(sel, "git@github.com:"):
		path = strings.TrimPrefix(sel, "git@github.com:")
	case strings.HasPrefix(sel, "http://"), strings.HasPrefix(sel, "https://"), strings.HasPrefix(sel, "git://"):
		u, err := url.Parse(sel)
		if err != nil {
			return invalid()
		}
		host := strings.ToLower(u.Hostname())
		if host != "github.com" && host != "www.github.com" {
			return invalid()
		}
		path = u.Path
	default:
		if strings.Count(strings.Trim(sel, "/"), "/") != 1 {
			return invalid()
		}
		path = sel
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return invalid()
	}
	ref := RepoRef{Owner: parts[0], Name: strings.TrimSuffix(parts[1], ".git")}
	if ref.Owner == "" || ref.Name == "" || strings.ContainsAny(ref.FullName(), " \t*?[") {
		return invalid()
	}
	if len(parts) > 3 && parts[2] == "tree" {
		ref.Branch = strings.Join(parts[3:], "/")
	}
	return ref, nil
}
