package models

import gh "repoguardian/internal/github"

// RepoInfo is the authenticate stage payload.
type RepoInfo struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Branch        string `json:"branch"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
	Description   string `json:"description,omitempty"`
	Authenticated bool   `json:"authenticated"`

	// Client is the authenticated handle later stages reuse. It is never
	// serialized.
	Client *gh.Client `json:"-"`
}

func (r *RepoInfo) Ref() gh.RepoRef {
	return gh.RepoRef{Owner: r.Owner, Name: r.Name}
}
