package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v81/github"
)

// TreeFile is one blob in a repository tree.
type TreeFile struct {
	Path string
	SHA  string
	Size int
}

func (c *Client) ready() error {
	if c == nil || c.Client == nil {
		return fmt.Errorf("github: client is nil (use NewClient)")
	}
	return nil
}

// Repository fetches repository metadata.
func (c *Client) Repository(ctx context.Context, ref RepoRef) (*github.Repository, *github.Response, error) {
	if err := c.ready(); err != nil {
		return nil, nil, err
	}
	return c.Client.Repositories.Get(ctx, ref.Owner, ref.Name)
}

// Tree lists every blob reachable from ref (a branch, tag or commit SHA) in
// tree order. truncated is reported by GitHub for very large trees.
func (c *Client) Tree(ctx context.Context, repo RepoRef, ref string) (files []TreeFile, truncated bool, resp *github.Response, err error) {
	if err := c.ready(); err != nil {
		return nil, false, nil, err
	}
	tree, resp, err := c.Client.Git.GetTree(ctx, repo.Owner, repo.Name, ref, true)
	if err != nil {
		return nil, false, resp, err
	}
	for _, e := range tree.Entries {
		if e.GetType() != "blob" {
			continue
		}
		files = append(files, TreeFile{Path: e.GetPath(), SHA: e.GetSHA(), Size: e.GetSize()})
	}
	return files, tree.GetTruncated(), resp, nil
}

// Blob downloads the raw bytes of a blob.
func (c *Client) Blob(ctx context.Context, repo RepoRef, sha string) ([]byte, *github.Response, error) {
	if err := c.ready(); err != nil {
		return nil, nil, err
	}
	return c.Client.Git.GetBlobRaw(ctx, repo.Owner, repo.Name, sha)
}
