// Package fetcher downloads repository trees and blobs for one analysis,
// deduplicating identical in-flight requests and respecting the GitHub rate
// limit.
package fetcher

import (
	"context"
	"fmt"

	"github.com/google/go-github/v81/github"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	gh "repoguardian/internal/github"
)

// DefaultConcurrency bounds parallel blob downloads.
const DefaultConcurrency = 8

type Fetcher struct {
	client *gh.Client
	budget *RequestBudget
	group  singleflight.Group
	blobs  *Cache[[]byte]
}

func NewFetcher(client *gh.Client, budget *RequestBudget) *Fetcher {
	return &Fetcher{
		client: client,
		budget: budget,
		blobs:  NewCache[[]byte](),
	}
}

func (f *Fetcher) Budget() *RequestBudget {
	return f.budget
}

func (f *Fetcher) ready(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("fetcher: nil context")
	}
	if f == nil || f.client == nil || f.client.Client == nil {
		return fmt.Errorf("fetcher: nil GitHub client (use NewFetcher)")
	}
	if f.budget == nil || f.blobs == nil {
		return fmt.Errorf("fetcher: not initialized (use NewFetcher)")
	}
	return nil
}

func (f *Fetcher) observe(resp *github.Response) {
	if resp != nil {
		f.budget.UpdateFromResponse(resp.Response)
	}
}

// Tree lists the blobs of repo at ref. Errors are classified.
func (f *Fetcher) Tree(ctx context.Context, repo gh.RepoRef, ref string) ([]gh.TreeFile, bool, error) {
	if err := f.ready(ctx); err != nil {
		return nil, false, err
	}
	if err := f.budget.Acquire(ctx); err != nil {
		return nil, false, gh.Classify(err)
	}
	files, truncated, resp, err := f.client.Tree(ctx, repo, ref)
	f.observe(resp)
	if err != nil {
		return nil, false, gh.Classify(err)
	}
	return files, truncated, nil
}

// Blob downloads one blob. Concurrent calls for the same blob share a single
// request and later calls are served from memory.
func (f *Fetcher) Blob(ctx context.Context, repo gh.RepoRef, sha string) ([]byte, error) {
	if err := f.ready(ctx); err != nil {
		return nil, err
	}
	if sha == "" {
		return nil, fmt.Errorf("fetcher: empty blob sha")
	}
	key := repo.FullName() + "@" + sha
	if raw, ok := f.blobs.Get(key); ok {
		return raw, nil
	}

	v, err, _ := f.group.Do(key, func() (any, error) {
		if err := f.budget.Acquire(ctx); err != nil {
			return nil, gh.Classify(err)
		}
		raw, resp, err := f.client.Blob(ctx, repo, sha)
		f.observe(resp)
		if err != nil {
			return nil, gh.Classify(err)
		}
		f.blobs.Set(key, raw)
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// BlobResult is the outcome of downloading one file.
type BlobResult struct {
	File    gh.TreeFile
	Content []byte
	Err     error
}

// FetchAll downloads files with at most concurrency requests in flight.
// Results keep the order of files; one failure does not stop the others.
func (f *Fetcher) FetchAll(ctx context.Context, repo gh.RepoRef, files []gh.TreeFile, concurrency int) []BlobResult {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	out := make([]BlobResult, len(files))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, file := range files {
		g.Go(func() error {
			raw, err := f.Blob(ctx, repo, file.SHA)
			out[i] = BlobResult{File: file, Content: raw, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
