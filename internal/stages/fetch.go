package stages

import (
	"context"
	"strings"

	"github.com/chainguard-dev/clog"

	"repoguardian/internal/fetcher"
	gh "repoguardian/internal/github"
	"repoguardian/internal/models"
	"repoguardian/internal/pipeline"
)

// fetch lists the branch tree and downloads the text files worth analyzing.
func fetch(deps Deps) pipeline.Operation {
	return func(ctx context.Context, _ pipeline.Request, state pipeline.State) (any, error) {
		info, ok := pipeline.Lookup[*models.RepoInfo](state, StageAuthenticate)
		if !ok || info.Client == nil {
			return nil, missing(StageFetch, StageAuthenticate)
		}
		log := clog.FromContext(ctx)
		lim := deps.Limits

		f := fetcher.NewFetcher(info.Client, fetcher.NewRequestBudget(lim.RateLimitWait))
		tree, truncated, err := f.Tree(ctx, info.Ref(), info.Branch)
		if err != nil {
			return nil, err
		}
		if truncated {
			log.Warnf("tree for %s@%s is truncated; analyzing a partial listing", info.FullName, info.Branch)
		}

		result := &models.FetchResult{
			Repository: info.FullName,
			Branch:     info.Branch,
			Truncated:  truncated,
		}

		var candidates []gh.TreeFile
		for _, tf := range tree {
			if !hasSuffixFold(tf.Path, deps.IncludeExts) {
				continue
			}
			candidates = append(candidates, tf)
			if len(candidates) >= lim.MaxListFiles {
				break
			}
		}
		result.Listed = len(candidates)

		var wanted []gh.TreeFile
		for _, tf := range candidates {
			switch {
			case hasSuffixFold(tf.Path, deps.BinaryExts):
				result.Skipped = append(result.Skipped, models.SkippedFile{Path: tf.Path, Size: tf.Size, Reason: models.SkipBinary})
			case tf.Size > lim.MaxFileBytes:
				result.Skipped = append(result.Skipped, models.SkippedFile{Path: tf.Path, Size: tf.Size, Reason: models.SkipTooLarge})
			case len(wanted) >= lim.MaxFetchFiles:
				result.Skipped = append(result.Skipped, models.SkippedFile{Path: tf.Path, Size: tf.Size, Reason: models.SkipLimit})
			default:
				wanted = append(wanted, tf)
			}
		}

		var firstErr error
		for _, r := range f.FetchAll(ctx, info.Ref(), wanted, lim.Concurrency) {
			if r.Err != nil {
				if firstErr == nil {
					firstErr = r.Err
				}
				result.Failed = append(result.Failed, models.FailedFile{
					Path:    r.File.Path,
					Kind:    string(pipeline.KindOf(r.Err)),
					Message: r.Err.Error(),
				})
				continue
			}
			if len(r.Content) > lim.MaxFileBytes {
				result.Skipped = append(result.Skipped, models.SkippedFile{Path: r.File.Path, Size: len(r.Content), Reason: models.SkipTooLarge})
				continue
			}
			result.Files = append(result.Files, models.FetchedFile{
				Path:    r.File.Path,
				SHA:     r.File.SHA,
				Size:    len(r.Content),
				Content: strings.ToValidUTF8(string(r.Content), "�"),
			})
		}

		if len(wanted) > 0 && len(result.Files) == 0 && firstErr != nil {
			return nil, pipeline.Failure(pipeline.KindOf(firstErr),
				"all %d file downloads failed; first error: %s", len(wanted), firstErr.Error())
		}

		log.Infof("fetched %d of %d listed files from %s@%s (%d skipped, %d failed)",
			len(result.Files), result.Listed, info.FullName, info.Branch, len(result.Skipped), len(result.Failed))
		return result, nil
	}
}
