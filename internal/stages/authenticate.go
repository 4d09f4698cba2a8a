package stages

import (
	"context"
	"strings"

	"github.com/chainguard-dev/clog"

	gh "repoguardian/internal/github"
	"repoguardian/internal/models"
	"repoguardian/internal/pipeline"
)

// authenticate parses the repository URL, builds a client for the request's
// credential and checks that the repository is reachable.
func authenticate(deps Deps) pipeline.Operation {
	return func(ctx context.Context, req pipeline.Request, _ pipeline.State) (any, error) {
		ref, err := gh.ParseRepoURL(req.RepositoryURL())
		if err != nil {
			return nil, pipeline.Failure(pipeline.KindValidation, "%s", err.Error())
		}

		client, err := deps.NewClient(ctx, req.Credential())
		if err != nil {
			return nil, pipeline.Failure(pipeline.KindCollaborator, "github client: %v", err)
		}

		repo, _, err := client.Repository(ctx, ref)
		if err != nil {
			return nil, gh.Classify(err)
		}

		// An explicit branch wins over one taken from a /tree/ URL.
		branch := strings.TrimSpace(req.Branch())
		if branch == "" {
			branch = ref.Branch
		}
		if branch == "" {
			branch = repo.GetDefaultBranch()
		}
		if branch == "" {
			return nil, pipeline.Failure(pipeline.KindNotFound, "repository %s has no default branch (empty repository?)", ref.FullName())
		}

		info := &models.RepoInfo{
			Owner:         ref.Owner,
			Name:          ref.Name,
			FullName:      ref.FullName(),
			Branch:        branch,
			DefaultBranch: repo.GetDefaultBranch(),
			Private:       repo.GetPrivate(),
			Description:   repo.GetDescription(),
			Authenticated: client.Authenticated(),
			Client:        client,
		}
		if full := repo.GetFullName(); full != "" {
			info.FullName = full
		}
		clog.FromContext(ctx).Infof("authenticated %s (branch=%s, private=%t, token=%t)", info.FullName, branch, info.Private, info.Authenticated)
		return info, nil
	}
}
