// Package stages builds the five analysis stages run by the pipeline:
// authenticate, fetch, validate, fix and summarize.
package stages

import (
	"context"
	"strings"
	"time"

	"repoguardian/internal/checks"
	gh "repoguardian/internal/github"
	"repoguardian/internal/model"
	"repoguardian/internal/pipeline"
)

const (
	StageAuthenticate = "authenticate"
	StageFetch        = "fetch"
	StageValidate     = "validate"
	StageFix          = "fix"
	StageSummarize    = "summarize"
)

// DefaultIncludeExts is the set of file extensions fetched for analysis.
var DefaultIncludeExts = []string{
	".py", ".go", ".md", ".txt", ".json", ".yaml", ".yml", ".toml", ".ini", ".cfg",
	".js", ".ts", ".java", ".cpp", ".c", ".h", ".html", ".css",
}

// DefaultBinaryExts are never downloaded even when included.
var DefaultBinaryExts = []string{
	".png", ".jpg", ".jpeg", ".gif", ".zip", ".tar.gz", ".gz", ".ico", ".pdf", ".exe", ".dll",
}

type Limits struct {
	// MaxListFiles caps the candidate files taken from the tree.
	MaxListFiles int
	// MaxFetchFiles caps the files downloaded.
	MaxFetchFiles int
	// MaxFileBytes skips larger blobs.
	MaxFileBytes int
	// MaxFixFiles caps model calls in the fix stage.
	MaxFixFiles int
	// Concurrency bounds parallel blob downloads.
	Concurrency int
	// RateLimitWait is the longest the fetcher waits for the GitHub rate
	// limit before failing.
	RateLimitWait time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		MaxListFiles:  400,
		MaxFetchFiles: 200,
		MaxFileBytes:  200_000,
		MaxFixFiles:   6,
		Concurrency:   8,
		RateLimitWait: 30 * time.Second,
	}
}

// ClientFactory builds the GitHub client for one request.
type ClientFactory func(ctx context.Context, token string) (*gh.Client, error)

type Deps struct {
	NewClient   ClientFactory
	Model       model.Backend
	Checks      []checks.Check
	Limits      Limits
	IncludeExts []string
	BinaryExts  []string
}

func (d Deps) withDefaults() Deps {
	def := DefaultLimits()
	if d.NewClient == nil {
		d.NewClient = func(ctx context.Context, token string) (*gh.Client, error) {
			return gh.NewClient(ctx, token)
		}
	}
	if d.Limits.MaxListFiles <= 0 {
		d.Limits.MaxListFiles = def.MaxListFiles
	}
	if d.Limits.MaxFetchFiles <= 0 {
		d.Limits.MaxFetchFiles = def.MaxFetchFiles
	}
	if d.Limits.MaxFileBytes <= 0 {
		d.Limits.MaxFileBytes = def.MaxFileBytes
	}
	if d.Limits.MaxFixFiles <= 0 {
		d.Limits.MaxFixFiles = def.MaxFixFiles
	}
	if d.Limits.Concurrency <= 0 {
		d.Limits.Concurrency = def.Concurrency
	}
	if d.Limits.RateLimitWait <= 0 {
		d.Limits.RateLimitWait = def.RateLimitWait
	}
	if len(d.IncludeExts) == 0 {
		d.IncludeExts = DefaultIncludeExts
	}
	if d.BinaryExts == nil {
		d.BinaryExts = DefaultBinaryExts
	}
	return d
}

// Default returns the analysis stages in execution order.
func Default(deps Deps) []pipeline.StageSpec {
	deps = deps.withDefaults()
	return []pipeline.StageSpec{
		{Name: StageAuthenticate, Required: true, Op: authenticate(deps)},
		{Name: StageFetch, Required: true, Op: fetch(deps)},
		{Name: StageValidate, Required: true, Op: validate(deps)},
		{Name: StageFix, Required: false, Op: fix(deps)},
		{Name: StageSummarize, Required: false, Op: summarize(deps)},
	}
}

func hasSuffixFold(p string, suffixes []string) bool {
	low := strings.ToLower(p)
	for _, s := range suffixes {
		if strings.HasSuffix(low, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

func missing(stage, dep string) error {
	return pipeline.Failure(pipeline.KindCollaborator, "%s requires the %s payload", stage, dep)
}
