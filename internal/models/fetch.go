package models

// SkipReason explains why a listed file was not downloaded.
type SkipReason string

const (
	SkipBinary   SkipReason = "binary"
	SkipTooLarge SkipReason = "too_large"
	SkipLimit    SkipReason = "max_files"
)

// FetchedFile is one downloaded file. Content is kept for later stages but
// excluded from serialized reports.
type FetchedFile struct {
	Path    string `json:"path"`
	SHA     string `json:"sha"`
	Size    int    `json:"size"`
	Content string `json:"-"`
}

type SkippedFile struct {
	Path   string     `json:"path"`
	Size   int        `json:"size"`
	Reason SkipReason `json:"reason"`
}

type FailedFile struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// FetchResult is the fetch stage payload.
type FetchResult struct {
	Repository string `json:"repository"`
	Branch     string `json:"branch"`
	// Listed counts candidate files after extension filtering and the
	// listing cap, before size and binary filtering.
	Listed    int           `json:"listed"`
	Truncated bool          `json:"truncated"`
	Files     []FetchedFile `json:"files"`
	Skipped   []SkippedFile `json:"skipped,omitempty"`
	Failed    []FailedFile  `json:"failed,omitempty"`
}

// Content returns the downloaded text of path.
func (r *FetchResult) Content(path string) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, f := range r.Files {
		if f.Path == path {
			return f.Content, true
		}
	}
	return "", false
}
