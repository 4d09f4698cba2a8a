package checks

import (
	"path"
	"strings"
)

// IgnoreList skips files by path. Patterns use path.Match syntax; a pattern
// without a slash also matches the base name, and a pattern ending in "/"
// matches everything under that directory.
type IgnoreList struct {
	Patterns []string
}

func (l *IgnoreList) Options() []Option {
	return []Option{
		{
			Name:        "ignore.paths",
			Description: "Comma-separated path patterns this check skips (e.g. vendor/, *_pb2.py, docs/*.md).",
		},
	}
}

func (l *IgnoreList) Configure(opts map[string]string) {
	l.Patterns = nil
	val, ok := opts["ignore.paths"]
	if !ok || val == "" {
		return
	}
	for _, s := range strings.Split(val, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			l.Patterns = append(l.Patterns, s)
		}
	}
}

// IsIgnored returns true and the matching pattern when p is ignored.
func (l *IgnoreList) IsIgnored(p string) (bool, string) {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	for _, pattern := range l.Patterns {
		if strings.HasSuffix(pattern, "/") {
			if strings.HasPrefix(p, pattern) {
				return true, pattern
			}
			continue
		}
		if matched, _ := path.Match(pattern, p); matched {
			return true, pattern
		}
		if !strings.Contains(pattern, "/") {
			if matched, _ := path.Match(pattern, path.Base(p)); matched {
				return true, pattern
			}
		}
	}
	return false, ""
}
