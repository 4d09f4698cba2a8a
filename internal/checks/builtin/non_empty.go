package builtin

import (
	"bytes"
	"context"

	"repoguardian/internal/checks"
)

type NonEmptyCheck struct{}

func (c *NonEmptyCheck) ID() string            { return "non-empty" }
func (c *NonEmptyCheck) Title() string         { return "File Has Content" }
func (c *NonEmptyCheck) Kind() checks.Kind     { return checks.KindBasic }
func (c *NonEmptyCheck) Applies(p string) bool { return true }

func (c *NonEmptyCheck) Description() string {
	return "Fails files that are empty or contain only whitespace."
}

func (c *NonEmptyCheck) Run(ctx context.Context, f checks.File) (checks.Result, error) {
	if len(bytes.TrimSpace(f.Content)) == 0 {
		return checks.FailResult(f, c.ID(), "file is empty"), nil
	}
	return checks.PassResult(f, c.ID()), nil
}

func init() {
	checks.Register(&NonEmptyCheck{})
}
