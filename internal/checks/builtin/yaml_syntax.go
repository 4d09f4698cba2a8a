package builtin

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"repoguardian/internal/checks"
)

var yamlLineRE = regexp.MustCompile(`line (\d+)`)

type YAMLSyntaxCheck struct{}

func (c *YAMLSyntaxCheck) ID() string            { return "yaml-syntax" }
func (c *YAMLSyntaxCheck) Title() string         { return "YAML Is Well-Formed" }
func (c *YAMLSyntaxCheck) Kind() checks.Kind     { return checks.KindSyntax }
func (c *YAMLSyntaxCheck) Applies(p string) bool { return checks.HasExt(p, ".yaml", ".yml") }

func (c *YAMLSyntaxCheck) Description() string {
	return "Decodes every document in a YAML stream and reports the first syntax error."
}

func (c *YAMLSyntaxCheck) Run(ctx context.Context, f checks.File) (checks.Result, error) {
	dec := yaml.NewDecoder(bytes.NewReader(f.Content))
	for doc := 1; ; doc++ {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			return checks.PassResult(f, c.ID()), nil
		}
		if err != nil {
			issue := checks.Issue{Text: err.Error()}
			if m := yamlLineRE.FindStringSubmatch(err.Error()); m != nil {
				issue.Line, _ = strconv.Atoi(m[1])
			}
			return checks.FailResult(f, c.ID(), err.Error(), issue), nil
		}
	}
}

func init() {
	checks.Register(&YAMLSyntaxCheck{})
}
