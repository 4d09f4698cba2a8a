package main

import (
	_ "repoguardian/internal/checks/builtin"
	"repoguardian/internal/cli"
)

// These variables are populated at build time via -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.SetBuildInfo(version, commit, date)
	cli.Execute()
}
