// Package main is the entry point for the arcctl CLI.
//
// arcctl tears down GitHub Actions runner-controller installations from
// Kubernetes clusters. It escalates from a clean Helm uninstall through
// finalizer stripping and forced deletion to namespace destruction, and
// always reports what remains.
//
// Commands: teardown, verify.
//
// For detailed usage information, run:
//
//	arcctl --help
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/tsviz/arc-config-mcp-sub003/cmd/arcctl/commands"
	"github.com/tsviz/arc-config-mcp-sub003/cmd/arcctl/handlers"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		var exit *handlers.ExitError
		if errors.As(err, &exit) {
			if exit.Message != "" {
				fmt.Fprintln(os.Stderr, exit.Message)
			}
			os.Exit(exit.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
