package main

import (
	"github.com/spf13/cobra"
)

// rootCmd is the top-level exo command; schemaCmd and serveCmd attach
// themselves to it from their own init(), matching the one-file-per-
// command layout ariga/atlas's own CLI uses.
var rootCmd = &cobra.Command{
	Use:           "exo",
	Short:         "exocore model compiler, migration engine and GraphQL server",
	Long:          "exo compiles an exocore model, diffs or migrates its schema against a Postgres database, and serves the derived GraphQL API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}
