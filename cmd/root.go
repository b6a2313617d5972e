// Package cmd wires the CLI surface: each command constructs the query
// pipeline from configuration and delegates to the agent.
package cmd

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"
)

// Execute runs the CLI with the process arguments
func Execute() error {
	root := &cli.Command{
		Name:  "medsql",
		Usage: "Query a medical database using natural language",
		Description: `medsql translates natural language questions into SQL against a
configured hospital database. Generated statements pass a safety check before
execution, and table schemas are indexed for semantic retrieval so prompts
stay focused on the relevant tables.`,
		Commands: []*cli.Command{
			AskCommand(),
			RefreshCommand(),
			TablesCommand(),
			SampleCommand(),
			ClearCommand(),
			ConfigCommand(),
		},
	}

	return root.Run(context.Background(), os.Args)
}
