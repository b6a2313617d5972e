package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/Alice344/MedSQLAgent/internal/agent"
)

func TablesCommand() *cli.Command {
	return &cli.Command{
		Name:        "tables",
		Usage:       "List the tables in the configured database",
		Description: `Show every user table visible to the agent.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runTables(ctx)
		},
	}
}

func runTables(ctx context.Context) error {
	a, _, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return RunTablesWithAgent(ctx, a)
}

// RunTablesWithAgent lists tables through an already constructed agent
func RunTablesWithAgent(ctx context.Context, a *agent.Agent) error {
	tables, err := a.ListTables(ctx)
	if err != nil {
		return err
	}

	if len(tables) == 0 {
		fmt.Println("No tables found.")
		return nil
	}

	sort.Strings(tables)

	schemas := a.Schemas()

	fmt.Printf("Tables (%d):\n", len(tables))

	for _, table := range tables {
		if tableSchema, ok := schemas[table]; ok {
			fmt.Printf("  %s (%d columns)\n", table, len(tableSchema.Columns))

			for _, col := range tableSchema.Columns {
				nullable := "not null"
				if col.Nullable {
					nullable = "nullable"
				}

				fmt.Printf("    %s %s (%s)\n", col.Name, col.Type, nullable)
			}

			continue
		}

		fmt.Printf("  %s\n", table)
	}

	return nil
}
