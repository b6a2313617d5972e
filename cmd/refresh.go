package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func RefreshCommand() *cli.Command {
	return &cli.Command{
		Name:        "refresh",
		Usage:       "Re-introspect the database and rebuild the schema index",
		Description: `Reload every table schema from the database and rebuild the semantic index. Run this after DDL changes so queries see the current structure.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runRefresh(ctx)
		},
	}
}

func runRefresh(ctx context.Context) error {
	a, _, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.RefreshSchemas(ctx); err != nil {
		return err
	}

	tables, err := a.ListTables(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Schema index refreshed: %d table(s) indexed.\n", len(tables))

	return nil
}
