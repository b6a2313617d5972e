package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/Alice344/MedSQLAgent/internal/agent"
)

func SampleCommand() *cli.Command {
	return &cli.Command{
		Name:      "sample",
		Usage:     "Show sample rows from a table",
		ArgsUsage: " <table>",
		Description: `Fetch a handful of rows from the given table to inspect its contents.

Examples:
  medsql sample patients
  medsql sample --limit 10 admissions`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of rows to fetch (defaults to the configured sample limit)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 1 {
				return fmt.Errorf("expected exactly 1 argument, got %d", args.Len())
			}

			return runSample(ctx, args.First(), int(cmd.Int("limit")))
		},
	}
}

func runSample(ctx context.Context, tableName string, limit int) error {
	a, cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if limit <= 0 {
		limit = cfg.Database.SampleLimit
	}

	return RunSampleWithAgent(ctx, a, tableName, limit)
}

// RunSampleWithAgent fetches and prints sample rows through an already
// constructed agent
func RunSampleWithAgent(ctx context.Context, a *agent.Agent, tableName string, limit int) error {
	result, err := a.GetSampleData(ctx, tableName, limit)
	if err != nil {
		return err
	}

	if result.RowCount == 0 {
		fmt.Printf("Table %s is empty.\n", tableName)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(result.Columns, "\t"))

	for _, row := range result.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}

		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}

	w.Flush()

	fmt.Printf("\n%d row(s)\n", result.RowCount)

	return nil
}
