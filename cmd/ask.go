package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/briandowns/spinner"
	"github.com/urfave/cli/v3"

	"github.com/Alice344/MedSQLAgent/internal/agent"
	"github.com/Alice344/MedSQLAgent/internal/exporter"
	"github.com/Alice344/MedSQLAgent/internal/prompt"
)

const defaultDisplayRows = 20

func AskCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask a natural language question against the database",
		ArgsUsage: " <question>",
		Description: `Translate a natural language question into SQL, validate it, execute it,
and display the results.

Examples:
  medsql ask "How many patients were admitted this year?"
  medsql ask --mode all "List the five most common diagnoses"
  medsql ask --export "Show all admissions from January"`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Schema selection mode: relevant or all",
				Value: string(prompt.ModeRelevant),
			},
			&cli.BoolFlag{
				Name:  "export",
				Usage: "Export the result set to a CSV file",
			},
			&cli.IntFlag{
				Name:  "max-rows",
				Usage: "Maximum rows to display (full result is still exported)",
				Value: defaultDisplayRows,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 1 {
				return fmt.Errorf("expected exactly 1 argument, got %d", args.Len())
			}

			mode, err := parseMode(cmd.String("mode"))
			if err != nil {
				return err
			}

			return runAsk(ctx, args.First(), mode, cmd.Bool("export"), int(cmd.Int("max-rows")))
		},
	}
}

func parseMode(value string) (prompt.Mode, error) {
	switch strings.ToLower(value) {
	case string(prompt.ModeRelevant):
		return prompt.ModeRelevant, nil
	case string(prompt.ModeAll):
		return prompt.ModeAll, nil
	default:
		return "", fmt.Errorf("invalid mode %q: must be relevant or all", value)
	}
}

func runAsk(ctx context.Context, question string, mode prompt.Mode, export bool, maxRows int) error {
	a, cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithWriter(os.Stderr), spinner.WithSuffix(" Generating SQL..."))
	spin.Start()

	outcome, err := a.ExecuteQuery(ctx, question, mode)

	spin.Stop()

	if err != nil {
		return err
	}

	var exportDir string
	if export {
		exportDir = cfg.Export.Directory
	}

	return RunAskWithOutcome(outcome, exportDir, maxRows)
}

// RunAskWithOutcome renders a query outcome and optionally exports it.
// Split from runAsk so tests can exercise the display path directly.
func RunAskWithOutcome(outcome *agent.QueryOutcome, exportDir string, maxRows int) error {
	fmt.Printf("SQL: %s\n", outcome.SQL)

	if outcome.Explanation != "" {
		fmt.Printf("Explanation: %s\n", outcome.Explanation)
	}

	fmt.Printf("Confidence: %.2f\n", outcome.Confidence)

	if !outcome.Success {
		fmt.Printf("\nQuery failed: %s\n", outcome.Error)
		return nil
	}

	fmt.Println()
	printResultTable(outcome, maxRows)

	if exportDir != "" && outcome.Result != nil {
		path, err := exporter.NewCSVExporter(exportDir).Export(outcome.Result)
		if err != nil {
			return err
		}

		fmt.Printf("\nExported to %s\n", path)
	}

	return nil
}

func printResultTable(outcome *agent.QueryOutcome, maxRows int) {
	result := outcome.Result
	if result == nil || len(result.Columns) == 0 {
		fmt.Println("No results.")
		return
	}

	if maxRows <= 0 {
		maxRows = defaultDisplayRows
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(result.Columns, "\t"))

	shown := 0

	for _, row := range result.Rows {
		if shown == maxRows {
			break
		}

		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}

		fmt.Fprintln(w, strings.Join(cells, "\t"))
		shown++
	}

	w.Flush()

	if result.RowCount > shown {
		fmt.Printf("... and %d more rows\n", result.RowCount-shown)
	}

	fmt.Printf("\n%d row(s)\n", result.RowCount)
}

func formatCell(v interface{}) string {
	if v == nil {
		return "NULL"
	}

	if t, ok := v.(time.Time); ok {
		return t.Format("2006-01-02 15:04:05")
	}

	return fmt.Sprintf("%v", v)
}
