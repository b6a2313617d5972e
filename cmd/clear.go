package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
)

func ClearCommand() *cli.Command {
	return &cli.Command{
		Name:        "clear",
		Usage:       "Clear the persisted schema index",
		Description: `Remove all indexed schemas. The next query or refresh rebuilds the index from the database. This action requires confirmation.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Skip confirmation prompt",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runClear(ctx, cmd.Bool("force"))
		},
	}
}

func runClear(ctx context.Context, force bool) error {
	a, _, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !force {
		fmt.Printf("This will clear the schema index. Type 'yes' to confirm: ")

		reader := bufio.NewReader(os.Stdin)

		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if strings.TrimSpace(strings.ToLower(response)) != "yes" {
			fmt.Println("Operation cancelled.")
			return nil
		}
	}

	if err := a.ClearStore(); err != nil {
		return err
	}

	fmt.Println("Schema index cleared.")

	return nil
}
