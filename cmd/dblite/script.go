package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var scriptCmd = &cobra.Command{
	Use:   "script <file>",
	Short: "Run every statement in a SQL file with no parameter binding",
	Args:  cobra.ExactArgs(1),
	RunE:  runScript,
}

func init() {
	rootCmd.AddCommand(scriptCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}

	ctx := cmd.Context()
	db, err := openProfile(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.ExecuteScript(ctx, string(data)); err != nil {
		return fmt.Errorf("running script: %w", err)
	}
	fmt.Println("script applied")
	return nil
}
