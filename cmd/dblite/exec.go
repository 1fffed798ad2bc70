package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec <sql> [args...]",
	Short: "Run one SQL statement with positional parameters",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	sqlText := args[0]

	var params any
	if len(args) > 1 {
		positional := make([]any, len(args)-1)
		for i, a := range args[1:] {
			positional[i] = a
		}
		params = positional
	}

	ctx := cmd.Context()
	db, err := openProfile(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := db.Execute(ctx, sqlText, params)
	if err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	fmt.Printf("rows affected: %d\n", affected)
	return nil
}
