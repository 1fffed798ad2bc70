package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var insertCmd = &cobra.Command{
	Use:   "insert <table> <json-object>",
	Short: "Insert one row from a JSON object literal",
	Args:  cobra.ExactArgs(2),
	RunE:  runInsert,
}

func init() {
	rootCmd.AddCommand(insertCmd)
}

func runInsert(cmd *cobra.Command, args []string) error {
	table := args[0]

	var values map[string]any
	if err := json.Unmarshal([]byte(args[1]), &values); err != nil {
		return fmt.Errorf("parsing values: %w", err)
	}

	ctx := cmd.Context()
	db, err := openProfile(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	pk, err := db.Insert(ctx, table, values)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(map[string]any{"id": pk})
	}
	fmt.Println(pk)
	return nil
}
