package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quilldb/dblite/pkg/dblite"
)

var (
	selectWhere []string
	selectLimit int64
)

var selectCmd = &cobra.Command{
	Use:   "select <table>",
	Short: "Run a SELECT against a table and print the matching rows",
	Args:  cobra.ExactArgs(1),
	RunE:  runSelect,
}

func init() {
	selectCmd.Flags().StringArrayVar(&selectWhere, "where", nil, "equality filter col=value, repeatable")
	selectCmd.Flags().Int64Var(&selectLimit, "limit", -1, "maximum rows to return")
	rootCmd.AddCommand(selectCmd)
}

func runSelect(cmd *cobra.Command, args []string) error {
	table := args[0]

	opts, err := whereOptions(selectWhere)
	if err != nil {
		return err
	}
	if selectLimit >= 0 {
		opts = append(opts, dblite.WithLimit(selectLimit))
	}

	ctx := cmd.Context()
	db, err := openProfile(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	var rows []dblite.Row
	if err := db.FetchAll(ctx, table, &rows, opts...); err != nil {
		return fmt.Errorf("select %s: %w", table, err)
	}
	return printRows(rows)
}

func whereOptions(pairs []string) ([]dblite.QueryOption, error) {
	opts := make([]dblite.QueryOption, 0, len(pairs))
	for _, pair := range pairs {
		col, val, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --where %q, expected col=value", pair)
		}
		opts = append(opts, dblite.WithWhere(dblite.Eq(col, val)))
	}
	return opts, nil
}

func printRows(rows []dblite.Row) error {
	if flagJSON {
		maps := make([]map[string]any, len(rows))
		for i, r := range rows {
			maps[i] = r.Map()
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(maps)
	}
	for _, r := range rows {
		fmt.Println(r.Map())
	}
	return nil
}
