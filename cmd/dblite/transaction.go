package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quilldb/dblite/pkg/dblite"
)

var (
	txExclusive bool
	txRollback  bool
)

var transactionCmd = &cobra.Command{
	Use:   "transaction <script-file>",
	Short: "Run every statement in a script inside one transaction scope",
	Args:  cobra.ExactArgs(1),
	RunE:  runTransaction,
}

func init() {
	transactionCmd.Flags().BoolVar(&txExclusive, "exclusive", true, "serialize against other exclusive scopes on the same database")
	transactionCmd.Flags().BoolVar(&txRollback, "rollback", false, "roll back instead of committing on success, for a dry run")
	rootCmd.AddCommand(transactionCmd)
}

func runTransaction(cmd *cobra.Command, args []string) error {
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

	err = dblite.WithTransaction(ctx, func(tx dblite.Transaction) error {
		if execErr := tx.ExecuteScript(ctx, string(data)); execErr != nil {
			return execErr
		}
		if txRollback {
			return dblite.ErrRollback
		}
		return nil
	}, dblite.Exclusive(txExclusive))
	if err != nil {
		return fmt.Errorf("transaction: %w", err)
	}

	if txRollback {
		fmt.Println("transaction rolled back")
	} else {
		fmt.Println("transaction committed")
	}
	return nil
}
