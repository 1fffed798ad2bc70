package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open the selected profile and confirm it accepts a connection",
	Args:  cobra.NoArgs,
	RunE:  runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openProfile(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Printf("profile %q is reachable\n", flagProfile)
	return nil
}
