package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const cliVersion = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the dblite CLI version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("dblite v" + cliVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
