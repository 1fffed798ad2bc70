// Command dblite is an inspector CLI for the query facade: it opens a
// named connection profile and runs one-shot select/insert/exec/script/
// transaction operations against it, additive to the core library (§6:
// "No CLI, no files owned" by the core contract itself).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dblite:", err)
		os.Exit(exitUserError)
	}
}
