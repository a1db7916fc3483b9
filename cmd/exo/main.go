// Command exo is the migration and server CLI spec §6 describes
// ("External interfaces: Migration CLI" and "GraphQL endpoint").
package main

import (
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "exo:", err)
		return exitCodeFor(err)
	}
	return 0
}
