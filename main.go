// The main package for the archiver executable.
package main

import (
	"os"

	"github.com/kita-kara-kita-kocha/nanahapi-history/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
