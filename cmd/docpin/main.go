// Package main provides the entry point for the docpin CLI.
package main

import (
	"os"

	"github.com/vqtran/docpin/cmd/docpin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
