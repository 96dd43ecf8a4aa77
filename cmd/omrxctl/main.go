// Package main provides the entry point for the omrxctl CLI.
package main

import (
	"os"

	"github.com/foogod/go-omrx/cmd/omrxctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
