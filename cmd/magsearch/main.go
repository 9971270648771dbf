// Package main provides the entry point for the magsearch CLI.
package main

import (
	"os"

	"github.com/hexline/magsearch/cmd/magsearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
