// Package main provides the sqlscribe CLI.
package main

import (
	"os"

	"github.com/sqlscribe-labs/sqlscribe/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
