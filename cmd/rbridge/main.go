// Package main provides the rbridge CLI for calling R functions.
package main

import (
	"os"

	"github.com/leapstack-labs/rbridge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
