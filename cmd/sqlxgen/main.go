// Command sqlxgen is the CLI entry point for the repository generator.
package main

import (
	"os"

	"github.com/sqlxgen/sqlxgen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
