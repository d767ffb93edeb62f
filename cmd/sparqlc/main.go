// Command sparqlc tokenizes, parses and catalogs SPARQL 1.1 queries.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/sparqlsyntax/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			// flag and usage errors; commands report their own failures
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(cli.ExitCommandError)
		}
		os.Exit(exitErr.Code)
	}
}
