// Command tabclean loads CSV and XLSX files, cleans them with a YAML plan
// and writes the cleaned table with a run report.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
