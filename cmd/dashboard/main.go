// Command dashboard serves the read-only dataset API over one cleaned
// dataset, configured through tabclean.yaml or TABCLEAN_* variables.
package main

import (
	"context"
	"log/slog"
	"os"

	"tabclean/internal/app"
)

func main() {
	ctx := context.Background()

	application, err := app.NewApplication(ctx)
	if err != nil {
		slog.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
