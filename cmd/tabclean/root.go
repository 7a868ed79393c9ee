package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"tabclean/internal/config"
	"tabclean/internal/infrastructure"
	"tabclean/internal/services"
)

// cliEnv is what every subcommand runs with, resolved once before it runs.
type cliEnv struct {
	cfg    *config.Config
	paths  *config.Paths
	logger *slog.Logger
}

type rootFlags struct {
	logLevel  string
	outputDir string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	env := &cliEnv{}

	root := &cobra.Command{
		Use:           "tabclean",
		Short:         "Clean tabular datasets with declarative plans",
		Long:          `tabclean loads a CSV or XLSX file, runs the cleaning stages of a YAML plan and exports the cleaned table together with a report of every change.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.init(flags)
		},
	}

	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flags.outputDir, "output-dir", "", "directory for cleaned files and reports")

	root.AddCommand(
		newCleanCmd(env),
		newProfileCmd(env),
		newBatchCmd(env),
		newServeCmd(env),
		newVersionCmd(),
	)
	return root
}

func (e *cliEnv) init(flags rootFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.outputDir != "" {
		cfg.Paths.OutputDir = flags.outputDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return fmt.Errorf("failed to get paths: %w", err)
	}

	e.cfg, e.paths, e.logger = cfg, paths, logger
	return nil
}

// pipelineService runs without telemetry export; one-shot commands have
// nothing to scrape them.
func (e *cliEnv) pipelineService() *services.PipelineService {
	return services.NewPipelineService(e.cfg, e.paths, nil, nil, e.logger)
}
