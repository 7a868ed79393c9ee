package main

import (
	"github.com/spf13/cobra"

	"tabclean/internal/app"
)

func newServeCmd(env *cliEnv) *cobra.Command {
	var (
		plan   string
		source string
		port   int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only dataset dashboard",
		Long:  `Runs the plan once (or loads the source as is) and serves the result over the dashboard API until interrupted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if plan != "" {
				env.cfg.Dashboard.Plan = plan
			}
			if source != "" {
				env.cfg.Dashboard.Source = source
			}
			if port != 0 {
				env.cfg.Server.Port = port
			}

			application, err := app.New(cmd.Context(), env.cfg, env.paths, env.logger)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&plan, "plan", "p", "", "plan whose output is served")
	cmd.Flags().StringVarP(&source, "source", "s", "", "cleaned file served as is")
	cmd.Flags().IntVar(&port, "port", 0, "listen port")
	return cmd
}
