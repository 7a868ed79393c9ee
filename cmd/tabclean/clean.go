package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"tabclean/internal/services"
)

func newCleanCmd(env *cliEnv) *cobra.Command {
	var req services.CleanRequest

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Run a cleaning plan and export the result",
		Example: `  tabclean clean --plan titanic.yaml
  tabclean clean --plan titanic.yaml --source titanic_2.csv --set fill.strategies.Age.method=mean`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := env.pipelineService().Clean(cmd.Context(), req)
			if res != nil {
				printCleanResult(cmd.OutOrStdout(), res)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&req.PlanPath, "plan", "p", "", "pipeline plan (YAML)")
	cmd.Flags().StringVarP(&req.Source, "source", "s", "", "replace the plan's source file")
	cmd.Flags().StringArrayVar(&req.Overrides, "set", nil, "override a stage parameter, stage.param=value (repeatable)")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}

func printCleanResult(w io.Writer, res *services.CleanResult) {
	sum := res.Summary
	if sum == nil {
		return
	}
	if sum.FailedStage != "" {
		fmt.Fprintf(w, "run %s (%s): failed at stage %q: %s\n", res.RunID, res.Plan, sum.FailedStage, sum.Error)
	} else {
		fmt.Fprintf(w, "run %s (%s): %d -> %d rows, %d -> %d columns in %s\n",
			res.RunID, res.Plan, sum.RowsIn, sum.RowsOut, sum.ColumnsIn, sum.ColumnsOut, sum.Duration.Round(time.Microsecond))
	}
	for _, f := range res.Written.Files() {
		fmt.Fprintf(w, "  wrote %s\n", f)
	}
}
