package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"tabclean/internal/exporter"
	"tabclean/internal/files"
	"tabclean/internal/services"
)

func newBatchCmd(env *cliEnv) *cobra.Command {
	var (
		overrides []string
		dir       string
		pattern   string
		runLog    string
	)

	cmd := &cobra.Command{
		Use:   "batch [plan...]",
		Short: "Run several plans concurrently",
		Long: `Runs every plan, at most pipeline.batch_concurrency at a time. Plans are
given as arguments or discovered in --dir. A failing plan does not stop the
others; the command fails if any plan failed.`,
		Example: `  tabclean batch titanic.yaml retail.yaml
  tabclean batch --dir plans
  tabclean batch --dir plans --pattern 'retail_*.yaml'
  tabclean batch --dir plans --run-log runs.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			plans := args
			if dir != "" {
				found, err := discoverPlans(env, dir, pattern)
				if err != nil {
					return err
				}
				plans = append(plans, found...)
			}
			if len(plans) == 0 {
				return errors.New("no plans given")
			}

			results, err := env.pipelineService().Batch(cmd.Context(), plans, overrides)
			printBatch(cmd.OutOrStdout(), results)
			if runLog != "" {
				if logErr := exporter.NewCSVWriter(env.paths).AppendRunLog(runLog, runLogRecords(results)); logErr != nil {
					return errors.Join(err, fmt.Errorf("failed to write run log: %w", logErr))
				}
			}
			return err
		},
	}

	cmd.Flags().StringArrayVar(&overrides, "set", nil, "override a stage parameter in every plan, stage.param=value (repeatable)")
	cmd.Flags().StringVar(&dir, "dir", "", "run every plan in this directory")
	cmd.Flags().StringVar(&pattern, "pattern", "", "glob selecting plans in --dir")
	cmd.Flags().StringVar(&runLog, "run-log", "", "append one CSV record per plan to this file")
	return cmd
}

func discoverPlans(env *cliEnv, dir, pattern string) ([]string, error) {
	discovery := files.NewDiscovery(env.paths.BaseDir)
	var (
		found []files.FileInfo
		err   error
	)
	if pattern != "" {
		found, err = discovery.FindFilesByPattern(dir, pattern)
	} else {
		found, err = discovery.FindPlans(dir)
	}
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("no plans found in %s", dir)
	}
	return files.Paths(found), nil
}

func printBatch(w io.Writer, results []services.BatchResult) {
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "FAIL %s: %v\n", r.PlanPath, r.Err)
			continue
		}
		sum := r.Result.Summary
		fmt.Fprintf(w, "ok   %s (%s): %d -> %d rows, wrote %s\n",
			r.PlanPath, r.Result.Plan, sum.RowsIn, sum.RowsOut, r.Result.Written.CSV)
	}
}

func runLogRecords(results []services.BatchResult) [][]string {
	records := make([][]string, 0, len(results))
	for _, r := range results {
		record := []string{"", r.PlanPath, "", "ok", "", "", ""}
		if res := r.Result; res != nil {
			record[0], record[2] = res.RunID, res.Source
			if res.Summary != nil {
				record[4] = strconv.Itoa(res.Summary.RowsIn)
				record[5] = strconv.Itoa(res.Summary.RowsOut)
			}
		}
		if r.Err != nil {
			record[3], record[6] = "failed", r.Err.Error()
		}
		records = append(records, record)
	}
	return records
}
