package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tabclean/internal/files"
	"tabclean/internal/services"
	"tabclean/internal/table"
)

func newProfileCmd(env *cliEnv) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "profile <file|dir>",
		Short: "Show the schema, missing values and numeric summary of a file",
		Long:  `Profiles one CSV or XLSX file, or every such file in a directory.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := profileSources(env, args[0])
			if err != nil {
				return err
			}

			ps := env.pipelineService()
			out := cmd.OutOrStdout()
			for i, source := range sources {
				res, err := ps.Profile(cmd.Context(), source)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					if err := enc.Encode(res); err != nil {
						return err
					}
					continue
				}
				if i > 0 {
					fmt.Fprintln(out)
				}
				if err := printProfile(out, res); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the profile as JSON")
	return cmd
}

func profileSources(env *cliEnv, arg string) ([]string, error) {
	info, err := os.Stat(env.paths.Resolve(arg))
	if err != nil || !info.IsDir() {
		return []string{arg}, nil
	}
	found, err := files.NewDiscovery(env.paths.BaseDir).FindSources(arg)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("no CSV or XLSX files in %s", arg)
	}
	return files.Paths(found), nil
}

func printProfile(w io.Writer, res *services.ProfileResult) error {
	if l := res.Load; l != nil {
		fmt.Fprintf(w, "%s: %s, %d rows, %d columns, %d null cells\n\n",
			l.Source, l.Format, l.Rows, l.Columns, l.NullCells)
	}

	missing := make(map[string]int, len(res.Missing))
	for _, m := range res.Missing {
		missing[m.Name] = m.Count
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tNULLABLE\tMISSING")
	for _, s := range res.Schema {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%d\n", s.Name, s.Type, s.Nullable, missing[s.Name])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(res.Describe) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "column\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax\t")
		for _, d := range res.Describe {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", d.Column, d.Count,
				stat(d.Mean), stat(d.Std), stat(d.Min), stat(d.Q1), stat(d.Median), stat(d.Q3), stat(d.Max))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if res.Head != nil && res.Head.NumRows() > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(res.Head.ColumnNames(), "\t"))
		for i := 0; i < res.Head.NumRows(); i++ {
			row := res.Head.Row(i)
			cells := make([]string, len(row))
			for j, v := range row {
				cells[j] = table.Format(v)
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
		return tw.Flush()
	}
	return nil
}

func stat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}
