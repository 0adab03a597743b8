package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/terrastat/lisa-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored analysis runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore()
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		variable, _ := cmd.Flags().GetString("variable")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{Variable: variable, Limit: limit})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tVARIABLE\tN\tISLANDS\tALPHA\tGLOBAL I\tP\tCREATED AT")
		for _, r := range runs {
			globalI, globalP := "-", "-"
			if r.Global != nil {
				globalI = fmt.Sprintf("%.4f", r.Global.I)
				globalP = fmt.Sprintf("%.4g", r.Global.P)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.3g\t%s\t%s\t%s\n",
				r.ID, r.Variable, r.N, r.Islands, r.Alpha,
				globalI, globalP, r.CreatedAt.Format("2006-01-02 15:04"))
		}
		return eris.Wrap(w.Flush(), "runs: flush table")
	},
}

func init() {
	runsCmd.Flags().String("variable", "", "filter by variable name")
	runsCmd.Flags().Int("limit", 20, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}
