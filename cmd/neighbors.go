package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/terrastat/lisa-cli/internal/contiguity"
	"github.com/terrastat/lisa-cli/internal/shapeload"
)

var neighborsCmd = &cobra.Command{
	Use:   "neighbors",
	Short: "Build and inspect the contiguity graph",
	Long:  "Builds the queen/rook contiguity graph for a shapefile and prints per-unit neighbor counts and island units.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		shpPath, _ := cmd.Flags().GetString("shapefile")
		modeFlag, _ := cmd.Flags().GetString("mode")
		tolFlag, _ := cmd.Flags().GetFloat64("tolerance")

		if shpPath == "" {
			shpPath = cfg.Input.Shapefile
		}
		if shpPath == "" {
			return eris.New("neighbors: no shapefile given (flag --shapefile or input.shapefile)")
		}
		if !cmd.Flags().Changed("mode") {
			modeFlag = cfg.Contiguity.Mode
		}
		if !cmd.Flags().Changed("tolerance") {
			tolFlag = cfg.Contiguity.SnapTolerance
		}

		units, err := shapeload.Load(shpPath, shapeload.Options{
			IDField:   cfg.Input.IDField,
			NameField: cfg.Input.NameField,
		})
		if err != nil {
			return eris.Wrap(err, "neighbors")
		}

		graph, err := contiguity.Build(ctx, units, contiguity.Options{
			Mode:          contiguity.Mode(modeFlag),
			SnapTolerance: tolFlag,
		})
		if err != nil {
			return eris.Wrap(err, "neighbors")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "UNIT\tNEIGHBORS\tIDS")
		for _, id := range graph.IDs {
			ns := graph.Neighbors[id]
			fmt.Fprintf(w, "%s\t%d\t%s\n", id, len(ns), strings.Join(ns, ","))
		}
		if err := w.Flush(); err != nil {
			return eris.Wrap(err, "neighbors: flush table")
		}

		fmt.Printf("\n%d units, %d edges, %d island(s)\n",
			len(graph.IDs), graph.EdgeCount(), len(graph.Islands()))
		return nil
	},
}

func init() {
	neighborsCmd.Flags().String("shapefile", "", "path to the polygon shapefile (default from config)")
	neighborsCmd.Flags().String("mode", "queen", "contiguity mode: queen or rook")
	neighborsCmd.Flags().Float64("tolerance", contiguity.DefaultSnapTolerance, "snap tolerance in coordinate units")
	rootCmd.AddCommand(neighborsCmd)
}
