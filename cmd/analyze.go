package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terrastat/lisa-cli/internal/export"
	"github.com/terrastat/lisa-cli/internal/model"
	"github.com/terrastat/lisa-cli/internal/pipeline"
	"github.com/terrastat/lisa-cli/internal/shapeload"
	"github.com/terrastat/lisa-cli/internal/store"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full LISA analysis for every configured variable",
	Long: `Loads polygon units from a shapefile, then for each variable in the
variables file: subsets units with defined values, builds the contiguity
graph, derives row-standardized weights, computes local and global Moran's I,
classifies LISA clusters, and writes CSV/XLSX tables, a Moran scatter plot,
and a textual report. Each run is recorded in the local run history.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shpPath, _ := cmd.Flags().GetString("shapefile")
		varsPath, _ := cmd.Flags().GetString("vars")
		outDir, _ := cmd.Flags().GetString("out")
		modeFlag, _ := cmd.Flags().GetString("mode")
		tolFlag, _ := cmd.Flags().GetFloat64("tolerance")
		alphaFlag, _ := cmd.Flags().GetFloat64("alpha")
		publish, _ := cmd.Flags().GetBool("publish")

		if shpPath == "" {
			shpPath = cfg.Input.Shapefile
		}
		if shpPath == "" {
			return eris.New("analyze: no shapefile given (flag --shapefile or input.shapefile)")
		}
		if varsPath == "" {
			varsPath = cfg.Input.Variables
		}
		if varsPath == "" {
			return eris.New("analyze: no variables file given (flag --vars or input.variables)")
		}

		// Flag overrides write into the loaded config before assembly.
		if cmd.Flags().Changed("mode") {
			cfg.Contiguity.Mode = modeFlag
		}
		if cmd.Flags().Changed("tolerance") {
			cfg.Contiguity.SnapTolerance = tolFlag
		}
		if cmd.Flags().Changed("alpha") {
			cfg.Significance.Alpha = alphaFlag
		}

		pcfg, err := pipelineConfig(cfg)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		vars, err := pipeline.LoadVariables(varsPath)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		fields := make([]string, len(vars))
		for i, v := range vars {
			fields[i] = v.Field
		}
		units, err := shapeload.Load(shpPath, shapeload.Options{
			IDField:   cfg.Input.IDField,
			NameField: cfg.Input.NameField,
			Fields:    fields,
		})
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		if outDir != "" {
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return eris.Wrapf(err, "analyze: create output dir %s", outDir)
			}
		}

		st, err := initStore()
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		var publisher *store.Publisher
		if publish {
			if cfg.Publish.DatabaseURL == "" {
				return eris.New("analyze: --publish set but publish.database_url is empty")
			}
			pool, err := pgxpool.New(ctx, cfg.Publish.DatabaseURL)
			if err != nil {
				return eris.Wrap(err, "analyze: connect publish database")
			}
			defer pool.Close()
			publisher = store.NewPublisher(pool)
			if err := publisher.EnsureSchema(ctx); err != nil {
				return err
			}
		}

		cfgJSON, err := json.Marshal(pcfg)
		if err != nil {
			return eris.Wrap(err, "analyze: marshal config snapshot")
		}

		for _, v := range vars {
			res, err := pipeline.Run(ctx, units, v, pcfg)
			if err != nil {
				return eris.Wrapf(err, "analyze: variable %q", v.Name)
			}

			run := &model.AnalysisRun{
				Variable: res.Variable,
				Alpha:    res.Alpha,
				Config:   string(cfgJSON),
				Global:   res.Global,
				Units:    res.Units,
				N:        res.N,
				Islands:  len(res.Islands),
			}
			if err := st.CreateRun(ctx, run); err != nil {
				return eris.Wrapf(err, "analyze: persist run for %q", v.Name)
			}

			if publisher != nil {
				if _, err := publisher.Publish(ctx, run); err != nil {
					return eris.Wrapf(err, "analyze: publish run for %q", v.Name)
				}
			}

			if outDir != "" {
				if err := writeArtifacts(outDir, res); err != nil {
					return err
				}
			}

			if err := export.Report(os.Stdout, res); err != nil {
				return eris.Wrapf(err, "analyze: report for %q", v.Name)
			}
			fmt.Println()

			zap.L().Info("analyze: variable complete",
				zap.String("variable", v.Name),
				zap.String("run_id", run.ID),
			)
		}

		return nil
	},
}

// writeArtifacts writes the per-variable CSV/XLSX tables, scatter pairs, and
// scatter plot into the output directory.
func writeArtifacts(outDir string, res *pipeline.Result) error {
	base := filepath.Join(outDir, res.Variable)
	if err := export.WriteUnitsCSV(base+"_units.csv", res.Units); err != nil {
		return eris.Wrapf(err, "analyze: units csv for %q", res.Variable)
	}
	if err := export.WriteUnitsXLSX(base+"_units.xlsx", res.Variable, res.Units); err != nil {
		return eris.Wrapf(err, "analyze: units xlsx for %q", res.Variable)
	}
	if err := export.WriteScatterCSV(base+"_scatter.csv", res.Units); err != nil {
		return eris.Wrapf(err, "analyze: scatter csv for %q", res.Variable)
	}
	if err := export.WriteScatterPNG(base+"_scatter.png", res.Variable, res.Units); err != nil {
		return eris.Wrapf(err, "analyze: scatter png for %q", res.Variable)
	}
	return nil
}

func init() {
	analyzeCmd.Flags().String("shapefile", "", "path to the polygon shapefile (default from config)")
	analyzeCmd.Flags().String("vars", "", "path to the variables YAML file (default from config)")
	analyzeCmd.Flags().String("out", "", "output directory for CSV/XLSX/scatter artifacts")
	analyzeCmd.Flags().String("mode", "", "contiguity mode: queen or rook (default from config)")
	analyzeCmd.Flags().Float64("tolerance", 0, "snap tolerance in coordinate units (default from config)")
	analyzeCmd.Flags().Float64("alpha", 0, "significance threshold (default from config)")
	analyzeCmd.Flags().Bool("publish", false, "publish per-unit results to the configured PostGIS database")
	rootCmd.AddCommand(analyzeCmd)
}
