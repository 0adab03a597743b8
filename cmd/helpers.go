package main

import (
	"github.com/rotisserie/eris"

	"github.com/terrastat/lisa-cli/internal/config"
	"github.com/terrastat/lisa-cli/internal/contiguity"
	"github.com/terrastat/lisa-cli/internal/moran"
	"github.com/terrastat/lisa-cli/internal/pipeline"
	"github.com/terrastat/lisa-cli/internal/store"
	"github.com/terrastat/lisa-cli/internal/weights"
)

// initStore opens the run history database from config.
func initStore() (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open run store")
	}
	return st, nil
}

// pipelineConfig assembles the analysis configuration from the loaded config
// file plus any command-level overrides already applied to cfg copies.
func pipelineConfig(c *config.Config) (pipeline.Config, error) {
	mode := contiguity.Mode(c.Contiguity.Mode)
	if mode != contiguity.ModeQueen && mode != contiguity.ModeRook {
		return pipeline.Config{}, eris.Errorf("invalid contiguity mode %q", c.Contiguity.Mode)
	}
	if c.Contiguity.SnapTolerance < 0 {
		return pipeline.Config{}, eris.Errorf("negative snap tolerance %g", c.Contiguity.SnapTolerance)
	}
	if c.Significance.Alpha <= 0 || c.Significance.Alpha >= 1 {
		return pipeline.Config{}, eris.Errorf("alpha %g outside (0,1)", c.Significance.Alpha)
	}

	return pipeline.Config{
		Mode:          mode,
		SnapTolerance: c.Contiguity.SnapTolerance,
		Style:         weights.Style(c.Weights.Style),
		ZeroPolicy:    weights.ZeroPolicy(c.Weights.ZeroPolicy),
		Alpha:         c.Significance.Alpha,
		Significance: moran.Config{
			Method:       moran.Method(c.Significance.Method),
			Assumption:   moran.Assumption(c.Significance.Assumption),
			Permutations: c.Significance.Permutations,
			Seed:         c.Significance.Seed,
		},
	}, nil
}
