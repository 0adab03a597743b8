// Package pipeline runs the spatial autocorrelation analysis for one
// variable: attribute subsetting, contiguity graph, weights, local and global
// Moran statistics, and LISA classification. The same pipeline is invoked
// once per configured variable; stages share no mutable state.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/terrastat/lisa-cli/internal/contiguity"
	"github.com/terrastat/lisa-cli/internal/lisa"
	"github.com/terrastat/lisa-cli/internal/model"
	"github.com/terrastat/lisa-cli/internal/moran"
	"github.com/terrastat/lisa-cli/internal/weights"
)

// Config holds the analysis settings shared by all variables of a run.
type Config struct {
	Mode          contiguity.Mode    `json:"mode"`
	SnapTolerance float64            `json:"snap_tolerance"`
	Style         weights.Style      `json:"style"`
	ZeroPolicy    weights.ZeroPolicy `json:"zero_policy"`
	Alpha         float64            `json:"alpha"`
	Significance  moran.Config       `json:"significance"`
}

// Result is the full analysis output for one variable.
type Result struct {
	Variable string
	Alpha    float64
	N        int
	Islands  []string
	Global   *model.GlobalStatistic
	Units    []model.UnitResult
}

// Run executes the pipeline for one variable. Units with an undefined
// attribute are excluded from this variable's subset, so the contiguity graph
// is rebuilt per variable.
func Run(ctx context.Context, units []model.SpatialUnit, v Variable, cfg Config) (*Result, error) {
	log := zap.L().With(zap.String("variable", v.Name))

	subset, values := subsetByAttribute(units, v.Field)
	excluded := len(units) - len(subset)
	if excluded > 0 {
		log.Info("pipeline: excluding units with undefined attribute",
			zap.Int("excluded", excluded),
			zap.Int("remaining", len(subset)),
		)
	}
	if len(subset) < 3 {
		return nil, eris.Errorf("pipeline: variable %q has %d units with defined values, need at least 3", v.Name, len(subset))
	}

	graph, err := contiguity.Build(ctx, subset, contiguity.Options{
		Mode:          cfg.Mode,
		SnapTolerance: cfg.SnapTolerance,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: build contiguity graph for %q", v.Name)
	}

	matrix, err := weights.FromGraph(graph, cfg.Style, cfg.ZeroPolicy)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: derive weights for %q", v.Name)
	}

	local, err := moran.Local(ctx, matrix, values, cfg.Significance)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: local Moran's I for %q", v.Name)
	}

	global, err := moran.Global(v.Name, matrix, values, cfg.Significance)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: global Moran's I for %q", v.Name)
	}

	alpha := cfg.Alpha
	if v.Alpha > 0 {
		alpha = v.Alpha
	}
	if alpha <= 0 || alpha >= 1 {
		alpha = lisa.DefaultAlpha
	}

	nameByID := make(map[string]string, len(subset))
	for _, u := range subset {
		nameByID[u.ID] = u.Name
	}

	results := make([]model.UnitResult, len(local))
	for i, ls := range local {
		results[i] = model.UnitResult{
			UnitID: ls.UnitID,
			Name:   nameByID[ls.UnitID],
			Value:  values[ls.UnitID],
			Local:  ls,
			Label:  lisa.Classify(ls.ZValue, ls.ZScore, ls.P, alpha),
		}
	}

	log.Info("pipeline: analysis complete",
		zap.Int("n", len(subset)),
		zap.Int("islands", len(graph.Islands())),
		zap.Float64("global_i", global.I),
		zap.Float64("global_p", global.P),
		zap.Float64("alpha", alpha),
	)

	return &Result{
		Variable: v.Name,
		Alpha:    alpha,
		N:        len(subset),
		Islands:  graph.Islands(),
		Global:   global,
		Units:    results,
	}, nil
}

// subsetByAttribute filters units to those with a defined value for the field
// and returns the value map keyed by unit ID, preserving input order.
func subsetByAttribute(units []model.SpatialUnit, field string) ([]model.SpatialUnit, map[string]float64) {
	subset := make([]model.SpatialUnit, 0, len(units))
	values := make(map[string]float64, len(units))
	for _, u := range units {
		if v, ok := u.Attribute(field); ok {
			subset = append(subset, u)
			values[u.ID] = v
		}
	}
	return subset, values
}
