// Package store persists analysis runs and their per-unit results.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/terrastat/lisa-cli/internal/model"
)

// ErrRunNotFound is returned when a run ID has no stored record.
var ErrRunNotFound = eris.New("store: run not found")

// RunFilter specifies criteria for listing analysis runs.
type RunFilter struct {
	Variable string `json:"variable,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// Store is the persistence interface for the analysis run history.
type Store interface {
	CreateRun(ctx context.Context, run *model.AnalysisRun) error
	GetRun(ctx context.Context, runID string) (*model.AnalysisRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.AnalysisRun, error)
	ListUnits(ctx context.Context, runID string) ([]model.UnitResult, error)

	Migrate(ctx context.Context) error
	Close() error
}
