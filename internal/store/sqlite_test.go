package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrastat/lisa-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleRun(variable string) *model.AnalysisRun {
	return &model.AnalysisRun{
		Variable: variable,
		Alpha:    0.05,
		Config:   `{"mode":"queen"}`,
		N:        2,
		Islands:  0,
		Global: &model.GlobalStatistic{
			Variable:   variable,
			N:          2,
			I:          -1,
			Expected:   -1.0 / 3.0,
			Variance:   2.0 / 9.0,
			ZScore:     -1.41,
			P:          0.157,
			Assumption: "randomization",
		},
		Units: []model.UnitResult{
			{
				UnitID: "06001",
				Name:   "Alameda",
				Value:  10,
				Local:  model.LocalStatistics{UnitID: "06001", ZValue: 0.86, Lag: -0.86, I: -0.75, ZScore: -0.88, P: 0.37},
				Label:  model.LabelNotSignificant,
			},
			{
				UnitID: "06002",
				Name:   "Butte",
				Value:  -10,
				Local:  model.LocalStatistics{UnitID: "06002", ZValue: -0.86, Lag: 0.86, I: -0.75, ZScore: -0.88, P: 0.37},
				Label:  model.LabelLowHigh,
			},
		},
	}
}

func TestSQLiteCreateAndGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := sampleRun("rate")
	require.NoError(t, s.CreateRun(ctx, run))
	assert.NotEmpty(t, run.ID, "missing ID should be filled in")
	assert.False(t, run.CreatedAt.IsZero())

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, run.Variable, got.Variable)
	assert.Equal(t, run.Alpha, got.Alpha)
	assert.Equal(t, run.Config, got.Config)
	require.NotNil(t, got.Global)
	assert.Equal(t, run.Global.I, got.Global.I)
	assert.Equal(t, run.Global.Assumption, got.Global.Assumption)

	require.Len(t, got.Units, 2)
	assert.Equal(t, "06001", got.Units[0].UnitID)
	assert.Equal(t, "Alameda", got.Units[0].Name)
	assert.Equal(t, -0.75, got.Units[0].Local.I)
	assert.Equal(t, model.LabelLowHigh, got.Units[1].Label)
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRun(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLiteListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, variable := range []string{"rate", "rate", "income"} {
		run := sampleRun(variable)
		run.CreatedAt = time.Date(2026, 3, 1+i, 0, 0, 0, 0, time.UTC)
		require.NoError(t, s.CreateRun(ctx, run))
	}

	t.Run("all runs, newest first", func(t *testing.T) {
		runs, err := s.ListRuns(ctx, RunFilter{})
		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.Equal(t, "income", runs[0].Variable)
	})

	t.Run("filter by variable", func(t *testing.T) {
		runs, err := s.ListRuns(ctx, RunFilter{Variable: "rate"})
		require.NoError(t, err)
		assert.Len(t, runs, 2)
	})

	t.Run("limit and offset", func(t *testing.T) {
		runs, err := s.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, runs, 1)
	})

	t.Run("no matches", func(t *testing.T) {
		runs, err := s.ListRuns(ctx, RunFilter{Variable: "nope"})
		require.NoError(t, err)
		assert.Empty(t, runs)
	})
}

func TestSQLiteListUnits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := sampleRun("rate")
	require.NoError(t, s.CreateRun(ctx, run))

	units, err := s.ListUnits(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, units, 2)
	// Ordered by unit ID.
	assert.Equal(t, "06001", units[0].UnitID)
	assert.Equal(t, "06002", units[1].UnitID)
	assert.Equal(t, "06002", units[1].Local.UnitID)
}
