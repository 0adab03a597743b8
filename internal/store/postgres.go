package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/terrastat/lisa-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the publisher needs; pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// unitStatsColumns matches the lisa.unit_stats table for COPY loading.
var unitStatsColumns = []string{
	"run_id", "variable", "unit_id", "name", "value",
	"z_value", "lag", "local_i", "z_score", "p_value", "label",
}

const postgresSchema = `
CREATE SCHEMA IF NOT EXISTS lisa;

CREATE TABLE IF NOT EXISTS lisa.unit_stats (
	run_id   TEXT NOT NULL,
	variable TEXT NOT NULL,
	unit_id  TEXT NOT NULL,
	name     TEXT,
	value    DOUBLE PRECISION NOT NULL,
	z_value  DOUBLE PRECISION NOT NULL,
	lag      DOUBLE PRECISION NOT NULL,
	local_i  DOUBLE PRECISION NOT NULL,
	z_score  DOUBLE PRECISION NOT NULL,
	p_value  DOUBLE PRECISION NOT NULL,
	label    TEXT NOT NULL,
	PRIMARY KEY (run_id, unit_id)
);

CREATE INDEX IF NOT EXISTS idx_lisa_unit_stats_variable ON lisa.unit_stats(variable);
`

// Publisher pushes classified per-unit results into PostGIS for downstream
// map-rendering collaborators.
type Publisher struct {
	pool Pool
}

// NewPublisher creates a Publisher over the given connection pool.
func NewPublisher(pool Pool) *Publisher {
	return &Publisher{pool: pool}
}

// EnsureSchema creates the lisa schema and unit_stats table if absent.
func (p *Publisher) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return eris.Wrap(err, "postgres: ensure lisa schema")
	}
	return nil
}

// Publish bulk-loads a run's per-unit results via the COPY protocol.
func (p *Publisher) Publish(ctx context.Context, run *model.AnalysisRun) (int64, error) {
	if len(run.Units) == 0 {
		return 0, nil
	}
	rows := make([][]any, 0, len(run.Units))
	for _, u := range run.Units {
		rows = append(rows, []any{
			run.ID, run.Variable, u.UnitID, u.Name, u.Value,
			u.Local.ZValue, u.Local.Lag, u.Local.I, u.Local.ZScore, u.Local.P,
			string(u.Label),
		})
	}
	n, err := p.pool.CopyFrom(ctx,
		pgx.Identifier{"lisa", "unit_stats"},
		unitStatsColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: COPY unit stats for run %s", run.ID)
	}
	zap.L().Info("postgres: published unit stats",
		zap.String("run_id", run.ID),
		zap.Int64("rows", n),
	)
	return n, nil
}
