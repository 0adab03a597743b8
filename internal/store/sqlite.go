package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/terrastat/lisa-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	id         TEXT PRIMARY KEY,
	variable   TEXT NOT NULL,
	alpha      REAL NOT NULL,
	config     TEXT NOT NULL,
	global     TEXT,
	n          INTEGER NOT NULL,
	islands    INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS unit_stats (
	run_id  TEXT NOT NULL REFERENCES analysis_runs(id),
	unit_id TEXT NOT NULL,
	name    TEXT,
	value   REAL NOT NULL,
	z_value REAL NOT NULL,
	lag     REAL NOT NULL,
	local_i REAL NOT NULL,
	z_score REAL NOT NULL,
	p_value REAL NOT NULL,
	label   TEXT NOT NULL,
	PRIMARY KEY (run_id, unit_id)
);

CREATE INDEX IF NOT EXISTS idx_analysis_runs_variable ON analysis_runs(variable);
CREATE INDEX IF NOT EXISTS idx_unit_stats_run_id ON unit_stats(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRun persists a run and its per-unit results in one transaction.
// A missing ID or CreatedAt is filled in.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *model.AnalysisRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	globalJSON, err := json.Marshal(run.Global)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal global statistic")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO analysis_runs (id, variable, alpha, config, global, n, islands, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Variable, run.Alpha, run.Config, string(globalJSON), run.N, run.Islands, run.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert run")
	}

	for _, u := range run.Units {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO unit_stats (run_id, unit_id, name, value, z_value, lag, local_i, z_score, p_value, label)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, u.UnitID, u.Name, u.Value,
			u.Local.ZValue, u.Local.Lag, u.Local.I, u.Local.ZScore, u.Local.P,
			string(u.Label),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert unit stats %s", u.UnitID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit run")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.AnalysisRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, variable, alpha, config, global, n, islands, created_at
		 FROM analysis_runs WHERE id = ?`, runID,
	)
	run, err := scanRun(row)
	if err != nil {
		return nil, err
	}
	units, err := s.ListUnits(ctx, runID)
	if err != nil {
		return nil, err
	}
	run.Units = units
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.AnalysisRun, error) {
	query := `SELECT id, variable, alpha, config, global, n, islands, created_at
	          FROM analysis_runs WHERE 1=1`
	var args []any

	if filter.Variable != "" {
		query += ` AND variable = ?`
		args = append(args, filter.Variable)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		// SQLite requires LIMIT before OFFSET; -1 means unbounded.
		query += ` LIMIT -1`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.AnalysisRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) ListUnits(ctx context.Context, runID string) ([]model.UnitResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT unit_id, name, value, z_value, lag, local_i, z_score, p_value, label
		 FROM unit_stats WHERE run_id = ? ORDER BY unit_id`, runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list units for run %s", runID)
	}
	defer rows.Close()

	var units []model.UnitResult
	for rows.Next() {
		var u model.UnitResult
		var name sql.NullString
		var label string
		if err := rows.Scan(&u.UnitID, &name, &u.Value,
			&u.Local.ZValue, &u.Local.Lag, &u.Local.I, &u.Local.ZScore, &u.Local.P,
			&label); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan unit stats")
		}
		u.Name = name.String
		u.Local.UnitID = u.UnitID
		u.Label = model.ClusterLabel(label)
		units = append(units, u)
	}
	return units, eris.Wrap(rows.Err(), "sqlite: iterate unit stats")
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*model.AnalysisRun, error) {
	var run model.AnalysisRun
	var globalJSON sql.NullString
	if err := row.Scan(&run.ID, &run.Variable, &run.Alpha, &run.Config,
		&globalJSON, &run.N, &run.Islands, &run.CreatedAt); err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	if globalJSON.Valid && globalJSON.String != "" && globalJSON.String != "null" {
		var g model.GlobalStatistic
		if err := json.Unmarshal([]byte(globalJSON.String), &g); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal global statistic")
		}
		run.Global = &g
	}
	return &run, nil
}
