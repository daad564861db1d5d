package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/gridsight/feedermatrix/internal/db"
	"github.com/gridsight/feedermatrix/internal/matrix"
	"github.com/gridsight/feedermatrix/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	status      TEXT NOT NULL DEFAULT 'running',
	summary     JSONB,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS matrices (
	run_id   TEXT PRIMARY KEY REFERENCES runs(id),
	profiles JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS matrix_rows (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	feeder_id TEXT NOT NULL,
	zip_code  TEXT NOT NULL,
	month     INTEGER NOT NULL,
	hour      INTEGER NOT NULL,
	kwh       JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_matrix_rows_run_id ON matrix_rows(run_id);
CREATE INDEX IF NOT EXISTS idx_matrix_rows_feeder ON matrix_rows(run_id, feeder_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES ($1, $2, $3)`,
		id, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, summary = $2, finished_at = $3 WHERE id = $4`,
		string(status), summaryJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var summaryJSON []byte
	var finishedAt *time.Time

	err := s.pool.QueryRow(ctx,
		`SELECT id, status, summary, started_at, finished_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.Status, &summaryJSON, &r.StartedAt, &finishedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	if summaryJSON != nil {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal(summaryJSON, r.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
	}
	r.FinishedAt = finishedAt
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, summary, started_at, finished_at FROM runs ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var summaryJSON []byte
		var finishedAt *time.Time

		if err := rows.Scan(&r.ID, &r.Status, &summaryJSON, &r.StartedAt, &finishedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if summaryJSON != nil {
			r.Summary = &model.RunSummary{}
			if err := json.Unmarshal(summaryJSON, r.Summary); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal summary")
			}
		}
		r.FinishedAt = finishedAt
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) SaveMatrix(ctx context.Context, runID string, table *matrix.Table) error {
	profilesJSON, err := json.Marshal(table.Profiles)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal profiles")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO matrices (run_id, profiles) VALUES ($1, $2)`,
		runID, profilesJSON,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert matrix for run %s", runID)
	}

	copyRows := make([][]any, 0, len(table.Rows))
	for _, row := range table.Rows {
		kwhJSON, err := json.Marshal(row.Values)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal row values")
		}
		copyRows = append(copyRows, []any{
			runID, row.FeederID, row.ZipCode, row.Month, row.Hour, kwhJSON,
		})
	}

	_, err = db.CopyFrom(ctx, s.pool, "matrix_rows",
		[]string{"run_id", "feeder_id", "zip_code", "month", "hour", "kwh"},
		copyRows,
	)
	return err
}

func (s *PostgresStore) GetMatrix(ctx context.Context, runID string) (*matrix.Table, error) {
	var profilesJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT profiles FROM matrices WHERE run_id = $1`,
		runID,
	).Scan(&profilesJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("matrix not found for run %s", runID)
		}
		return nil, eris.Wrapf(err, "postgres: get matrix for run %s", runID)
	}

	var table matrix.Table
	if err := json.Unmarshal(profilesJSON, &table.Profiles); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal profiles")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT feeder_id, zip_code, month, hour, kwh FROM matrix_rows
		 WHERE run_id = $1 ORDER BY feeder_id, month, hour`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query matrix rows")
	}
	defer rows.Close()

	for rows.Next() {
		var r matrix.Row
		var kwhJSON []byte
		if err := rows.Scan(&r.FeederID, &r.ZipCode, &r.Month, &r.Hour, &kwhJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan matrix row")
		}
		if err := json.Unmarshal(kwhJSON, &r.Values); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal row values")
		}
		table.Rows = append(table.Rows, r)
	}
	return &table, eris.Wrap(rows.Err(), "postgres: matrix rows iterate")
}
