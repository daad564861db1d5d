package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/gridsight/feedermatrix/internal/matrix"
	"github.com/gridsight/feedermatrix/internal/model"
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
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	summary     TEXT,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS matrices (
	run_id   TEXT PRIMARY KEY REFERENCES runs(id),
	profiles TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS matrix_rows (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	feeder_id TEXT NOT NULL,
	zip_code  TEXT NOT NULL,
	month     INTEGER NOT NULL,
	hour      INTEGER NOT NULL,
	kwh       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_matrix_rows_run_id ON matrix_rows(run_id);
CREATE INDEX IF NOT EXISTS idx_matrix_rows_feeder ON matrix_rows(run_id, feeder_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES (?, ?, ?)`,
		id, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, summary = ?, finished_at = ? WHERE id = ?`,
		string(status), string(summaryJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, summary, started_at, finished_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, summary, started_at, finished_at FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SaveMatrix(ctx context.Context, runID string, table *matrix.Table) error {
	profilesJSON, err := json.Marshal(table.Profiles)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal profiles")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO matrices (run_id, profiles) VALUES (?, ?)`,
		runID, string(profilesJSON),
	); err != nil {
		return eris.Wrapf(err, "sqlite: insert matrix for run %s", runID)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO matrix_rows (run_id, feeder_id, zip_code, month, hour, kwh) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare matrix row insert")
	}
	defer stmt.Close()

	for _, row := range table.Rows {
		kwhJSON, err := json.Marshal(row.Values)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal row values")
		}
		if _, err := stmt.ExecContext(ctx,
			runID, row.FeederID, row.ZipCode, row.Month, row.Hour, string(kwhJSON),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert matrix row for feeder %s", row.FeederID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit matrix")
}

func (s *SQLiteStore) GetMatrix(ctx context.Context, runID string) (*matrix.Table, error) {
	var profilesJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT profiles FROM matrices WHERE run_id = ?`,
		runID,
	).Scan(&profilesJSON)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("matrix not found for run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get matrix for run %s", runID)
	}

	var table matrix.Table
	if err := json.Unmarshal([]byte(profilesJSON), &table.Profiles); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal profiles")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT feeder_id, zip_code, month, hour, kwh FROM matrix_rows
		 WHERE run_id = ? ORDER BY feeder_id, month, hour`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query matrix rows")
	}
	defer rows.Close()

	for rows.Next() {
		var r matrix.Row
		var kwhJSON string
		if err := rows.Scan(&r.FeederID, &r.ZipCode, &r.Month, &r.Hour, &kwhJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan matrix row")
		}
		if err := json.Unmarshal([]byte(kwhJSON), &r.Values); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal row values")
		}
		table.Rows = append(table.Rows, r)
	}
	return &table, eris.Wrap(rows.Err(), "sqlite: matrix rows iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var summaryJSON sql.NullString
	var finishedAt sql.NullTime

	err := row.Scan(&r.ID, &r.Status, &summaryJSON, &r.StartedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if summaryJSON.Valid {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal([]byte(summaryJSON.String), r.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		r.FinishedAt = &t
	}
	return &r, nil
}
