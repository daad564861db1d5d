package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/gridsight/feedermatrix/internal/matrix"
	"github.com/gridsight/feedermatrix/internal/model"
)

// Store defines the persistence interface for build runs and their matrices.
type Store interface {
	// Runs
	CreateRun(ctx context.Context) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, status model.RunStatus, summary *model.RunSummary) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Matrices
	SaveMatrix(ctx context.Context, runID string, table *matrix.Table) error
	GetMatrix(ctx context.Context, runID string) (*matrix.Table, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs a Store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
