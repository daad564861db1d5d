package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsight/feedermatrix/internal/matrix"
	"github.com/gridsight/feedermatrix/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testTable() *matrix.Table {
	return &matrix.Table{
		Profiles: []string{"P1", "P2"},
		Rows: []matrix.Row{
			{FeederID: "F1", ZipCode: "90210", Month: 5, Hour: 0, Values: []float64{0.15, 0}},
			{FeederID: "F1", ZipCode: "90210", Month: 5, Hour: 1, Values: []float64{0.2, 0}},
			{FeederID: "F2", ZipCode: "90211", Month: 6, Hour: 0, Values: []float64{0, 0.4}},
		},
	}
}

// --- Runs ---

func TestSQLite_CreateRun_And_GetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.Nil(t, run.Summary)

	fetched, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, fetched.ID)
	assert.Equal(t, model.RunStatusRunning, fetched.Status)
	assert.Nil(t, fetched.FinishedAt)
}

func TestSQLite_FinishRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx)
	require.NoError(t, err)

	summary := &model.RunSummary{
		MatrixRows:    3,
		ProfileCols:   2,
		FeedersMapped: 2,
		ZipsMapped:    2,
	}
	err = st.FinishRun(ctx, run.ID, model.RunStatusComplete, summary)
	require.NoError(t, err)

	fetched, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, fetched.Status)
	require.NotNil(t, fetched.Summary)
	assert.Equal(t, 3, fetched.Summary.MatrixRows)
	assert.Equal(t, 2, fetched.Summary.ProfileCols)
	assert.NotNil(t, fetched.FinishedAt)
}

func TestSQLite_FinishRun_Failed(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx)
	require.NoError(t, err)

	err = st.FinishRun(ctx, run.ID, model.RunStatusFailed, &model.RunSummary{Error: "no feeders resolved"})
	require.NoError(t, err)

	fetched, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, fetched.Status)
	require.NotNil(t, fetched.Summary)
	assert.Equal(t, "no feeders resolved", fetched.Summary.Error)
}

func TestSQLite_FinishRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	err := st.FinishRun(ctx, "no-such-run", model.RunStatusComplete, &model.RunSummary{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.GetRun(ctx, "no-such-run")
	require.Error(t, err)
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.CreateRun(ctx)
	require.NoError(t, err)
	_, err = st.CreateRun(ctx)
	require.NoError(t, err)

	runs, err := st.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

// --- Matrices ---

func TestSQLite_SaveMatrix_And_GetMatrix(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx)
	require.NoError(t, err)

	table := testTable()
	require.NoError(t, st.SaveMatrix(ctx, run.ID, table))

	fetched, err := st.GetMatrix(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "P2"}, fetched.Profiles)
	require.Len(t, fetched.Rows, 3)
	assert.Equal(t, "F1", fetched.Rows[0].FeederID)
	assert.Equal(t, "90210", fetched.Rows[0].ZipCode)
	assert.Equal(t, 5, fetched.Rows[0].Month)
	assert.Equal(t, []float64{0.15, 0}, fetched.Rows[0].Values)
	assert.Equal(t, "F2", fetched.Rows[2].FeederID)
}

func TestSQLite_SaveMatrix_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx)
	require.NoError(t, err)

	table := &matrix.Table{Profiles: []string{"P1"}}
	require.NoError(t, st.SaveMatrix(ctx, run.ID, table))

	fetched, err := st.GetMatrix(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"P1"}, fetched.Profiles)
	assert.Empty(t, fetched.Rows)
}

func TestSQLite_GetMatrix_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.GetMatrix(ctx, "no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matrix not found")
}

// --- Migrate ---

func TestSQLite_Migrate_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	// Migrate was already called in newTestSQLiteStore; calling again should not error.
	err := st.Migrate(ctx)
	require.NoError(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestOpen_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "open.db")
	st, err := Open(context.Background(), "sqlite", dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())
}
