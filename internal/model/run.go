package model

import "time"

// RunStatus represents the current state of a feature-matrix build run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run records one execution of the build pipeline in the store.
type Run struct {
	ID         string      `json:"id"`
	Status     RunStatus   `json:"status"`
	Summary    *RunSummary `json:"summary,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}

// RunSummary holds the headline counts of a finished run.
type RunSummary struct {
	MatrixRows    int    `json:"matrix_rows"`
	ProfileCols   int    `json:"profile_cols"`
	FeedersMapped int    `json:"feeders_mapped"`
	ZipsMapped    int    `json:"zips_mapped"`
	Error         string `json:"error,omitempty"`
}
