// Package store persists run history: one record per evolution run and one
// per completed generation.
package store

import (
	"context"
	"fmt"
	"time"
)

// Run describes a single evolution run.
type Run struct {
	ID          string
	EnvName     string
	Variant     string // "neat", "hyper" or "eshyper".
	Seed        int64
	StartedAt   time.Time
	FinishedAt  time.Time
	BestFitness float64
	Generations int
}

// GenerationRecord is the per-generation fitness summary of a run.
type GenerationRecord struct {
	RunID       string
	Generation  int
	BestFitness float64
	MeanFitness float64
	NumSpecies  int
	PopSize     int
}

// Store defines persistence operations for run history.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	ListRuns(ctx context.Context) ([]Run, error)
	SaveGeneration(ctx context.Context, record GenerationRecord) error
	GetGenerations(ctx context.Context, runID string) ([]GenerationRecord, error)
}

// New creates a store backend by kind: "memory" (default) or "sqlite".
func New(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// CloseIfSupported closes the store if the backend holds resources.
func CloseIfSupported(s Store) error {
	closer, ok := s.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
