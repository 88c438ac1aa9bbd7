// Package repository persists prediction logs and ranks employees by risk.
package repository

import (
	"context"

	"github.com/okian/turnover/internal/domain/model"
)

// Store keeps the prediction audit trail.
type Store interface {
	// Save persists one log.
	Save(ctx context.Context, log model.PredictionLog) error
	// Count returns the number of logs held.
	Count(ctx context.Context) (int, error)
	// Recent returns up to n logs, newest first.
	Recent(ctx context.Context, n int) ([]model.PredictionLog, error)
	// Kind names the backend in metrics and stats.
	Kind() string
	Close() error
}
