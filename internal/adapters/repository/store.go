// Package repository defines the risk summary store interface and errors.
//
// The store holds the two aggregate tables produced by a pipeline run.
// Writes are total overwrites; a snapshot is always re-derivable from the
// raw incident and population data, so the store never merges.
package repository

import (
	"context"

	"github.com/safetaichung/saferoute/internal/domain/model"
)

// Store provides durable access to the risk summary snapshot.
type Store interface {
	// Save overwrites the stored snapshot atomically. Readers never
	// observe a half-written table.
	Save(ctx context.Context, snap *model.Snapshot) error

	// Load returns the full current snapshot.
	// Returns ErrSummaryNotAvailable when no snapshot has been written.
	Load(ctx context.Context) (*model.Snapshot, error)
}
