// Package records stores the authoritative copy of every synchronized record.
package records

import (
	"context"
	"time"

	"github.com/dmitrijs2005/synqlikk/internal/models"
	"github.com/dmitrijs2005/synqlikk/internal/timex"
)

type Repository interface {
	// GetForUpdate locks and returns the owner's row, or nil when the owner
	// has no record with this id.
	GetForUpdate(ctx context.Context, ownerID string, kind models.Kind, id string) (*models.Record, error)

	// Upsert inserts or replaces a record unless the stored copy belongs to
	// another owner or is strictly newer, in which case it returns
	// common.ErrVersionConflict.
	Upsert(ctx context.Context, r *models.Record) error

	// ListChangedSince returns every row the authority touched at or after
	// since, tombstones included. A nil since returns everything.
	ListChangedSince(ctx context.Context, ownerID string, kind models.Kind, since *timex.Timestamp) ([]*models.Record, error)

	// ServerTime is a safe checkpoint on the clock that stamps
	// server_modified: no write stamped earlier can still be uncommitted.
	ServerTime(ctx context.Context) (timex.Timestamp, error)

	ListTombstones(ctx context.Context, kind models.Kind, olderThan time.Time, limit int) ([]*models.Record, error)
	DeleteTombstones(ctx context.Context, kind models.Kind, ids []string) (int64, error)
}
