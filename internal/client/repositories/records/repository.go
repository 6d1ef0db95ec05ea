// Package records is the client-side Record Store: one SQLite table per kind,
// each row carrying the synced flag that drives change extraction.
package records

import (
	"context"

	"github.com/dmitrijs2005/synqlikk/internal/models"
	"github.com/dmitrijs2005/synqlikk/internal/timex"
)

type ListOptions struct {
	// Since keeps rows with last_modified at or after it.
	Since          *timex.Timestamp
	IncludeDeleted bool
	Filter         models.Filter
}

type Repository interface {
	List(ctx context.Context, ownerID string, kind models.Kind, opts ListOptions) ([]*models.Record, error)
	// Get returns deleted records too, common.ErrorNotFound when absent.
	Get(ctx context.Context, ownerID string, kind models.Kind, id string) (*models.Record, error)
	Upsert(ctx context.Context, r *models.Record) error
	// MarkSynced sets synced only on rows still holding exactly the given versions.
	MarkSynced(ctx context.Context, ownerID string, kind models.Kind, versions []models.Version) (int64, error)
	// PurgeDeleted removes soft-deleted rows the authority has confirmed.
	PurgeDeleted(ctx context.Context, ownerID string) (int64, error)
	// PurgeAbsent removes synced rows of kind whose id is not in present.
	// Unsynced rows are kept.
	PurgeAbsent(ctx context.Context, ownerID string, kind models.Kind, present map[string]struct{}) (int64, error)
	ListDirty(ctx context.Context, ownerID string, kind models.Kind) ([]*models.Record, error)
}
