package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/synqlikk/internal/client/repositories/records"
	"github.com/dmitrijs2005/synqlikk/internal/dbx"
	"github.com/dmitrijs2005/synqlikk/internal/models"
)

// Extractor gathers every local change the authority has not confirmed yet.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Collect returns the owner's dirty records of every kind, deletions
// included. Run it inside the same transaction as the checkpoint read.
func (e *Extractor) Collect(ctx context.Context, db dbx.DBTX, ownerID string) (models.ChangeSet, error) {
	repo := records.NewSQLiteRepository(db)
	cs := models.ChangeSet{}
	for _, kind := range models.Kinds {
		dirty, err := repo.ListDirty(ctx, ownerID, kind)
		if err != nil {
			return nil, fmt.Errorf("collect %s: %w", kind, err)
		}
		for _, r := range dirty {
			cs.Add(r)
		}
	}
	return cs, nil
}
