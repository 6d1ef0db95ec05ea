// Package conflicts keeps an audit log of pushes the authority rejected.
package conflicts

import (
	"context"

	"github.com/dmitrijs2005/synqlikk/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Conflict) error
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
}
