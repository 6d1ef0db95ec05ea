package conflicts

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/synqlikk/internal/dbx"
	"github.com/dmitrijs2005/synqlikk/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create stores c and fills in DetectedAt.
func (r *PostgresRepository) Create(ctx context.Context, c *models.Conflict) error {
	query := `
		INSERT INTO conflicts (owner_id, kind, record_id, incoming_last_modified, existing_last_modified)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING detected_at`
	err := r.db.QueryRowContext(ctx, query,
		c.OwnerID, string(c.Kind), c.RecordID, c.IncomingLastModified, c.ExistingLastModified,
	).Scan(&c.DetectedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM conflicts WHERE owner_id = $1`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
