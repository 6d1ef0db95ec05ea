package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/synqlikk/internal/common"
	"github.com/dmitrijs2005/synqlikk/internal/dbx"
	"github.com/dmitrijs2005/synqlikk/internal/models"
	"github.com/dmitrijs2005/synqlikk/internal/timex"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func columns(kind models.Kind) ([]string, error) {
	p, err := models.NewPayload(kind)
	if err != nil {
		return nil, err
	}
	cols := append([]string{}, models.EnvelopeColumns...)
	return append(cols, p.Columns()...), nil
}

func selectQuery(kind models.Kind, where string) (string, error) {
	cols, err := columns(kind)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(cols, ", "), kind.Table(), where), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner, kind models.Kind) (*models.Record, error) {
	data, err := models.NewPayload(kind)
	if err != nil {
		return nil, err
	}
	r := &models.Record{Kind: kind, Synced: true, Data: data}
	dest := []any{&r.ID, &r.OwnerID, &r.LastModified, &r.IsDeleted, &r.DeletedAt}
	if err := s.Scan(append(dest, data.Targets()...)...); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *PostgresRepository) query(ctx context.Context, kind models.Kind, query string, args ...any) ([]*models.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		rec, err := scanRecord(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, ownerID string, kind models.Kind, id string) (*models.Record, error) {
	query, err := selectQuery(kind, "id = $1 AND owner_id = $2 FOR UPDATE")
	if err != nil {
		return nil, err
	}
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id, ownerID), kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, rec *models.Record) error {
	if rec.Data == nil {
		return fmt.Errorf("record %s has no payload", rec.ID)
	}
	cols, err := columns(rec.Kind)
	if err != nil {
		return err
	}

	updates := make([]string, 0, len(cols))
	for _, c := range cols[2:] {
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	updates = append(updates, "server_modified = now()")

	query := fmt.Sprintf(`
		INSERT INTO %s AS t (%s, server_modified)
		VALUES (%s, now())
		ON CONFLICT (id) DO UPDATE SET %s
		WHERE t.owner_id = EXCLUDED.owner_id AND t.last_modified <= EXCLUDED.last_modified`,
		rec.Kind.Table(), strings.Join(cols, ", "), dbx.Placeholders(1, len(cols)), strings.Join(updates, ", "))

	args := []any{rec.ID, rec.OwnerID, rec.LastModified, rec.IsDeleted, rec.DeletedAt}
	args = append(args, rec.Data.Values()...)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrVersionConflict
	}
	return nil
}

func (r *PostgresRepository) ListChangedSince(ctx context.Context, ownerID string, kind models.Kind, since *timex.Timestamp) ([]*models.Record, error) {
	if since == nil {
		query, err := selectQuery(kind, "owner_id = $1 ORDER BY server_modified, id")
		if err != nil {
			return nil, err
		}
		return r.query(ctx, kind, query, ownerID)
	}
	query, err := selectQuery(kind, "owner_id = $1 AND server_modified >= $2 ORDER BY server_modified, id")
	if err != nil {
		return nil, err
	}
	return r.query(ctx, kind, query, ownerID, *since)
}

// serverTimeQuery never reaches past the start of a transaction that is
// still open: its rows carry server_modified = its start time and only
// become visible once it commits.
const serverTimeQuery = `SELECT LEAST(now(), COALESCE((
	SELECT min(xact_start) FROM pg_stat_activity
	WHERE datname = current_database() AND xact_start IS NOT NULL AND pid <> pg_backend_pid()
), now()))`

func (r *PostgresRepository) ServerTime(ctx context.Context) (timex.Timestamp, error) {
	var ts timex.Timestamp
	if err := r.db.QueryRowContext(ctx, serverTimeQuery).Scan(&ts); err != nil {
		return timex.Timestamp{}, fmt.Errorf("db error: %w", err)
	}
	return ts, nil
}

func (r *PostgresRepository) ListTombstones(ctx context.Context, kind models.Kind, olderThan time.Time, limit int) ([]*models.Record, error) {
	query, err := selectQuery(kind, "is_deleted AND server_modified < $1 ORDER BY server_modified, id LIMIT $2")
	if err != nil {
		return nil, err
	}
	return r.query(ctx, kind, query, olderThan, limit)
}

// DeleteTombstones removes the given ids that are still deleted. A record
// resurrected after it was listed survives.
func (r *PostgresRepository) DeleteTombstones(ctx context.Context, kind models.Kind, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE is_deleted AND id IN (%s)", kind.Table(), dbx.Placeholders(1, len(ids)))
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
