package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/synqlikk/internal/common"
	"github.com/dmitrijs2005/synqlikk/internal/dbx"
	"github.com/dmitrijs2005/synqlikk/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// columns lists the envelope, the payload and the synced flag, in scan order.
func columns(kind models.Kind) ([]string, error) {
	p, err := models.NewPayload(kind)
	if err != nil {
		return nil, err
	}
	cols := append([]string{}, models.EnvelopeColumns...)
	cols = append(cols, p.Columns()...)
	return append(cols, "synced"), nil
}

func selectQuery(kind models.Kind, where string) (string, error) {
	cols, err := columns(kind)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(cols, ", "), kind.Table(), where), nil
}

func marks(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner, kind models.Kind) (*models.Record, error) {
	data, err := models.NewPayload(kind)
	if err != nil {
		return nil, err
	}
	r := &models.Record{Kind: kind, Data: data}
	dest := []any{&r.ID, &r.OwnerID, &r.LastModified, &r.IsDeleted, &r.DeletedAt}
	dest = append(dest, data.Targets()...)
	if err := s.Scan(append(dest, &r.Synced)...); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRepository) query(ctx context.Context, kind models.Kind, query string, args ...any) ([]*models.Record, error) {
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

// filterClause translates the filter fields that apply to kind.
func filterClause(kind models.Kind, f models.Filter) ([]string, []any) {
	var (
		conds []string
		args  []any
	)
	search := strings.TrimSpace(f.Search)

	switch kind {
	case models.KindTask:
		if search != "" {
			conds = append(conds, "title LIKE ?")
			args = append(args, "%"+search+"%")
		}
		if f.Status != "" {
			conds = append(conds, "status = ?")
			args = append(args, string(f.Status))
		}
		if f.Priority != 0 {
			conds = append(conds, "priority = ?")
			args = append(args, f.Priority)
		}
		if f.DueDate != "" {
			conds = append(conds, "due_date = ?")
			args = append(args, f.DueDate)
		}
	case models.KindNote:
		if search != "" {
			conds = append(conds, "(title LIKE ? OR content LIKE ?)")
			args = append(args, "%"+search+"%", "%"+search+"%")
		}
	case models.KindExpense:
		if c := strings.TrimSpace(f.Category); c != "" {
			conds = append(conds, "category = ? COLLATE NOCASE")
			args = append(args, c)
		}
	}
	return conds, args
}

func (r *SQLiteRepository) List(ctx context.Context, ownerID string, kind models.Kind, opts ListOptions) ([]*models.Record, error) {
	conds := []string{"owner_id = ?"}
	args := []any{ownerID}

	if !opts.IncludeDeleted {
		conds = append(conds, "is_deleted = 0")
	}
	if opts.Since != nil {
		conds = append(conds, "last_modified >= ?")
		args = append(args, *opts.Since)
	}
	fc, fa := filterClause(kind, opts.Filter)
	conds = append(conds, fc...)
	args = append(args, fa...)

	query, err := selectQuery(kind, strings.Join(conds, " AND ")+" ORDER BY last_modified DESC, id")
	if err != nil {
		return nil, err
	}
	return r.query(ctx, kind, query, args...)
}

func (r *SQLiteRepository) Get(ctx context.Context, ownerID string, kind models.Kind, id string) (*models.Record, error) {
	query, err := selectQuery(kind, "owner_id = ? AND id = ?")
	if err != nil {
		return nil, err
	}
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, ownerID, id), kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// Upsert inserts rec or replaces every column of the stored row. A row with
// the same id owned by someone else is left alone.
func (r *SQLiteRepository) Upsert(ctx context.Context, rec *models.Record) error {
	if rec.Data == nil {
		return fmt.Errorf("record %s has no payload", rec.ID)
	}
	cols, err := columns(rec.Kind)
	if err != nil {
		return err
	}

	table := rec.Kind.Table()
	updates := make([]string, 0, len(cols))
	for _, c := range cols[2:] {
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s) VALUES (%s)
		ON CONFLICT(id) DO UPDATE SET %s
		WHERE %s.owner_id = excluded.owner_id`,
		table, strings.Join(cols, ", "), marks(len(cols)), strings.Join(updates, ", "), table)

	args := []any{rec.ID, rec.OwnerID, rec.LastModified, rec.IsDeleted, rec.DeletedAt}
	args = append(args, rec.Data.Values()...)
	args = append(args, rec.Synced)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, ownerID string, kind models.Kind, versions []models.Version) (int64, error) {
	query := fmt.Sprintf("UPDATE %s SET synced = 1 WHERE owner_id = ? AND id = ? AND last_modified = ?", kind.Table())

	var total int64
	for _, v := range versions {
		res, err := r.db.ExecContext(ctx, query, ownerID, v.ID, v.LastModified)
		if err != nil {
			return total, fmt.Errorf("db error: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected error: %w", err)
		}
		total += n
	}
	return total, nil
}

func (r *SQLiteRepository) PurgeDeleted(ctx context.Context, ownerID string) (int64, error) {
	var total int64
	for _, kind := range models.Kinds {
		res, err := r.db.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE owner_id = ? AND is_deleted = 1 AND synced = 1", kind.Table()), ownerID)
		if err != nil {
			return total, fmt.Errorf("db error: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected error: %w", err)
		}
		total += n
	}
	return total, nil
}

func (r *SQLiteRepository) PurgeAbsent(ctx context.Context, ownerID string, kind models.Kind, present map[string]struct{}) (int64, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id FROM %s WHERE owner_id = ? AND synced = 1", kind.Table()), ownerID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	var absent []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan error: %w", err)
		}
		if _, ok := present[id]; !ok {
			absent = append(absent, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("rows error: %w", err)
	}
	rows.Close()

	var total int64
	query := fmt.Sprintf("DELETE FROM %s WHERE owner_id = ? AND id = ? AND synced = 1", kind.Table())
	for _, id := range absent {
		res, err := r.db.ExecContext(ctx, query, ownerID, id)
		if err != nil {
			return total, fmt.Errorf("db error: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected error: %w", err)
		}
		total += n
	}
	return total, nil
}

func (r *SQLiteRepository) ListDirty(ctx context.Context, ownerID string, kind models.Kind) ([]*models.Record, error) {
	query, err := selectQuery(kind, "owner_id = ? AND synced = 0 ORDER BY last_modified, id")
	if err != nil {
		return nil, err
	}
	return r.query(ctx, kind, query, ownerID)
}
