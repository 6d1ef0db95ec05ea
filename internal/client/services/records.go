package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/synqlikk/internal/client/repositories/records"
	"github.com/dmitrijs2005/synqlikk/internal/common"
	"github.com/dmitrijs2005/synqlikk/internal/dbx"
	"github.com/dmitrijs2005/synqlikk/internal/logging"
	"github.com/dmitrijs2005/synqlikk/internal/models"
)

var ErrNotAuthenticated = errors.New("not signed in")

// RecordService edits the local store on behalf of the signed-in user.
// Every mutation replaces the whole record, stamps a newer last_modified and
// leaves the record dirty until a sync confirms it.
type RecordService interface {
	Create(ctx context.Context, data models.Payload) (*models.Record, error)
	Update(ctx context.Context, kind models.Kind, id string, data models.Payload) (*models.Record, error)
	Delete(ctx context.Context, kind models.Kind, id string) error
	Get(ctx context.Context, kind models.Kind, id string) (*models.Record, error)
	List(ctx context.Context, kind models.Kind, filter models.Filter) ([]*models.Record, error)
}

type recordService struct {
	db       *sql.DB
	sessions *SessionStore
	logger   logging.Logger
}

func NewRecordService(db *sql.DB, sessions *SessionStore, logger logging.Logger) RecordService {
	return &recordService{db: db, sessions: sessions, logger: logger.With("module", "records")}
}

// nowFn is replaced in tests.
var nowFn = time.Now

func (s *recordService) owner(ctx context.Context, db dbx.DBTX) (string, error) {
	sess, err := s.sessions.ReadSession(ctx, db)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", ErrNotAuthenticated
	}
	return sess.UserID, nil
}

func applyDefaults(data models.Payload) {
	if e, ok := data.(*models.Expense); ok && e.Date == "" {
		e.Date = nowFn().Format(models.DateLayout)
	}
}

func validatePayload(data models.Payload) error {
	if data == nil {
		return fmt.Errorf("%w: data is required", common.ErrorValidation)
	}
	if err := data.Validate(); err != nil {
		return fmt.Errorf("%w: %s", common.ErrorValidation, err.Error())
	}
	return nil
}

func (s *recordService) Create(ctx context.Context, data models.Payload) (*models.Record, error) {
	if data != nil {
		applyDefaults(data)
	}
	if err := validatePayload(data); err != nil {
		return nil, err
	}

	var rec *models.Record
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ownerID, err := s.owner(ctx, tx)
		if err != nil {
			return err
		}
		rec = models.NewRecord(ownerID, data)
		return records.NewSQLiteRepository(tx).Upsert(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "record created", "kind", rec.Kind, "id", rec.ID)
	return rec, nil
}

// load returns the owner's live record or common.ErrorNotFound.
func (s *recordService) load(ctx context.Context, tx dbx.DBTX, kind models.Kind, id string) (records.Repository, *models.Record, error) {
	ownerID, err := s.owner(ctx, tx)
	if err != nil {
		return nil, nil, err
	}
	repo := records.NewSQLiteRepository(tx)
	rec, err := repo.Get(ctx, ownerID, kind, id)
	if err != nil {
		return nil, nil, err
	}
	if rec.IsDeleted {
		return nil, nil, common.ErrorNotFound
	}
	return repo, rec, nil
}

func (s *recordService) Update(ctx context.Context, kind models.Kind, id string, data models.Payload) (*models.Record, error) {
	if err := validatePayload(data); err != nil {
		return nil, err
	}
	if data.Kind() != kind {
		return nil, fmt.Errorf("%w: %s payload for a %s", common.ErrorValidation, data.Kind(), kind)
	}

	var rec *models.Record
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo, existing, err := s.load(ctx, tx, kind, id)
		if err != nil {
			return err
		}
		existing.Replace(data)
		rec = existing
		return repo.Upsert(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "record updated", "kind", kind, "id", id)
	return rec, nil
}

// Delete soft-deletes the record; it disappears from listings at once and
// from the store after the deletion has been synced.
func (s *recordService) Delete(ctx context.Context, kind models.Kind, id string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo, existing, err := s.load(ctx, tx, kind, id)
		if err != nil {
			return err
		}
		existing.MarkDeleted()
		return repo.Upsert(ctx, existing)
	})
	if err != nil {
		return err
	}

	s.logger.Debug(ctx, "record deleted", "kind", kind, "id", id)
	return nil
}

func (s *recordService) Get(ctx context.Context, kind models.Kind, id string) (*models.Record, error) {
	_, rec, err := s.load(ctx, s.db, kind, id)
	return rec, err
}

func (s *recordService) List(ctx context.Context, kind models.Kind, filter models.Filter) ([]*models.Record, error) {
	ownerID, err := s.owner(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return records.NewSQLiteRepository(s.db).List(ctx, ownerID, kind, records.ListOptions{Filter: filter})
}
