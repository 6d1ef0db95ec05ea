package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/synqlikk/internal/common"
	"github.com/dmitrijs2005/synqlikk/internal/conflict"
	"github.com/dmitrijs2005/synqlikk/internal/dbx"
	"github.com/dmitrijs2005/synqlikk/internal/logging"
	"github.com/dmitrijs2005/synqlikk/internal/models"
	sm "github.com/dmitrijs2005/synqlikk/internal/server/models"
	"github.com/dmitrijs2005/synqlikk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/synqlikk/internal/timex"
)

// SyncInput is one client push plus the client's checkpoint.
type SyncInput struct {
	Changes models.ChangeSet
	Since   *timex.Timestamp
}

// SyncResult is what the client must apply. Changes excludes the client's
// own accepted writes; Conflicts holds the stored versions that beat a push.
type SyncResult struct {
	Changes    models.ChangeSet
	Conflicts  []*models.Record
	ServerTime timex.Timestamp
	Accepted   int
	Skipped    int
}

type SyncService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	retention   time.Duration
	logger      logging.Logger
}

// NewSyncService builds the sync service. retention is how long tombstones
// stay in the database before archiving; zero means they are never removed.
func NewSyncService(db *sql.DB, m repomanager.RepositoryManager, retention time.Duration, logger logging.Logger) *SyncService {
	return &SyncService{db: db, repomanager: m, retention: retention, logger: logger.With("module", "sync")}
}

type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeConflict
	outcomeSkipped
)

// Sync reconciles every pushed record, each in its own transaction, then
// returns the owner's changes since in.Since. A malformed push is refused
// as a whole with common.ErrorValidation before anything is written, and a
// checkpoint older than the tombstone retention with
// common.ErrCheckpointExpired.
func (s *SyncService) Sync(ctx context.Context, ownerID string, in SyncInput) (*SyncResult, error) {
	if err := s.validate(ownerID, in.Changes); err != nil {
		return nil, err
	}

	serverTime, err := s.repomanager.Records(s.db).ServerTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("error reading server time: %w", err)
	}
	if s.expired(in.Since, serverTime) {
		s.logger.Info(ctx, "checkpoint older than tombstone retention, full resync required",
			"user_id", ownerID, "since", in.Since, "server_time", serverTime)
		return nil, common.ErrCheckpointExpired
	}

	res := &SyncResult{Changes: models.ChangeSet{}, ServerTime: serverTime}
	accepted := map[string]*models.Record{}
	conflicted := map[string]struct{}{}

	for _, kind := range models.Kinds {
		for _, rec := range in.Changes[kind] {
			out, existing, err := s.reconcile(ctx, ownerID, rec)
			if err != nil {
				return nil, fmt.Errorf("error applying %s %s: %w", kind, rec.ID, err)
			}
			switch out {
			case outcomeAccepted:
				accepted[recordKey(kind, rec.ID)] = rec
				res.Accepted++
			case outcomeConflict:
				res.Conflicts = append(res.Conflicts, existing)
				conflicted[recordKey(existing.Kind, existing.ID)] = struct{}{}
			case outcomeSkipped:
				res.Skipped++
			}
		}
	}

	for _, kind := range models.Kinds {
		changed, err := s.repomanager.Records(s.db).ListChangedSince(ctx, ownerID, kind, in.Since)
		if err != nil {
			return nil, fmt.Errorf("error listing %s changes: %w", kind, err)
		}
		for _, rec := range changed {
			key := recordKey(kind, rec.ID)
			if _, ok := conflicted[key]; ok {
				continue
			}
			if pushed, ok := accepted[key]; ok && isEcho(pushed, rec) {
				continue
			}
			res.Changes.Add(rec)
		}
	}

	s.logger.Info(ctx, "sync served",
		"user_id", ownerID,
		"pushed", in.Changes.Len(),
		"accepted", res.Accepted,
		"conflicts", len(res.Conflicts),
		"skipped", res.Skipped,
		"returned", res.Changes.Len(),
		"full", in.Since == nil,
	)
	return res, nil
}

// expired reports whether archiving may have removed tombstones the client
// has not seen yet.
func (s *SyncService) expired(since *timex.Timestamp, now timex.Timestamp) bool {
	if since == nil || s.retention <= 0 {
		return false
	}
	return since.Before(now.Add(-s.retention))
}

func (s *SyncService) validate(ownerID string, cs models.ChangeSet) error {
	for kind, recs := range cs {
		for _, rec := range recs {
			if rec.Kind != kind {
				return fmt.Errorf("%w: record %s sent as %s", common.ErrorValidation, rec.ID, kind)
			}
			if rec.OwnerID == "" {
				rec.OwnerID = ownerID
			}
			if rec.OwnerID != ownerID {
				return fmt.Errorf("%w: record %s belongs to another user", common.ErrorValidation, rec.ID)
			}
			if err := rec.Validate(); err != nil {
				return fmt.Errorf("%w: %v", common.ErrorValidation, err)
			}
		}
	}
	return nil
}

// reconcile applies one record under a row lock. The returned record is the
// stored version when the push lost.
func (s *SyncService) reconcile(ctx context.Context, ownerID string, rec *models.Record) (outcome, *models.Record, error) {
	var (
		out      outcome
		existing *models.Record
	)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Records(tx)

		current, err := repo.GetForUpdate(ctx, ownerID, rec.Kind, rec.ID)
		if err != nil {
			return err
		}

		d := conflict.Resolve(rec, current)
		if d.DivergentTie(rec) {
			s.logger.Warn(ctx, "equal timestamps with different content, incoming wins",
				"user_id", ownerID, "kind", rec.Kind, "id", rec.ID, "last_modified", rec.LastModified)
		}
		if !d.Accepted() {
			out, existing = outcomeConflict, d.Existing
			return s.logConflict(ctx, tx, rec, d.Existing)
		}

		err = repo.Upsert(ctx, rec)
		if err == nil {
			out = outcomeAccepted
			return nil
		}
		if !errors.Is(err, common.ErrVersionConflict) {
			return err
		}

		// Lost a race to a first insert, or the id belongs to someone else.
		current, err = repo.GetForUpdate(ctx, ownerID, rec.Kind, rec.ID)
		if err != nil {
			return err
		}
		if current == nil {
			s.logger.Warn(ctx, "record id owned by another user, push skipped",
				"user_id", ownerID, "kind", rec.Kind, "id", rec.ID)
			out = outcomeSkipped
			return nil
		}
		out, existing = outcomeConflict, current
		return s.logConflict(ctx, tx, rec, current)
	})
	if err != nil {
		return 0, nil, err
	}
	return out, existing, nil
}

func (s *SyncService) logConflict(ctx context.Context, tx dbx.DBTX, incoming, existing *models.Record) error {
	s.logger.Debug(ctx, "push rejected, stored version is newer",
		"user_id", incoming.OwnerID, "kind", incoming.Kind, "id", incoming.ID,
		"incoming", incoming.LastModified, "existing", existing.LastModified)

	return s.repomanager.Conflicts(tx).Create(ctx, &sm.Conflict{
		OwnerID:              incoming.OwnerID,
		Kind:                 incoming.Kind,
		RecordID:             incoming.ID,
		IncomingLastModified: incoming.LastModified,
		ExistingLastModified: existing.LastModified,
	})
}

// recordKey identifies a record across kinds; ids are only unique per table.
func recordKey(kind models.Kind, id string) string {
	return string(kind) + "/" + id
}

// isEcho reports whether stored is exactly what the client just pushed.
func isEcho(pushed, stored *models.Record) bool {
	return pushed.LastModified.Equal(stored.LastModified) && pushed.SameContent(stored)
}
