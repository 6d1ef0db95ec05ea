package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/synqlikk/internal/client/client"
	"github.com/dmitrijs2005/synqlikk/internal/client/repositories/records"
	"github.com/dmitrijs2005/synqlikk/internal/common"
	"github.com/dmitrijs2005/synqlikk/internal/conflict"
	"github.com/dmitrijs2005/synqlikk/internal/dbx"
	"github.com/dmitrijs2005/synqlikk/internal/logging"
	"github.com/dmitrijs2005/synqlikk/internal/models"
	pb "github.com/dmitrijs2005/synqlikk/internal/proto"
	"github.com/dmitrijs2005/synqlikk/internal/timex"
)

// DefaultSyncTimeout bounds the exchange with the authority.
const DefaultSyncTimeout = 10 * time.Second

var ErrSyncInProgress = errors.New("sync already in progress")

type State int32

const (
	StateIdle State = iota
	StateExtracting
	StateExchanging
	StateApplying
	StateFinalizing
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExtracting:
		return "extracting"
	case StateExchanging:
		return "exchanging"
	case StateApplying:
		return "applying"
	case StateFinalizing:
		return "finalizing"
	case StateAborted:
		return "aborted"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

type Mode int

const (
	// ModeIncremental pushes dirty records and pulls changes since the checkpoint.
	ModeIncremental Mode = iota
	// ModeForceFull pushes nothing and pulls everything.
	ModeForceFull
)

func (m Mode) String() string {
	if m == ModeForceFull {
		return "force_full"
	}
	return "incremental"
}

type Trigger string

const (
	TriggerManual   Trigger = "manual"
	TriggerLogin    Trigger = "login"
	TriggerRegister Trigger = "register"
	TriggerShutdown Trigger = "shutdown"
	TriggerSchedule Trigger = "schedule"
)

// Report summarizes one completed cycle.
type Report struct {
	Mode       Mode
	Trigger    Trigger
	Pushed     int
	Applied    int
	Skipped    int
	Conflicts  int
	Purged     int64
	Checkpoint timex.Timestamp
	Duration   time.Duration
}

// AbortError is returned when a cycle stops before committing. State is where
// it failed; nothing local was changed.
type AbortError struct {
	State State
	Cause error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("sync aborted while %s: %v", e.State, e.Cause)
}

func (e *AbortError) Unwrap() error { return e.Cause }

// Exchanger performs the single round trip with the authority.
type Exchanger interface {
	Sync(ctx context.Context, changes models.ChangeSet, since *timex.Timestamp) (*pb.SyncResponse, error)
}

// SyncService is the sync coordinator. It runs at most one cycle at a time:
// extract dirty records and the checkpoint in one read, exchange them with
// the authority, then apply the response, confirm pushed versions, purge
// synced tombstones and advance the checkpoint in one write transaction.
// A force_full cycle also drops synced rows the authority no longer has.
type SyncService struct {
	db        *sql.DB
	exchanger Exchanger
	sessions  *SessionStore
	extractor *Extractor
	timeout   time.Duration
	logger    logging.Logger

	running sync.Mutex
	state   atomic.Int32
}

func NewSyncService(db *sql.DB, ex Exchanger, sessions *SessionStore, timeout time.Duration, logger logging.Logger) *SyncService {
	if timeout <= 0 {
		timeout = DefaultSyncTimeout
	}
	return &SyncService{
		db:        db,
		exchanger: ex,
		sessions:  sessions,
		extractor: NewExtractor(),
		timeout:   timeout,
		logger:    logger.With("module", "sync"),
	}
}

func (s *SyncService) State() State {
	return State(s.state.Load())
}

func (s *SyncService) setState(st State) {
	s.state.Store(int32(st))
}

func (s *SyncService) abort(ctx context.Context, st State, report *Report, err error) error {
	s.setState(StateAborted)
	s.logger.Warn(ctx, "sync aborted",
		"state", st.String(), "mode", report.Mode.String(), "trigger", string(report.Trigger), "error", err)
	s.setState(StateIdle)
	return &AbortError{State: st, Cause: err}
}

// Run executes one cycle. A concurrent call returns ErrSyncInProgress
// immediately. When the authority refuses an incremental checkpoint the
// cycle is repeated as force_full under the same lock.
func (s *SyncService) Run(ctx context.Context, mode Mode, trigger Trigger) (*Report, error) {
	if !s.running.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer s.running.Unlock()

	report, err := s.cycle(ctx, mode, trigger)
	if mode == ModeIncremental && errors.Is(err, client.ErrResyncRequired) {
		s.logger.Warn(ctx, "checkpoint rejected by server, running full resync", "trigger", string(trigger))
		return s.cycle(ctx, ModeForceFull, trigger)
	}
	return report, err
}

func (s *SyncService) cycle(ctx context.Context, mode Mode, trigger Trigger) (*Report, error) {
	start := time.Now()
	report := &Report{Mode: mode, Trigger: trigger}
	s.logger.Info(ctx, "sync started", "mode", mode.String(), "trigger", string(trigger))

	s.setState(StateExtracting)
	var (
		ownerID string
		since   *timex.Timestamp
		changes = models.ChangeSet{}
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		sess, err := s.sessions.ReadSession(ctx, tx)
		if err != nil {
			return err
		}
		if sess == nil {
			return ErrNotAuthenticated
		}
		ownerID = sess.UserID

		if mode == ModeForceFull {
			return nil
		}
		if since, err = s.sessions.ReadCheckpoint(ctx, tx); err != nil {
			return err
		}
		changes, err = s.extractor.Collect(ctx, tx, ownerID)
		return err
	})
	if err != nil {
		return nil, s.abort(ctx, StateExtracting, report, err)
	}
	report.Pushed = changes.Len()

	s.setState(StateExchanging)
	exCtx, cancel := context.WithTimeout(ctx, s.timeout)
	resp, err := s.exchanger.Sync(exCtx, changes, since)
	cancel()
	if err == nil && resp == nil {
		err = errors.New("empty response")
	}
	if err != nil {
		return nil, s.abort(ctx, StateExchanging, report, err)
	}

	s.setState(StateApplying)
	failedAt := StateApplying
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := records.NewSQLiteRepository(tx)

		incoming := resp.Changes()
		for _, kind := range models.Kinds {
			for _, r := range incoming[kind] {
				if err := s.apply(ctx, repo, ownerID, r, report); err != nil {
					return err
				}
			}
		}

		conflicted := map[models.Kind]map[string]bool{}
		for _, r := range resp.Conflicts {
			if r == nil {
				continue
			}
			report.Conflicts++
			if conflicted[r.Kind] == nil {
				conflicted[r.Kind] = map[string]bool{}
			}
			conflicted[r.Kind][r.ID] = true
			if err := s.apply(ctx, repo, ownerID, r, report); err != nil {
				return err
			}
		}

		s.setState(StateFinalizing)
		failedAt = StateFinalizing

		for kind, versions := range changes.Versions() {
			confirmed := make([]models.Version, 0, len(versions))
			for _, v := range versions {
				if !conflicted[kind][v.ID] {
					confirmed = append(confirmed, v)
				}
			}
			if _, err := repo.MarkSynced(ctx, ownerID, kind, confirmed); err != nil {
				return err
			}
		}

		purged, err := repo.PurgeDeleted(ctx, ownerID)
		if err != nil {
			return err
		}
		report.Purged = purged

		// A full response is the owner's whole dataset, so a synced row
		// missing from it was removed on the server (e.g. an archived
		// tombstone). Dirty rows still have to be pushed.
		if mode == ModeForceFull {
			for _, kind := range models.Kinds {
				present := make(map[string]struct{}, len(incoming[kind]))
				for _, r := range incoming[kind] {
					present[r.ID] = struct{}{}
				}
				for id := range conflicted[kind] {
					present[id] = struct{}{}
				}
				n, err := repo.PurgeAbsent(ctx, ownerID, kind, present)
				if err != nil {
					return err
				}
				report.Purged += n
			}
		}

		return s.sessions.WriteCheckpoint(ctx, tx, resp.ServerTime)
	})
	if err != nil {
		return nil, s.abort(ctx, failedAt, report, err)
	}

	report.Checkpoint = resp.ServerTime
	report.Duration = time.Since(start)
	s.setState(StateIdle)

	s.logger.Info(ctx, "sync completed",
		"mode", mode.String(),
		"trigger", string(trigger),
		"pushed", report.Pushed,
		"applied", report.Applied,
		"skipped", report.Skipped,
		"conflicts", report.Conflicts,
		"purged", report.Purged,
		"checkpoint", report.Checkpoint.String(),
		"duration", report.Duration,
	)
	return report, nil
}

// apply resolves one authority record against the local copy. Records of
// other owners or malformed ones are skipped; a local copy that is strictly
// newer wins and stays dirty for the next cycle.
func (s *SyncService) apply(ctx context.Context, repo records.Repository, ownerID string, r *models.Record, report *Report) error {
	if r.OwnerID != ownerID {
		report.Skipped++
		s.logger.Warn(ctx, "skipping record of another owner", "kind", r.Kind, "id", r.ID)
		return nil
	}
	if err := r.Validate(); err != nil {
		report.Skipped++
		s.logger.Warn(ctx, "skipping malformed record", "error", err)
		return nil
	}

	existing, err := repo.Get(ctx, ownerID, r.Kind, r.ID)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	d := conflict.Resolve(r, existing)
	if !d.Accepted() {
		report.Skipped++
		s.logger.Debug(ctx, "local copy is newer, keeping it",
			"kind", r.Kind, "id", r.ID, "local", existing.LastModified.String(), "remote", r.LastModified.String())
		return nil
	}
	if d.DivergentTie(r) && !existing.Synced {
		s.logger.Warn(ctx, "unsynced local edit replaced by a different edit with the same timestamp",
			"kind", r.Kind, "id", r.ID, "last_modified", r.LastModified.String())
	}

	r.Synced = true
	if err := repo.Upsert(ctx, r); err != nil {
		return err
	}
	report.Applied++
	return nil
}
