package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/synqlikk/internal/client/client"
	"github.com/dmitrijs2005/synqlikk/internal/client/repositories/records"
	"github.com/dmitrijs2005/synqlikk/internal/conflict"
	"github.com/dmitrijs2005/synqlikk/internal/logging"
	"github.com/dmitrijs2005/synqlikk/internal/models"
	pb "github.com/dmitrijs2005/synqlikk/internal/proto"
	"github.com/dmitrijs2005/synqlikk/internal/timex"
	"github.com/stretchr/testify/require"
)

const (
	userID  = "7d1c0c52-1111-4a6b-9c1e-0a0b0c0d0e01"
	otherID = "7d1c0c52-2222-4a6b-9c1e-0a0b0c0d0e02"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func signIn(t *testing.T, db *sql.DB, id string) *SessionStore {
	t.Helper()
	store := NewSessionStore(logging.Nop())
	require.NoError(t, store.WriteSession(context.Background(), db,
		&Session{UserID: id, Username: "alice", AccessToken: "A", RefreshToken: "R"}))
	return store
}

// localRows returns every row of the owner, tombstones included.
func localRows(t *testing.T, db *sql.DB, ownerID string) map[string]*models.Record {
	t.Helper()
	out := map[string]*models.Record{}
	repo := records.NewSQLiteRepository(db)
	for _, kind := range models.Kinds {
		rs, err := repo.List(context.Background(), ownerID, kind, records.ListOptions{IncludeDeleted: true})
		require.NoError(t, err)
		for _, r := range rs {
			out[r.ID] = r
		}
	}
	return out
}

// fakeClient implements client.Client for AuthService tests.
type fakeClient struct {
	client.Client

	creds       *client.Credentials
	registerErr error
	loginErr    error

	lastUser     string
	lastPassword string

	access, refresh string
	onRefresh       func(string, string)
}

func (f *fakeClient) Register(ctx context.Context, username, password string) (*client.Credentials, error) {
	f.lastUser, f.lastPassword = username, password
	return f.creds, f.registerErr
}

func (f *fakeClient) Login(ctx context.Context, username, password string) (*client.Credentials, error) {
	f.lastUser, f.lastPassword = username, password
	return f.creds, f.loginErr
}

func (f *fakeClient) SetTokens(access, refresh string) {
	f.access, f.refresh = access, refresh
}

func (f *fakeClient) OnTokensRefreshed(fn func(string, string)) {
	f.onRefresh = fn
}

type exchangeFunc func(ctx context.Context, changes models.ChangeSet, since *timex.Timestamp) (*pb.SyncResponse, error)

func (f exchangeFunc) Sync(ctx context.Context, changes models.ChangeSet, since *timex.Timestamp) (*pb.SyncResponse, error) {
	return f(ctx, changes, since)
}

type storedRecord struct {
	rec      *models.Record
	modified timex.Timestamp
}

// fakeAuthority reconciles pushes with the same last-write-wins rules as
// the real server and keeps its own clock for server_modified.
type fakeAuthority struct {
	mu    sync.Mutex
	store map[string]*storedRecord
	clock timex.Timestamp

	err       error
	onSync    func()
	calls     int
	lastPush  models.ChangeSet
	lastSince *timex.Timestamp

	// expireBefore refuses checkpoints older than it, as after archiving.
	expireBefore *timex.Timestamp
}

func newFakeAuthority() *fakeAuthority {
	return &fakeAuthority{
		store: map[string]*storedRecord{},
		clock: timex.Now().Add(time.Hour),
	}
}

// put stores r as if another device had pushed it.
func (a *fakeAuthority) put(r *models.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c := r.Clone()
	c.Synced = true
	a.store[r.ID] = &storedRecord{rec: c, modified: a.clock}
	a.clock = a.clock.Add(time.Second)
}

// archive drops a row entirely, the way the tombstone archiver does.
func (a *fakeAuthority) archive(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.store, id)
}

func (a *fakeAuthority) get(id string) *models.Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.store[id]; ok {
		return s.rec.Clone()
	}
	return nil
}

func (a *fakeAuthority) Sync(ctx context.Context, changes models.ChangeSet, since *timex.Timestamp) (*pb.SyncResponse, error) {
	if a.onSync != nil {
		a.onSync()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.calls++
	a.lastPush = changes
	a.lastSince = since
	if a.err != nil {
		return nil, a.err
	}
	if since != nil && a.expireBefore != nil && since.Before(*a.expireBefore) {
		return nil, client.ErrResyncRequired
	}

	now := a.clock
	a.clock = a.clock.Add(time.Second)

	resp := &pb.SyncResponse{Conflicts: []*models.Record{}, ServerTime: now}
	accepted := map[string]timex.Timestamp{}
	conflicted := map[string]bool{}

	for _, rs := range changes {
		for _, r := range rs {
			var existing *models.Record
			if s, ok := a.store[r.ID]; ok {
				if s.rec.OwnerID != r.OwnerID {
					continue
				}
				existing = s.rec
			}
			d := conflict.Resolve(r, existing)
			if !d.Accepted() {
				resp.Conflicts = append(resp.Conflicts, existing.Clone())
				conflicted[r.ID] = true
				continue
			}
			c := r.Clone()
			c.Synced = true
			a.store[r.ID] = &storedRecord{rec: c, modified: now}
			accepted[r.ID] = r.LastModified
		}
	}

	out := models.ChangeSet{}
	for id, s := range a.store {
		if s.rec.OwnerID != userID || conflicted[id] {
			continue
		}
		if since != nil && s.modified.Before(*since) {
			continue
		}
		if lm, ok := accepted[id]; ok && lm.Equal(s.rec.LastModified) {
			continue
		}
		out.Add(s.rec.Clone())
	}
	resp.SetChanges(out)
	return resp, nil
}
