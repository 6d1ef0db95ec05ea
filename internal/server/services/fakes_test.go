package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/synqlikk/internal/common"
	"github.com/dmitrijs2005/synqlikk/internal/dbx"
	"github.com/dmitrijs2005/synqlikk/internal/models"
	sm "github.com/dmitrijs2005/synqlikk/internal/server/models"
	"github.com/dmitrijs2005/synqlikk/internal/server/repositories/conflicts"
	"github.com/dmitrijs2005/synqlikk/internal/server/repositories/records"
	"github.com/dmitrijs2005/synqlikk/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/synqlikk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/synqlikk/internal/server/repositories/users"
	"github.com/dmitrijs2005/synqlikk/internal/timex"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// -------- users / tokens --------

type fakeUsersRepo struct {
	users.Repository
	createOut *sm.User
	createErr error
	created   *sm.User

	getOut *sm.User
	getErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *sm.User) (*sm.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = u
	return f.createOut, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*sm.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakeRefreshRepo struct {
	refreshtokens.Repository
	findOut *sm.RefreshToken
	findErr error

	delErr     error
	expiredErr error
	createErr  error

	created []*sm.RefreshToken
	deleted []string
}

func (f *fakeRefreshRepo) Create(ctx context.Context, token *sm.RefreshToken) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, token)
	return nil
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*sm.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, token)
	return nil
}

func (f *fakeRefreshRepo) DeleteExpired(ctx context.Context, userID string) (int64, error) {
	return 0, f.expiredErr
}

// -------- records --------

type storedRecord struct {
	rec            *models.Record
	serverModified timex.Timestamp
}

// memRecords mimics the PostgreSQL repository: owner-scoped reads and the
// compare-and-swap guard on last_modified.
type memRecords struct {
	mu    sync.Mutex
	rows  map[string]*storedRecord
	clock timex.Timestamp

	getErr    error
	upsertErr error
	listErr   error
	deleteErr error

	// beforeUpsert runs once, inside Upsert, to simulate a racing writer.
	beforeUpsert func(m *memRecords)
}

func newMemRecords(start string) *memRecords {
	ts, err := timex.Parse(start)
	if err != nil {
		panic(err)
	}
	return &memRecords{rows: map[string]*storedRecord{}, clock: ts}
}

func (m *memRecords) tick() timex.Timestamp {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

// put stores r as if another device pushed it.
func (m *memRecords) put(r *models.Record) {
	m.rows[recordKey(r.Kind, r.ID)] = &storedRecord{rec: r.Clone(), serverModified: m.tick()}
}

func (m *memRecords) GetForUpdate(ctx context.Context, ownerID string, kind models.Kind, id string) (*models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	row, ok := m.rows[recordKey(kind, id)]
	if !ok || row.rec.OwnerID != ownerID || row.rec.Kind != kind {
		return nil, nil
	}
	c := row.rec.Clone()
	c.Synced = true
	return c, nil
}

func (m *memRecords) Upsert(ctx context.Context, r *models.Record) error {
	if hook := m.beforeUpsert; hook != nil {
		m.beforeUpsert = nil
		hook(m)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if row, ok := m.rows[recordKey(r.Kind, r.ID)]; ok {
		if row.rec.OwnerID != r.OwnerID || row.rec.LastModified.After(r.LastModified) {
			return common.ErrVersionConflict
		}
	}
	m.rows[recordKey(r.Kind, r.ID)] = &storedRecord{rec: r.Clone(), serverModified: m.tick()}
	return nil
}

func (m *memRecords) ListChangedSince(ctx context.Context, ownerID string, kind models.Kind, since *timex.Timestamp) ([]*models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.Record
	for _, row := range m.sorted() {
		if row.rec.OwnerID != ownerID || row.rec.Kind != kind {
			continue
		}
		if since != nil && row.serverModified.Before(*since) {
			continue
		}
		c := row.rec.Clone()
		c.Synced = true
		out = append(out, c)
	}
	return out, nil
}

func (m *memRecords) ServerTime(ctx context.Context) (timex.Timestamp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clock, nil
}

func (m *memRecords) ListTombstones(ctx context.Context, kind models.Kind, olderThan time.Time, limit int) ([]*models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.Record
	for _, row := range m.sorted() {
		if row.rec.Kind == kind && row.rec.IsDeleted && row.serverModified.Time().Before(olderThan) && len(out) < limit {
			out = append(out, row.rec.Clone())
		}
	}
	return out, nil
}

func (m *memRecords) DeleteTombstones(ctx context.Context, kind models.Kind, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	var n int64
	for _, id := range ids {
		if row, ok := m.rows[recordKey(kind, id)]; ok && row.rec.IsDeleted {
			delete(m.rows, recordKey(kind, id))
			n++
		}
	}
	return n, nil
}

func (m *memRecords) sorted() []*storedRecord {
	out := make([]*storedRecord, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].serverModified.Compare(out[j].serverModified); c != 0 {
			return c < 0
		}
		return out[i].rec.ID < out[j].rec.ID
	})
	return out
}

type fakeConflicts struct {
	conflicts.Repository
	created   []*sm.Conflict
	createErr error
}

func (f *fakeConflicts) Create(ctx context.Context, c *sm.Conflict) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, c)
	return nil
}

// -------- manager --------

type fakeRepoManager struct {
	repomanager.RepositoryManager
	u *fakeUsersRepo
	r *fakeRefreshRepo
	d *memRecords
	c *fakeConflicts
}

func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.r }
func (m *fakeRepoManager) Records(dbx.DBTX) records.Repository             { return m.d }
func (m *fakeRepoManager) Conflicts(dbx.DBTX) conflicts.Repository         { return m.c }
