package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/synqlikk/internal/client/client"
	"github.com/dmitrijs2005/synqlikk/internal/client/config"
	"github.com/dmitrijs2005/synqlikk/internal/client/services"
	"github.com/dmitrijs2005/synqlikk/internal/logging"
	"github.com/dmitrijs2005/synqlikk/internal/timex"
	"github.com/stretchr/testify/require"
)

const testUserID = "0b7e6c1a-3f55-4d43-9a70-5d2f2e1f0a01"

type fakeClient struct {
	client.Client

	mu      sync.Mutex
	pingErr error
	pings   int
}

func (f *fakeClient) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeClient) setPingErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pingErr = err
}

type fakeAuth struct {
	services.AuthService

	session   *services.Session
	err       error
	logouts   int
	lastUser  string
	lastPass  string
	registers int
}

func (f *fakeAuth) Register(_ context.Context, username, password string) (*services.Session, error) {
	f.registers++
	f.lastUser, f.lastPass = username, password
	return f.session, f.err
}

func (f *fakeAuth) Login(_ context.Context, username, password string) (*services.Session, error) {
	f.lastUser, f.lastPass = username, password
	return f.session, f.err
}

func (f *fakeAuth) Logout(context.Context) error {
	f.logouts++
	return f.err
}

type syncCall struct {
	Mode    services.Mode
	Trigger services.Trigger
}

type fakeSyncer struct {
	mu    sync.Mutex
	calls []syncCall
	err   error
}

func (f *fakeSyncer) Run(_ context.Context, mode services.Mode, trigger services.Trigger) (*services.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, syncCall{Mode: mode, Trigger: trigger})
	if f.err != nil {
		return nil, f.err
	}
	return &services.Report{Mode: mode, Trigger: trigger, Pushed: 1, Applied: 2, Checkpoint: timex.Now()}, nil
}

func (f *fakeSyncer) State() services.State { return services.StateIdle }

func (f *fakeSyncer) Calls() []syncCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]syncCall(nil), f.calls...)
}

type testEnv struct {
	app    *App
	out    *bytes.Buffer
	client *fakeClient
	auth   *fakeAuth
	syncer *fakeSyncer
}

// newTestApp builds an App over a real SQLite store with a signed-in user
// and scripted stdin.
func newTestApp(t *testing.T, input string) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := client.InitDatabase(ctx, filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sess := &services.Session{UserID: testUserID, Username: "alice", AccessToken: "A", RefreshToken: "R"}
	sessions := services.NewSessionStore(logging.Nop())
	require.NoError(t, sessions.WriteSession(ctx, db, sess))

	env := &testEnv{
		out:    &bytes.Buffer{},
		client: &fakeClient{},
		auth:   &fakeAuth{session: sess},
		syncer: &fakeSyncer{},
	}
	env.app = &App{
		config:  &config.Config{},
		logger:  logging.Nop(),
		client:  env.client,
		auth:    env.auth,
		records: services.NewRecordService(db, sessions, logging.Nop()),
		syncer:  env.syncer,
		reader:  rdr(input),
		out:     env.out,
		mode:    ModeOffline,
		session: sess,
	}
	return env
}
