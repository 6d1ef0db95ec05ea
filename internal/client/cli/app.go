package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/synqlikk/internal/client/client"
	"github.com/dmitrijs2005/synqlikk/internal/client/config"
	"github.com/dmitrijs2005/synqlikk/internal/client/services"
	"github.com/dmitrijs2005/synqlikk/internal/logging"
	"github.com/dmitrijs2005/synqlikk/internal/timex"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// syncRunner is the part of the sync coordinator the CLI drives.
type syncRunner interface {
	Run(ctx context.Context, mode services.Mode, trigger services.Trigger) (*services.Report, error)
	State() services.State
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	client  client.Client
	auth    services.AuthService
	records services.RecordService
	syncer  syncRunner
	reader  *bufio.Reader
	out     io.Writer
	closers []io.Closer

	mu       sync.RWMutex
	session  *services.Session
	mode     Mode
	lastSync timex.Timestamp
}

// NewApp opens the local store, connects the API client and restores the
// previous session, if any.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("database init error: %w", err)
	}

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("api client error: %w", err)
	}

	sessions := services.NewSessionStore(logger)

	a := &App{
		config:  c,
		logger:  logger.With("module", "cli"),
		client:  apiClient,
		auth:    services.NewAuthService(apiClient, db, sessions, logger),
		records: services.NewRecordService(db, sessions, logger),
		syncer:  services.NewSyncService(db, apiClient, sessions, c.SyncTimeout, logger),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		closers: []io.Closer{apiClient, db},
		mode:    ModeOffline,
	}

	sess, err := a.auth.CurrentIdentity(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("session restore error: %w", err)
	}
	a.setSession(sess)

	return a, nil
}

func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn(context.Background(), "close error", "error", err)
		}
	}
	a.closers = nil
}

// Run blocks in the REPL until the user exits or a termination signal
// arrives, then runs a shutdown sync and releases resources.
func (a *App) Run(ctx context.Context) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.Close()

	fmt.Fprintln(a.out, "Welcome to synqlikk (type 'help' for commands)")
	a.checkOnline(ctx)

	watchCtx, cancelWatch := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.watch(watchCtx)
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		runREPL(ctx, a, a.status, a.reader)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		fmt.Fprintln(a.out)
	}

	cancelWatch()
	wg.Wait()

	a.shutdownSync(context.WithoutCancel(ctx))
}

func (a *App) shutdownSync(ctx context.Context) {
	if !a.isLoggedIn() {
		return
	}
	if a.currentMode() != ModeOnline {
		a.logger.Info(ctx, "skipping shutdown sync while offline")
		return
	}
	if _, err := a.runSync(ctx, services.ModeIncremental, services.TriggerShutdown); err != nil {
		fmt.Fprintln(a.out, "Shutdown sync failed, changes stay local:", err)
	}
}

func (a *App) setSession(s *services.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = s
}

func (a *App) currentSession() *services.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

func (a *App) isLoggedIn() bool {
	return a.currentSession() != nil
}

func (a *App) currentMode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

// setMode reports whether the mode changed.
func (a *App) setMode(mode Mode) bool {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
	return changed
}

func (a *App) status() string {
	s := string(a.currentMode())
	if sess := a.currentSession(); sess != nil {
		s = sess.Username + " " + s
	}
	return fmt.Sprintf("(%s)", s)
}

// runSync runs one cycle and keeps the connectivity mode in step with
// its outcome.
func (a *App) runSync(ctx context.Context, mode services.Mode, trigger services.Trigger) (*services.Report, error) {
	report, err := a.syncer.Run(ctx, mode, trigger)
	switch {
	case err == nil:
		a.setMode(ModeOnline)
		a.mu.Lock()
		a.lastSync = report.Checkpoint
		a.mu.Unlock()
		return report, nil
	case errors.Is(err, client.ErrUnavailable):
		a.setMode(ModeOffline)
	case errors.Is(err, services.ErrSyncInProgress):
		a.logger.Debug(ctx, "sync skipped", "trigger", string(trigger))
	}
	return nil, err
}

func (a *App) lastSyncTime() timex.Timestamp {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastSync
}

const pingTimeout = 3 * time.Second
