// Package server wires the authority together: PostgreSQL, migrations,
// services, the gRPC endpoint and the tombstone archiver.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/synqlikk/internal/logging"
	"github.com/dmitrijs2005/synqlikk/internal/server/config"
	gs "github.com/dmitrijs2005/synqlikk/internal/server/grpc"
	"github.com/dmitrijs2005/synqlikk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/synqlikk/internal/server/services"
	"golang.org/x/sync/errgroup"
)

var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}

	newRepositoryManager = func() repomanager.RepositoryManager {
		return repomanager.NewPostgresRepositoryManager()
	}
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	server  *gs.GRPCServer
	archive *services.ArchiveService
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	db, err := openDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	us := services.NewUserService(db, rm, cfg, logger)
	var retention time.Duration
	if cfg.ArchiveEnabled() {
		retention = cfg.TombstoneRetention
	}
	ss := services.NewSyncService(db, rm, retention, logger)

	return &App{
		config:  cfg,
		logger:  logger,
		db:      db,
		server:  gs.NewGRPCServer(cfg.EndpointAddrGRPC, logger, us, ss, cfg.SecretKey),
		archive: services.NewArchiveService(db, rm, cfg, logger),
	}, nil
}

// Run serves until ctx is cancelled, a termination signal arrives or a
// component fails. The first failure stops the others.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.server.Run(ctx) })
	g.Go(func() error { return app.archive.Run(ctx) })

	err := g.Wait()
	if cerr := app.db.Close(); cerr != nil {
		app.logger.Warn(context.Background(), "db close error", "error", cerr)
	}
	app.logger.Info(context.Background(), "App stopped")
	return err
}
