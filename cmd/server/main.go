package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/synqlikk/internal/buildinfo"
	"github.com/dmitrijs2005/synqlikk/internal/logging"
	"github.com/dmitrijs2005/synqlikk/internal/server"
	"github.com/dmitrijs2005/synqlikk/internal/server/config"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.New(os.Stdout, "json", cfg.LogLevel)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "server stopped with error", "error", err)
		os.Exit(1)
	}
}
