package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/synqlikk/internal/buildinfo"
	"github.com/dmitrijs2005/synqlikk/internal/client/cli"
	"github.com/dmitrijs2005/synqlikk/internal/client/config"
	"github.com/dmitrijs2005/synqlikk/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger, logFile, err := logging.NewFile(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		logFile.Close()
		os.Exit(1)
	}

	app.Run(ctx)
}
