package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/synqlikk/internal/flagx"
)

var flagNames = []string{"-a", "-i", "-f", "-w", "-y", "-o", "-l"}

// parseFlags overlays command-line flags on config and panics on
// malformed values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], flagNames)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ServerEndpointAddr, "a", config.ServerEndpointAddr, "address and port of the sync server")
	onlineCheck := fs.Int("i", int(config.OnlineCheckInterval.Seconds()), "online status check interval (in seconds)")
	fs.StringVar(&config.DatabasePath, "f", config.DatabasePath, "local database file")
	syncTimeout := fs.Int("w", int(config.SyncTimeout.Seconds()), "sync exchange timeout (in seconds)")
	autoSync := fs.Int("y", int(config.AutoSyncInterval.Seconds()), "automatic sync interval (in seconds, 0 disables)")
	fs.StringVar(&config.LogFile, "o", config.LogFile, "log file")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.OnlineCheckInterval = time.Duration(*onlineCheck) * time.Second
	config.SyncTimeout = time.Duration(*syncTimeout) * time.Second
	config.AutoSyncInterval = time.Duration(*autoSync) * time.Second
}
