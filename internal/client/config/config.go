package config

import (
	"os"
	"path/filepath"
	"time"
)

// ConfigEnvVar names a JSON config file when -c/-config is absent.
const ConfigEnvVar = "SYNQLIKK_CLIENT_CONFIG"

// Config holds client settings. AutoSyncInterval of zero leaves
// synchronization to explicit commands, login and shutdown.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	DatabasePath        string
	SyncTimeout         time.Duration
	AutoSyncInterval    time.Duration
	LogFile             string
	LogLevel            string
}

func (c *Config) LoadDefaults() {
	dir := dataDir()

	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabasePath = filepath.Join(dir, "client.db")
	c.SyncTimeout = 10 * time.Second
	c.AutoSyncInterval = time.Minute
	c.LogFile = filepath.Join(dir, "client.log")
	c.LogLevel = "info"
}

// dataDir is ~/.synqlikk, or a relative .synqlikk when the home
// directory is unknown.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".synqlikk"
	}
	return filepath.Join(home, ".synqlikk")
}

func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
