package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/synqlikk/internal/flagx"
	"github.com/dmitrijs2005/synqlikk/internal/timex"
)

type JsonConfig struct {
	ServerEndpointAddr  string          `json:"server_endpoint_addr"`
	OnlineCheckInterval timex.Duration  `json:"online_check_interval"`
	DatabasePath        string          `json:"database_path"`
	SyncTimeout         timex.Duration  `json:"sync_timeout"`
	AutoSyncInterval    *timex.Duration `json:"auto_sync_interval"`
	LogFile             string          `json:"log_file"`
	LogLevel            string          `json:"log_level"`
}

// parseJson overlays the file named by -c/-config (or ConfigEnvVar).
// Keys absent from the file keep their current value.
func parseJson(config *Config) {
	path := flagx.JsonConfigFlags(ConfigEnvVar)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.ServerEndpointAddr, c.ServerEndpointAddr)
	setString(&config.DatabasePath, c.DatabasePath)
	setString(&config.LogFile, c.LogFile)
	setString(&config.LogLevel, c.LogLevel)

	if c.OnlineCheckInterval.Duration > 0 {
		config.OnlineCheckInterval = c.OnlineCheckInterval.Duration
	}
	if c.SyncTimeout.Duration > 0 {
		config.SyncTimeout = c.SyncTimeout.Duration
	}
	// zero turns automatic sync off
	if c.AutoSyncInterval != nil {
		config.AutoSyncInterval = c.AutoSyncInterval.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
