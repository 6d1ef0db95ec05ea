package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-a", "127.0.0.1:9090", "-i", "10", "-f", "/data/c.db", "-w", "5", "-y", "30", "-o", "/var/log/c.log", "-l", "debug"},
			expected: &Config{
				ServerEndpointAddr:  "127.0.0.1:9090",
				OnlineCheckInterval: 10 * time.Second,
				DatabasePath:        "/data/c.db",
				SyncTimeout:         5 * time.Second,
				AutoSyncInterval:    30 * time.Second,
				LogFile:             "/var/log/c.log",
				LogLevel:            "debug",
			},
		},
		{
			name: "unknown flags are ignored",
			args: []string{"cmd", "-config", "x.json", "-a", "h:1", "-z", "1"},
			expected: &Config{
				ServerEndpointAddr: "h:1",
			},
		},
		{name: "incorrect check interval", args: []string{"cmd", "-a", "127.0.0.1:9090", "-i", "abc"}, expectPanic: true},
		{name: "incorrect auto sync interval", args: []string{"cmd", "-y", "soon"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
