// Package config loads runtime configuration for the synqlikk client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file named by -c, -config or SYNQLIKK_CLIENT_CONFIG.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the authority gRPC endpoint
//	-i int      online status check interval (seconds)
//	-f string   path to the local SQLite database
//	-w int      sync exchange timeout (seconds)
//	-y int      automatic sync interval (seconds, 0 disables)
//	-o string   log file path
//	-l string   log level
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "database_path": "~/.synqlikk/client.db",
//	  "sync_timeout": "10s",
//	  "auto_sync_interval": "1m",
//	  "log_file": "~/.synqlikk/client.log",
//	  "log_level": "info"
//	}
package config
