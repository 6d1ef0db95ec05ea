package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/synqlikk/internal/flagx"
	"github.com/dmitrijs2005/synqlikk/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations accept "90s" or
// integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC             string          `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string          `json:"database_dsn"`
	SecretKey                    string          `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration  `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration  `json:"refresh_token_validity_duration"`
	S3RootUser                   string          `json:"s3_root_user"`
	S3RootPassword               string          `json:"s3_root_password"`
	S3Bucket                     string          `json:"s3_bucket"`
	S3Region                     string          `json:"s3_region"`
	S3BaseEndpoint               string          `json:"s3_base_endpoint"`
	TombstoneRetention           *timex.Duration `json:"tombstone_retention"`
	ArchiveInterval              timex.Duration  `json:"archive_interval"`
	LogLevel                     string          `json:"log_level"`
}

// parseJson overlays the file named by -c/-config (or ConfigEnvVar).
// Keys absent from the file keep their current value. An unreadable or
// malformed file panics.
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

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.ArchiveInterval.Duration > 0 {
		config.ArchiveInterval = c.ArchiveInterval.Duration
	}
	// zero is meaningful here: it turns archiving off
	if c.TombstoneRetention != nil {
		config.TombstoneRetention = c.TombstoneRetention.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
