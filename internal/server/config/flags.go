package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/synqlikk/internal/flagx"
)

var flagNames = []string{"-a", "-d", "-s", "-t", "-r", "-u", "-p", "-b", "-g", "-e", "-k", "-n", "-l"}

// parseFlags overlays command-line flags on config.
//
//	-a  gRPC bind address
//	-d  PostgreSQL DSN
//	-s  JWT secret key
//	-t  access token validity, minutes
//	-r  refresh token validity, minutes
//	-u  -p  S3 credentials
//	-b  -g  -e  S3 bucket, region and base endpoint
//	-k  tombstone retention, hours (0 disables archiving)
//	-n  archive interval, minutes
//	-l  log level
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], flagNames)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshTokenValidity := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 archive bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	retention := fs.Int("k", int(config.TombstoneRetention.Hours()), "tombstone retention (in hours, 0 disables archiving)")
	archiveInterval := fs.Int("n", int(config.ArchiveInterval.Minutes()), "archive interval (in minutes)")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidity) * time.Minute
	config.TombstoneRetention = time.Duration(*retention) * time.Hour
	config.ArchiveInterval = time.Duration(*archiveInterval) * time.Minute
}
