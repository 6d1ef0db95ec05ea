// Package common contains shared constants and sentinel errors used across
// the SynQlikk client and server.
package common

const (
	// AuthorizationHeaderName is the gRPC metadata key carrying the bearer token.
	AuthorizationHeaderName = "authorization"

	// BearerPrefix precedes the access token in the authorization header.
	BearerPrefix = "Bearer "
)
