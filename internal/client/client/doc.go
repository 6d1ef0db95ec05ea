// Package client contains the client-side building blocks that talk to the
// outside world.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface) for the
//     authority: Register, Login, Ping and Sync.
//  2. A gRPC implementation (see GRPCClient) that injects the bearer token
//     via an interceptor, transparently refreshes an expired token once and
//     maps gRPC status codes to sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) that opens
//     the SQLite file and applies the embedded goose migrations.
//
// # Error Handling
//
// Transport and auth failures surface as sentinel errors matched with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrAlreadyExists and
// ErrInvalidInput.
//
// GRPCClient is safe for concurrent use. All calls honor context
// cancellation and deadlines.
package client
