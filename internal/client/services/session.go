// Package services contains the client application services: the session
// and checkpoint store, authentication, local record editing, change
// extraction and the sync coordinator.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/synqlikk/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/synqlikk/internal/dbx"
	"github.com/dmitrijs2005/synqlikk/internal/logging"
	"github.com/dmitrijs2005/synqlikk/internal/timex"
)

const (
	sessionKey    = "session"
	checkpointKey = "last_sync_time"
)

// Session is the signed-in identity persisted in the metadata table.
type Session struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SessionStore reads and writes the session and the sync checkpoint. Every
// method takes the handle to run on so callers can group them in a
// transaction. Unreadable values are reported as absent.
type SessionStore struct {
	logger logging.Logger
}

func NewSessionStore(logger logging.Logger) *SessionStore {
	return &SessionStore{logger: logger.With("module", "session")}
}

func (s *SessionStore) repo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (s *SessionStore) ReadSession(ctx context.Context, db dbx.DBTX) (*Session, error) {
	raw, err := s.repo(db).Get(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		s.logger.Warn(ctx, "stored session is unreadable, treating as signed out", "error", err)
		return nil, nil
	}
	if sess.UserID == "" || sess.AccessToken == "" {
		s.logger.Warn(ctx, "stored session is incomplete, treating as signed out")
		return nil, nil
	}
	return &sess, nil
}

func (s *SessionStore) WriteSession(ctx context.Context, db dbx.DBTX, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.repo(db).Set(ctx, sessionKey, raw)
}

// UpdateTokens swaps the tokens of the stored session, if any.
func (s *SessionStore) UpdateTokens(ctx context.Context, db dbx.DBTX, accessToken, refreshToken string) error {
	sess, err := s.ReadSession(ctx, db)
	if err != nil || sess == nil {
		return err
	}
	sess.AccessToken = accessToken
	sess.RefreshToken = refreshToken
	return s.WriteSession(ctx, db, sess)
}

// ReadCheckpoint returns nil when the client has never completed a sync.
func (s *SessionStore) ReadCheckpoint(ctx context.Context, db dbx.DBTX) (*timex.Timestamp, error) {
	raw, err := s.repo(db).Get(ctx, checkpointKey)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	ts, err := timex.Parse(string(raw))
	if err != nil || ts.IsZero() {
		s.logger.Warn(ctx, "stored checkpoint is unreadable, next sync will be full", "value", string(raw))
		return nil, nil
	}
	return &ts, nil
}

func (s *SessionStore) WriteCheckpoint(ctx context.Context, db dbx.DBTX, ts timex.Timestamp) error {
	if ts.IsZero() {
		return errors.New("refusing to store an empty checkpoint")
	}
	return s.repo(db).Set(ctx, checkpointKey, []byte(ts.String()))
}

// ClearCheckpoint makes the next sync a full one.
func (s *SessionStore) ClearCheckpoint(ctx context.Context, db dbx.DBTX) error {
	return s.repo(db).Delete(ctx, checkpointKey)
}

// Clear drops the session and the checkpoint.
func (s *SessionStore) Clear(ctx context.Context, db dbx.DBTX) error {
	return s.repo(db).Delete(ctx, sessionKey, checkpointKey)
}
