package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/synqlikk/internal/client/client"
	"github.com/dmitrijs2005/synqlikk/internal/common"
	"github.com/dmitrijs2005/synqlikk/internal/dbx"
	"github.com/dmitrijs2005/synqlikk/internal/logging"
)

// AuthService is the client side of the credential provider.
//
// Register and Login persist the new session and drop the checkpoint, so the
// next cycle is a full one for the new identity. CurrentIdentity returns nil
// when nobody is signed in. Logout forgets the session and the checkpoint but
// keeps local records.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*Session, error)
	Login(ctx context.Context, username, password string) (*Session, error)
	CurrentIdentity(ctx context.Context) (*Session, error)
	Logout(ctx context.Context) error
}

type authService struct {
	client   client.Client
	db       *sql.DB
	sessions *SessionStore
	logger   logging.Logger
}

// NewAuthService binds the API client to the local session. Tokens rotated by
// the client are written back to the stored session.
func NewAuthService(c client.Client, db *sql.DB, sessions *SessionStore, logger logging.Logger) AuthService {
	a := &authService{client: c, db: db, sessions: sessions, logger: logger.With("module", "auth")}
	c.OnTokensRefreshed(func(accessToken, refreshToken string) {
		ctx := context.Background()
		if err := sessions.UpdateTokens(ctx, db, accessToken, refreshToken); err != nil {
			a.logger.Warn(ctx, "failed to persist refreshed tokens", "error", err)
		}
	})
	return a
}

func validateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: username is required", common.ErrorValidation)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	return nil
}

func (a *authService) Register(ctx context.Context, username, password string) (*Session, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)

	creds, err := a.client.Register(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("register error: %w", err)
	}
	return a.start(ctx, username, creds)
}

func (a *authService) Login(ctx context.Context, username, password string) (*Session, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)

	creds, err := a.client.Login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}
	return a.start(ctx, username, creds)
}

func (a *authService) start(ctx context.Context, username string, creds *client.Credentials) (*Session, error) {
	sess := &Session{
		UserID:       creds.UserID,
		Username:     username,
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	}

	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := a.sessions.WriteSession(ctx, tx, sess); err != nil {
			return err
		}
		return a.sessions.ClearCheckpoint(ctx, tx)
	})
	if err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}

	a.client.SetTokens(sess.AccessToken, sess.RefreshToken)
	a.logger.Info(ctx, "signed in", "user_id", sess.UserID, "username", username)
	return sess, nil
}

// CurrentIdentity restores the stored session and hands its tokens to the
// API client.
func (a *authService) CurrentIdentity(ctx context.Context) (*Session, error) {
	sess, err := a.sessions.ReadSession(ctx, a.db)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		a.client.SetTokens("", "")
		return nil, nil
	}
	a.client.SetTokens(sess.AccessToken, sess.RefreshToken)
	return sess, nil
}

func (a *authService) Logout(ctx context.Context) error {
	if err := a.sessions.Clear(ctx, a.db); err != nil {
		return fmt.Errorf("logout error: %w", err)
	}
	a.client.SetTokens("", "")
	a.logger.Info(ctx, "signed out")
	return nil
}
