// Package refreshtokens persists the opaque refresh tokens issued at login.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/synqlikk/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, token *models.RefreshToken) error

	// Find returns common.ErrorNotFound when the token is unknown.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete consumes a token. Returns common.ErrorNotFound when another
	// caller already consumed it.
	Delete(ctx context.Context, token string) error

	// DeleteExpired drops the user's tokens that expired before now.
	DeleteExpired(ctx context.Context, userID string) (int64, error)
}
