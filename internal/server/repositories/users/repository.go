// Package users persists accounts in PostgreSQL.
package users

import (
	"context"

	"github.com/dmitrijs2005/synqlikk/internal/server/models"
)

// Repository stores accounts. Usernames are unique; Create reports a taken
// one as common.ErrorAlreadyExists and GetByUsername a missing one as
// common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
