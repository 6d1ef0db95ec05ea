package client

import (
	"context"

	"github.com/dmitrijs2005/synqlikk/internal/models"
	pb "github.com/dmitrijs2005/synqlikk/internal/proto"
	"github.com/dmitrijs2005/synqlikk/internal/timex"
)

// Credentials are what the authority hands out on register, login and refresh.
type Credentials struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}

type Client interface {
	Close() error
	Register(ctx context.Context, username, password string) (*Credentials, error)
	Login(ctx context.Context, username, password string) (*Credentials, error)
	Ping(ctx context.Context) error
	Sync(ctx context.Context, changes models.ChangeSet, since *timex.Timestamp) (*pb.SyncResponse, error)

	// SetTokens installs the tokens used for authenticated calls; empty
	// strings drop them.
	SetTokens(accessToken, refreshToken string)
	// OnTokensRefreshed registers fn to be called after a transparent refresh.
	OnTokensRefreshed(fn func(accessToken, refreshToken string))
}
