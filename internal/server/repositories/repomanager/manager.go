package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/synqlikk/internal/dbx"
	"github.com/dmitrijs2005/synqlikk/internal/server/repositories/conflicts"
	"github.com/dmitrijs2005/synqlikk/internal/server/repositories/records"
	"github.com/dmitrijs2005/synqlikk/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/synqlikk/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to either the pool or a
// transaction, so services decide the transaction boundaries.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Records(db dbx.DBTX) records.Repository
	Conflicts(db dbx.DBTX) conflicts.Repository
}
