// Package repomanager vends the account and profile repositories and runs
// multi-repository writes atomically.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/rxauth/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/rxauth/internal/server/repositories/profiles"
)

// Repositories groups the repositories bound to one unit of work.
type Repositories struct {
	Accounts accounts.Repository
	Profiles profiles.Repository
}

type RepositoryManager interface {
	// Accounts and Profiles return repositories outside of any transaction.
	Accounts() accounts.Repository
	Profiles() profiles.Repository

	// RunAtomic runs fn with repositories bound to a single unit of work.
	// Either every write made through them becomes visible or none does.
	// fn must only use the repositories it is given.
	RunAtomic(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error

	RunMigrations(ctx context.Context) error
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
	Close() error
}
