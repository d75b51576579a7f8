// Package accounts stores login identities.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/rxauth/internal/server/models"
)

// Repository persists accounts. Email comparison is case-insensitive and
// uniqueness is enforced by the store itself.
type Repository interface {
	// Create inserts acc. A second account with the same email (ignoring
	// case) fails with common.ErrorAlreadyExists.
	Create(ctx context.Context, acc *models.Account) error
	// GetByEmail returns common.ErrorNotFound when no account matches.
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
}
