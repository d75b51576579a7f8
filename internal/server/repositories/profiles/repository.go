// Package profiles stores practitioner profiles, one per DOCTOR account.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/rxauth/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.PractitionerProfile) error
	// GetByAccountID returns common.ErrorNotFound when the account owns no
	// profile.
	GetByAccountID(ctx context.Context, accountID string) (*models.PractitionerProfile, error)
}
