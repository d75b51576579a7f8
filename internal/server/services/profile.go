package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/rxauth/internal/common"
	"github.com/dmitrijs2005/rxauth/internal/logging"
	"github.com/dmitrijs2005/rxauth/internal/server/models"
	"github.com/dmitrijs2005/rxauth/internal/server/repositories/repomanager"
)

// ProfileService reads the practitioner profile of an authenticated account.
type ProfileService struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewProfileService(m repomanager.RepositoryManager, logger logging.Logger) *ProfileService {
	return &ProfileService{repomanager: m, logger: logger.With("component", "profiles")}
}

// GetByAccount returns common.ErrorNotFound for accounts without a profile.
func (s *ProfileService) GetByAccount(ctx context.Context, accountID string) (*models.PractitionerProfile, error) {
	p, err := s.repomanager.Profiles().GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "profile lookup failed", "account_id", accountID, "error", err)
		return nil, common.ErrorInternal
	}
	return p, nil
}
