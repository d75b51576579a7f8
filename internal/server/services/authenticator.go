// Package services contains the rxauth business logic: credential
// authentication, practitioner provisioning and profile lookup.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/rxauth/internal/common"
	"github.com/dmitrijs2005/rxauth/internal/cryptox"
	"github.com/dmitrijs2005/rxauth/internal/logging"
	"github.com/dmitrijs2005/rxauth/internal/server/metrics"
	"github.com/dmitrijs2005/rxauth/internal/server/models"
	"github.com/dmitrijs2005/rxauth/internal/server/repositories/repomanager"
)

// dummyPassword is hashed once at startup. Its digest is verified whenever
// no real digest exists so that every rejection costs one verification.
const dummyPassword = "rxauth-timing-equalizer"

// Authenticator checks an email and password pair against stored accounts.
type Authenticator struct {
	repomanager repomanager.RepositoryManager
	hasher      cryptox.PasswordHasher
	logger      logging.Logger
	metrics     *metrics.Metrics
	dummyDigest string
}

func NewAuthenticator(m repomanager.RepositoryManager, h cryptox.PasswordHasher, logger logging.Logger, mt *metrics.Metrics) (*Authenticator, error) {
	digest, err := h.Hash(dummyPassword)
	if err != nil {
		return nil, err
	}
	return &Authenticator{
		repomanager: m,
		hasher:      h,
		logger:      logger.With("component", "authenticator"),
		metrics:     mt,
		dummyDigest: digest,
	}, nil
}

// Authenticate returns the identity of the account owning email when
// password matches its stored digest.
//
// Unknown email, an account without a password and a wrong password all
// yield common.ErrInvalidCredentials. Empty input yields
// common.ErrMissingCredentials before storage is touched.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		a.metrics.Login(metrics.OutcomeInvalid)
		return nil, common.ErrMissingCredentials
	}

	acc, err := a.repomanager.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			a.burnVerification(password)
			return nil, a.reject(ctx, "unknown_email", email)
		}
		a.logger.Error(ctx, "account lookup failed", "error", err)
		a.metrics.Login(metrics.OutcomeError)
		return nil, common.ErrorInternal
	}

	if !acc.HasPassword() {
		a.burnVerification(password)
		return nil, a.reject(ctx, "no_password", email)
	}

	ok, err := a.hasher.Verify(password, *acc.PasswordHash)
	if err != nil {
		a.logger.Error(ctx, "stored password digest is unusable", "account_id", acc.ID, "error", err)
		a.metrics.Login(metrics.OutcomeError)
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, a.reject(ctx, "wrong_password", email)
	}

	a.metrics.Login(metrics.OutcomeSuccess)
	id := acc.Identity()
	return &id, nil
}

func (a *Authenticator) burnVerification(password string) {
	_, _ = a.hasher.Verify(password, a.dummyDigest)
}

// reject logs the reason at debug level only; the caller always sees the
// same error.
func (a *Authenticator) reject(ctx context.Context, reason, email string) error {
	a.logger.Debug(ctx, "login rejected", "reason", reason, "email", logging.MaskEmail(email))
	a.metrics.Login(metrics.OutcomeRejected)
	return common.ErrInvalidCredentials
}
