package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/rxauth/internal/common"
	"github.com/dmitrijs2005/rxauth/internal/cryptox"
	"github.com/dmitrijs2005/rxauth/internal/logging"
	"github.com/dmitrijs2005/rxauth/internal/server/metrics"
	"github.com/dmitrijs2005/rxauth/internal/server/models"
	"github.com/dmitrijs2005/rxauth/internal/server/repositories/repomanager"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

// RegisterInput is a practitioner self-registration request.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// normalize trims name and email and lower-cases the email. The password is
// taken as typed.
func (in RegisterInput) normalize() RegisterInput {
	return RegisterInput{
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Password: in.Password,
	}
}

func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.Email, validation.Required),
		validation.Field(&in.Password, validation.Required),
	)
}

type lengthChecker interface {
	CheckLength(password string) error
}

// Provisioner creates a DOCTOR account together with its practitioner
// profile.
type Provisioner struct {
	repomanager repomanager.RepositoryManager
	hasher      cryptox.PasswordHasher
	logger      logging.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
	newID       func() string
}

func NewProvisioner(m repomanager.RepositoryManager, h cryptox.PasswordHasher, logger logging.Logger, mt *metrics.Metrics) *Provisioner {
	return &Provisioner{
		repomanager: m,
		hasher:      h,
		logger:      logger.With("component", "provisioner"),
		metrics:     mt,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Register validates in, hashes the password and stores the account and
// its trialing profile in one atomic unit.
//
// Errors: common.ErrInvalidInput or common.ErrPasswordTooLong for bad
// input, common.ErrDuplicateAccount when the email is taken (including a
// concurrent registration winning the race), common.ErrorInternal otherwise.
func (p *Provisioner) Register(ctx context.Context, in RegisterInput) (*models.Registration, error) {
	in = in.normalize()

	if err := in.Validate(); err != nil {
		p.metrics.Registration(metrics.OutcomeInvalid)
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	if lc, ok := p.hasher.(lengthChecker); ok {
		if err := lc.CheckLength(in.Password); err != nil {
			p.metrics.Registration(metrics.OutcomeInvalid)
			return nil, err
		}
	}

	// Fast path only; the unique index decides races.
	_, err := p.repomanager.Accounts().GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		p.metrics.Registration(metrics.OutcomeDuplicate)
		return nil, common.ErrDuplicateAccount
	case !errors.Is(err, common.ErrorNotFound):
		return nil, p.internal(ctx, "account lookup failed", err)
	}

	digest, err := p.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, common.ErrPasswordTooLong) {
			p.metrics.Registration(metrics.OutcomeInvalid)
			return nil, err
		}
		return nil, p.internal(ctx, "password hashing failed", err)
	}

	createdAt := p.now().UTC().Truncate(time.Microsecond)
	acc := &models.Account{
		ID:           p.newID(),
		Email:        in.Email,
		PasswordHash: &digest,
		Role:         models.RoleDoctor,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	profile := &models.PractitionerProfile{
		ID:                 p.newID(),
		AccountID:          acc.ID,
		Name:               in.Name,
		SubscriptionStatus: models.SubscriptionTrialing,
		TrialEndsAt:        models.TrialEndsAt(createdAt),
		CreatedAt:          createdAt,
	}

	err = p.repomanager.RunAtomic(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		if err := repos.Accounts.Create(ctx, acc); err != nil {
			return err
		}
		return repos.Profiles.Create(ctx, profile)
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			p.metrics.Registration(metrics.OutcomeDuplicate)
			return nil, common.ErrDuplicateAccount
		}
		return nil, p.internal(ctx, "storing registration failed", err)
	}

	p.logger.Info(ctx, "practitioner registered", "account_id", acc.ID)
	p.metrics.Registration(metrics.OutcomeSuccess)

	return &models.Registration{Account: acc.View(), Profile: *profile}, nil
}

func (p *Provisioner) internal(ctx context.Context, msg string, err error) error {
	p.logger.Error(ctx, msg, "error", err)
	p.metrics.Registration(metrics.OutcomeError)
	return common.ErrorInternal
}
