package profiles

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/rxauth/internal/common"
	"github.com/dmitrijs2005/rxauth/internal/dbx"
	"github.com/dmitrijs2005/rxauth/internal/server/models"
	"github.com/samber/oops"
)

const (
	CodeProfileExists = "PROFILE_EXISTS"
	CodeProfileLookup = "PROFILE_LOOKUP_FAILED"
	CodeProfileInsert = "PROFILE_INSERT_FAILED"
)

type PostgresRepository struct {
	db dbx.DBTX
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.PractitionerProfile) error {
	query :=
		`INSERT INTO practitioner_profiles (id, account_id, name, subscription_status, trial_ends_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 `

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.AccountID, p.Name, string(p.SubscriptionStatus), p.TrialEndsAt, p.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return oops.Code(CodeProfileExists).With("account_id", p.AccountID).Wrap(common.ErrorAlreadyExists)
		}
		return oops.Code(CodeProfileInsert).With("account_id", p.AccountID).Wrap(err)
	}

	return nil
}

func (r *PostgresRepository) GetByAccountID(ctx context.Context, accountID string) (*models.PractitionerProfile, error) {
	query :=
		`SELECT id, account_id, name, subscription_status, trial_ends_at, created_at FROM practitioner_profiles
		 WHERE account_id = $1
		 `

	p := &models.PractitionerProfile{}
	var status string

	err := r.db.QueryRowContext(ctx, query, accountID).
		Scan(&p.ID, &p.AccountID, &p.Name, &status, &p.TrialEndsAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, oops.Code(CodeProfileLookup).With("account_id", accountID).Wrap(err)
	}
	p.SubscriptionStatus = models.SubscriptionStatus(status)

	return p, nil
}
