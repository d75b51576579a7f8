package accounts

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
	CodeAccountExists = "ACCOUNT_EXISTS"
	CodeAccountLookup = "ACCOUNT_LOOKUP_FAILED"
	CodeAccountInsert = "ACCOUNT_INSERT_FAILED"
)

type PostgresRepository struct {
	db dbx.DBTX
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, acc *models.Account) error {
	query :=
		`INSERT INTO accounts (id, email, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 `

	var hash sql.NullString
	if acc.PasswordHash != nil {
		hash = sql.NullString{String: *acc.PasswordHash, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		acc.ID, acc.Email, hash, string(acc.Role), acc.CreatedAt, acc.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return oops.Code(CodeAccountExists).With("account_id", acc.ID).Wrap(common.ErrorAlreadyExists)
		}
		return oops.Code(CodeAccountInsert).With("account_id", acc.ID).Wrap(err)
	}

	return nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query :=
		`SELECT id, email, password_hash, role, created_at, updated_at FROM accounts
		 WHERE lower(email) = lower($1)
		 `

	acc := &models.Account{}
	var hash sql.NullString
	var role string

	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&acc.ID, &acc.Email, &hash, &role, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, oops.Code(CodeAccountLookup).Wrap(err)
	}

	if hash.Valid {
		acc.PasswordHash = &hash.String
	}
	acc.Role = models.Role(role)

	return acc, nil
}
