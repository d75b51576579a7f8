// Package auth issues and verifies the signed session tokens handed to
// practitioners after a successful login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/rxauth/internal/common"
	"github.com/dmitrijs2005/rxauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultIssuer is the iss claim written into every token.
const DefaultIssuer = "rxauth"

// Claims carries the registered claims plus the role. The email and the
// password digest are never part of a token.
type Claims struct {
	jwt.RegisteredClaims
	Role models.Role `json:"role"`
}

// SessionView is what a verified token tells the caller. The role is the
// one captured at issuance and stays stale until a new token is issued.
type SessionView struct {
	ID        string      `json:"id"`
	Role      models.Role `json:"role"`
	IssuedAt  time.Time   `json:"issuedAt"`
	ExpiresAt time.Time   `json:"expires"`
}

// TokenIssuer signs HS256 tokens with a process-wide secret.
type TokenIssuer struct {
	secret   []byte
	lifetime time.Duration
	issuer   string
	now      func() time.Time
}

func NewTokenIssuer(secret []byte, lifetime time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:   secret,
		lifetime: lifetime,
		issuer:   DefaultIssuer,
		now:      time.Now,
	}
}

// Lifetime returns the validity of issued tokens.
func (i *TokenIssuer) Lifetime() time.Duration {
	return i.lifetime
}

// Issue returns a signed token for id and its expiry instant.
func (i *TokenIssuer) Issue(id models.Identity) (string, time.Time, error) {
	if id.ID == "" {
		return "", time.Time{}, errors.New("cannot issue token without account id")
	}

	issuedAt := i.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(i.lifetime)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Role: id.Role,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Hydrate verifies token and returns the session it describes. An expired
// token yields common.ErrTokenExpired; every other failure yields
// common.ErrInvalidToken.
func (i *TokenIssuer) Hydrate(token string) (*SessionView, error) {
	if token == "" {
		return nil, common.ErrInvalidToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, common.ErrInvalidToken
	}

	view := &SessionView{
		ID:        claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		view.IssuedAt = claims.IssuedAt.Time.UTC()
	}

	return view, nil
}
