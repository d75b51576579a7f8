// Package models defines the server-side records handled by rxauth and the
// sanitized views that are allowed to leave the core.
package models

import "time"

// Role tags an account. It is fixed at creation.
type Role string

const (
	RoleDoctor  Role = "DOCTOR"
	RoleAdmin   Role = "ADMIN"
	RolePatient Role = "PATIENT"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDoctor, RoleAdmin, RolePatient:
		return true
	}
	return false
}

// Account is the stored identity record.
//
// PasswordHash is nil for accounts created through a non-credential path;
// such accounts can never authenticate with a password.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash *string   `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasPassword reports whether the account carries a local password hash.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

// Identity returns the password-free view used after authentication.
func (a *Account) Identity() Identity {
	return Identity{ID: a.ID, Email: a.Email, Role: a.Role}
}

// View returns the password-free view used in registration responses.
func (a *Account) View() AccountView {
	return AccountView{ID: a.ID, Email: a.Email, Role: a.Role, CreatedAt: a.CreatedAt}
}

// Identity is the sanitized account passed on after a successful
// authentication.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// AccountView is the sanitized account returned by registration.
type AccountView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
