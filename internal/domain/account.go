package domain

import "time"

// Role enumerates caller roles. There is no implicit default: an unrecognized
// role token is an authentication failure, never a role assignment.
type Role string

const (
	RoleUser     Role = "user"
	RoleEngineer Role = "engineer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleEngineer, RoleAdmin:
		return true
	}
	return false
}

// Account is the identity record for users, engineers and admins. Promotion
// from user to engineer is keyed on email; there is no demotion path.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
