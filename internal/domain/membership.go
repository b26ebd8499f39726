package domain

import (
	"fmt"
	"time"
)

// Role is a user's role inside one company.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleMember  Role = "MEMBER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMember:
		return true
	}
	return false
}

// ParseRole validates a raw role.
func ParseRole(raw string) (Role, error) {
	r := Role(raw)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return r, nil
}

// Membership binds a user to a company. Unique per (UserID, CompanyID).
type Membership struct {
	ID        string
	UserID    string
	CompanyID string
	Role      Role
	CreatedAt time.Time
}

// Member is a membership joined with its user.
type Member struct {
	Membership
	User User
}
