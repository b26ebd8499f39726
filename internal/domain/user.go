package domain

import "time"

// User is a person who can belong to one or more companies.
type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// DisplayName prefers the name and falls back to the email.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
