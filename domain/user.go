package domain

import (
	"strings"
	"time"
)

// User represents an authenticated identity in the platform.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u != nil && u.Status == "active"
}

// Summary returns the fields that may be shown to other users.
func (u *User) Summary() UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (u *User) Validate() error {
	if u == nil || u.ID == "" {
		return ErrInvalidPayload
	}
	if strings.TrimSpace(u.Name) == "" {
		return Invalid("name", "must not be empty")
	}
	if u.Email != "" && !strings.Contains(u.Email, "@") {
		return Invalid("email", "must be an email address")
	}
	return nil
}

// UserSummary is the public profile of a user.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}
