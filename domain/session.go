package domain

import "time"

// Session is a login issued to a user. The signed bearer token references it
// by id so that revoking the session invalidates the token.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserAgent string    `json:"user_agent,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// IssuedSession is returned to the client on login and refresh.
type IssuedSession struct {
	Session
	Token string `json:"token"`
}
