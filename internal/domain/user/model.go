package user

import "time"

// UnknownName is stored when the identity provider supplies no name.
const UnknownName = "Unknown"

// User is a signed-in participant.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity is what the identity provider tells us about a user.
type Identity struct {
	Name  string
	Email string
}

// Session is a server-side login. Only the token hash is persisted.
type Session struct {
	TokenHash string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
