package domain

import "time"

// Account represents a registered user of the task tracker.
type Account struct {
	ID           string
	Name         string
	Email        string
	Age          int
	PasswordHash []byte
	Sessions     []Session
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is one issued bearer token, identified by the digest of the token.
type Session struct {
	AccountID   string
	TokenDigest string
	CreatedAt   time.Time
}

// SessionByDigest returns the active session whose token digest matches.
func (a *Account) SessionByDigest(digest string) (Session, bool) {
	for _, s := range a.Sessions {
		if s.TokenDigest == digest {
			return s, true
		}
	}
	return Session{}, false
}
