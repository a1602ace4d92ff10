package model

import "time"

// User represents a registered account, keyed by phone number.
type User struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Phone          string `json:"phone"`
	HashedPassword string `json:"hashedPassword,omitempty"`
	TOSAgreement   bool   `json:"tosAgreement"`
}

// Sanitized returns a copy of the user with the password digest removed.
// Everything that leaves the server boundary must go through this.
func (u User) Sanitized() User {
	u.HashedPassword = ""
	return u
}

// Token is a short-lived capability binding a random identifier to a
// phone number and an absolute expiry time.
type Token struct {
	ID      string    `json:"id"`
	Phone   string    `json:"phone"`
	Expires time.Time `json:"expires"`
}

// Valid reports whether the token has not expired at the given instant.
func (t Token) Valid(now time.Time) bool {
	return t.Expires.After(now)
}
