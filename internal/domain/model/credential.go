package model

import "time"

// TokenKey is the reserved store key holding the bearer token of the most
// recent login. Usernames are never allowed to collide with it.
const TokenKey = "token"

// Credentials is a username/password pair as typed by the technician.
type Credentials struct {
	Username string
	Password string
}

// Credential describes one record in the secure store. Value is deliberately
// absent: listing the store never exposes secrets.
type Credential struct {
	ID        int64
	Key       string
	UpdatedAt time.Time
}

// LoginForm holds the in-memory login fields of a controller. A failed login
// clears both fields.
type LoginForm struct {
	Username string
	Password string
	// Save requests opt-in password persistence after a successful login.
	Save bool
}

// Clear resets the username and password fields.
func (f *LoginForm) Clear() {
	f.Username = ""
	f.Password = ""
}

// Credentials returns the form contents as a Credentials value.
func (f *LoginForm) Credentials() Credentials {
	return Credentials{Username: f.Username, Password: f.Password}
}
