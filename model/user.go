package model

import "time"

// User is an account record in the local user file. PasswordHash is a
// bcrypt hash, never the plaintext password.
type User struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}
