// Package model defines the data structures shared across layers.
package model

import "time"

// User is a registered account.
//
// PasswordHash is the opaque verified credential; it is empty for accounts
// that only ever signed in through GitHub, and is never serialised.
type User struct {
	ID           int64     `json:"id"        db:"id"`
	Email        string    `json:"email"     db:"email"`
	Name         string    `json:"name"      db:"name"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	GitHubID     *int64    `json:"-"         db:"github_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
