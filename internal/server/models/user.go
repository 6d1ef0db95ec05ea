// Package models holds authority-only entities: accounts, refresh tokens
// and the conflict audit log.
package models

import "time"

type User struct {
	ID           string
	Username     string
	PasswordHash []byte
	Salt         []byte
	CreatedAt    time.Time
}
