package model

import "time"

// User is an owner persisted with its credentials.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// OwnerID implements Owner.
func (u *User) OwnerID() string {
	return u.ID
}
