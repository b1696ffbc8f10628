package models

import "time"

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // don’t expose hash
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
