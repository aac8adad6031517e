package models

import "time"

type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Fullname     string     `json:"fullname"`
	PasswordHash string     `json:"-"`
	IsAdmin      bool       `json:"is_admin"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"-"`
}
