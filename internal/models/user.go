package models

import "time"

type User struct {
	ID           string    `json:"userId"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is what a verified credential says about a connection. It is
// established once, at authentication, and never updated from message
// payloads afterwards.
type Identity struct {
	UserID string `json:"userId"`
	Sender string `json:"sender"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
