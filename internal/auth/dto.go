package auth

import (
	"github.com/nmorales-dev/storefront-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest contains the payload for creating a new shopper account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// SessionResponse contains the token and user produced by login or register.
type SessionResponse struct {
	Token string         `json:"token"`
	User  *users.UserDTO `json:"user"`
}
