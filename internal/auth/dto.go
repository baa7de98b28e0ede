package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
)

// RegisterInput carries a new account request.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// LoginInput carries a credential check.
type LoginInput struct {
	Email    string
	Password string
}

// UserView is the public shape of an account.
type UserView struct {
	ID    uuid.UUID      `json:"id"`
	Email string         `json:"email"`
	Name  string         `json:"name"`
	Role  enums.UserRole `json:"role"`
}

// Session is returned after a successful register or login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserView  `json:"user"`
}
