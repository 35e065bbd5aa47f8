package domain

import (
	"strings"
	"time"
)

type User struct {
	ID        string    `json:"id" bson:"_id"`
	FullName  string    `json:"fullname" bson:"fullname"`
	Email     string    `json:"email" bson:"email"`
	Password  string    `json:"-" bson:"password"` // bcrypt hash, never sent to clients
	CreatedAt time.Time `json:"createdOn" bson:"created_on"`
}

type RegisterRequest struct {
	FullName string `json:"fullname" validate:"required"`
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"accessToken"`
}

type LoginResponse struct {
	Email       string `json:"email"`
	AccessToken string `json:"accessToken"`
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
