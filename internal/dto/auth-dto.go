package dto

import "github.com/google/uuid"

type AuthResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Iat    float64   `json:"iat"`
	Expiry float64   `json:"expiry"`
}
