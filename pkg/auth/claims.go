package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/neumaticos/tirestore/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Email  string
	Role   enums.UserRole
	// JTI ties the token to its refresh session; one is generated when empty.
	JTI string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Email  string         `json:"email,omitempty"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
