package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// VisitorClaims represents the signed visitor cookie payload.
type VisitorClaims struct {
	VisitorID uuid.UUID `json:"visitor_id"`
	jwt.RegisteredClaims
}
