package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ilift/ilift-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintVisitorToken issues a signed token binding the cookie to a visitor id.
func MintVisitorToken(cfg config.VisitorConfig, now time.Time, visitorID uuid.UUID) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("visitor secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("visitor issuer is required")
	}
	if cfg.TTL <= 0 {
		return "", fmt.Errorf("visitor ttl must be positive")
	}
	if visitorID == uuid.Nil {
		return "", fmt.Errorf("visitor id is required")
	}

	claims := VisitorClaims{
		VisitorID: visitorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   visitorID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing visitor token: %w", err)
	}
	return signed, nil
}

// ParseVisitorToken validates the cookie value and returns typed claims.
func ParseVisitorToken(cfg config.VisitorConfig, tokenString string) (*VisitorClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("visitor secret is required")
	}

	claims := &VisitorClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}
	if claims.VisitorID == uuid.Nil {
		return nil, fmt.Errorf("visitor id missing from token")
	}
	return claims, nil
}
