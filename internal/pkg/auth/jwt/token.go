package jwt

import (
	"errors"

	"github.com/golang-jwt/jwt"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/identity"
)

// ParseToken parses and validates the JWT token string using the provided secretKey.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	return claims, nil
}

// Validator implements identity.TokenValidator by verifying HS256-signed
// bearer tokens against a shared secret.
type Validator struct {
	secretKey string
}

// NewValidator returns a Validator using the given signing secret.
func NewValidator(secretKey string) *Validator {
	return &Validator{secretKey: secretKey}
}

// Validate parses the token and maps its payload to identity claims.
func (v *Validator) Validate(tokenString string) (*identity.Claims, error) {
	payload, err := ParseToken(tokenString, v.secretKey)
	if err != nil {
		return nil, err
	}

	return &identity.Claims{
		UserID:   payload.UserID,
		Username: payload.Username,
		Role:     payload.Role,
		IsStaff:  payload.IsStaff,
		IsActive: payload.IsActive,
	}, nil
}
