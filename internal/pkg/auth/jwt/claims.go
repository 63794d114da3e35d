package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the structure of the JWT claims this service verifies.
// Tokens are minted by the external auth service; this package only parses
// and validates them.
type Payload struct {
	// StandardClaims embeds the JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer), used for token validity checks.
	jwt.StandardClaims

	// UserID is the numeric account identifier of the token holder.
	UserID int64 `json:"user_id"`

	// Username is the display name of the account.
	Username string `json:"username"`

	// Role is the account role ("admin", "staff", "customer", "seller").
	Role string `json:"role"`

	// IsStaff mirrors the account's staff flag independent of Role.
	IsStaff bool `json:"is_staff"`

	// IsActive reports whether the account is enabled. Disabled accounts are
	// rejected even when the token signature is valid.
	IsActive bool `json:"is_active"`
}
