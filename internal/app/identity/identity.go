/*
Package identity resolves the authenticated principal for a connection or request.

It consumes an external TokenValidator (bearer token in, account claims out) and
turns the result into a Principal: the immutable identity and role attached to a
session for its whole lifetime. Authentication is a one-shot operation; any
failure maps to a coded, connection-fatal error.
*/
package identity

import (
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/errs"
)

// Roles a principal may hold. Staff privileges derive from either the admin
// role or the IsStaff account flag.
const (
	RoleAdmin    = "admin"
	RoleStaff    = "staff"
	RoleCustomer = "customer"
	RoleSeller   = "seller"
)

// Claims is the account state an external token validator resolves for a token.
type Claims struct {
	UserID   int64
	Username string
	Role     string
	IsStaff  bool
	IsActive bool
}

// TokenValidator verifies a bearer token and resolves the account it belongs to.
// Implementations are external collaborators (JWT verification, auth service).
type TokenValidator interface {
	Validate(token string) (*Claims, error)
}

// Principal is the authenticated identity resolved at handshake.
// It is immutable for the lifetime of the connection that carries it.
type Principal struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	IsStaff  bool   `json:"is_staff"`
	Role     string `json:"role"`

	privileged bool
}

// Privileged reports whether the principal holds staff or admin capability.
// Computed once at authentication and threaded through every authorization
// check instead of being re-derived ad hoc.
func (p Principal) Privileged() bool {
	return p.privileged
}

// NewPrincipal builds a Principal from validated claims.
func NewPrincipal(claims *Claims) Principal {
	return Principal{
		UserID:     claims.UserID,
		Username:   claims.Username,
		IsStaff:    claims.IsStaff,
		Role:       claims.Role,
		privileged: claims.IsStaff || claims.Role == RoleAdmin,
	}
}

// Gate authenticates bearer tokens against the external validator.
type Gate struct {
	validator TokenValidator
}

// NewGate returns a Gate backed by the given validator.
func NewGate(validator TokenValidator) *Gate {
	return &Gate{validator: validator}
}

// Authenticate verifies the supplied bearer token and resolves the Principal.
// It fails with ErrAuthMissing when no token is supplied, ErrAuthInvalid when
// the validator rejects the token, and ErrAuthInactive when the resolved
// account is disabled.
func (g *Gate) Authenticate(token string) (Principal, *errs.CustomError) {
	if token == "" {
		return Principal{}, errs.NewError(errs.ErrAuthMissing)
	}

	claims, err := g.validator.Validate(token)
	if err != nil {
		return Principal{}, errs.NewError(errs.ErrAuthInvalid)
	}

	if !claims.IsActive {
		return Principal{}, errs.NewError(errs.ErrAuthInactive)
	}

	return NewPrincipal(claims), nil
}
