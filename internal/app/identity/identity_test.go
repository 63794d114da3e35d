package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/identity"
	"github.com/NahidNoorshat/ecommerce-backend/internal/mocks"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/errs"
)

func TestAuthenticateMissingToken(t *testing.T) {
	gate := identity.NewGate(new(mocks.TokenValidatorMock))

	_, customErr := gate.Authenticate("")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrAuthMissing, customErr.Code)
	assert.Equal(t, errs.CloseAuthFailure, customErr.CloseCode)
}

func TestAuthenticateInvalidToken(t *testing.T) {
	validator := new(mocks.TokenValidatorMock)
	validator.On("Validate", "bad-token").Return(nil, assert.AnError).Once()
	gate := identity.NewGate(validator)

	_, customErr := gate.Authenticate("bad-token")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrAuthInvalid, customErr.Code)

	validator.AssertExpectations(t)
}

func TestAuthenticateInactiveUser(t *testing.T) {
	validator := new(mocks.TokenValidatorMock)
	validator.On("Validate", "token").Return(&identity.Claims{
		UserID: 1, Username: "alice", Role: identity.RoleCustomer, IsActive: false,
	}, nil).Once()
	gate := identity.NewGate(validator)

	_, customErr := gate.Authenticate("token")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrAuthInactive, customErr.Code)
}

func TestAuthenticateSuccess(t *testing.T) {
	validator := new(mocks.TokenValidatorMock)
	validator.On("Validate", "token").Return(&identity.Claims{
		UserID: 7, Username: "alice", Role: identity.RoleCustomer, IsActive: true,
	}, nil).Once()
	gate := identity.NewGate(validator)

	principal, customErr := gate.Authenticate("token")
	require.Nil(t, customErr)
	assert.Equal(t, int64(7), principal.UserID)
	assert.Equal(t, "alice", principal.Username)
	assert.False(t, principal.Privileged())
}

func TestPrivilegedComputation(t *testing.T) {
	cases := []struct {
		name       string
		role       string
		isStaff    bool
		privileged bool
	}{
		{"customer", identity.RoleCustomer, false, false},
		{"seller", identity.RoleSeller, false, false},
		{"staff flag", identity.RoleCustomer, true, true},
		{"staff role", identity.RoleStaff, true, true},
		{"admin role", identity.RoleAdmin, false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			principal := identity.NewPrincipal(&identity.Claims{
				UserID: 1, Role: tc.role, IsStaff: tc.isStaff, IsActive: true,
			})
			assert.Equal(t, tc.privileged, principal.Privileged())
		})
	}
}
