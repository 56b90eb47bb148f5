// internal/utils/jwt_test.go
package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTFailsClosedWithoutSecret(t *testing.T) {
	SetJWTSecret("")
	t.Cleanup(func() { SetJWTSecret("test-secret") })

	_, err := GenerateJWT(uuid.New(), "asha", "customer", 1)
	assert.ErrorIs(t, err, ErrSecretUnset)

	_, err = GenerateRefreshToken(uuid.New(), 1)
	assert.ErrorIs(t, err, ErrSecretUnset)

	_, err = ValidateJWT("eyJhbGciOiJIUzI1NiJ9.e30.bogus")
	assert.Error(t, err)
}

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	userID := uuid.New()
	token, err := GenerateJWT(userID, "asha", "vendor", 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "asha", claims.Username)
	assert.Equal(t, "vendor", claims.Role)
}
