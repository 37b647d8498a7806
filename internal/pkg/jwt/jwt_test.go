package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlab-hq/labops-backend-go/internal/domain/user"
)

const testSecret = "test-secret-key-for-jwt"

func TestValidateSession_RoundTrip(t *testing.T) {
	svc := NewJWTService(testSecret, "1h")

	token, _, err := svc.GenerateAccessToken("user-1", "jo@lab.test", user.RoleStudent)
	require.NoError(t, err)

	userID, role, err := svc.ValidateSession(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, user.RoleStudent, role)
}

func TestValidateSession_WrongSecret(t *testing.T) {
	issuer := NewJWTService(testSecret, "1h")
	verifier := NewJWTService("another-secret-entirely", "1h")

	token, _, err := issuer.GenerateAccessToken("user-1", "jo@lab.test", user.RoleProfessor)
	require.NoError(t, err)

	_, _, err = verifier.ValidateSession(token)
	assert.Error(t, err)
}

func TestValidateSession_ExpiredToken(t *testing.T) {
	svc := NewJWTService(testSecret, "-2m")

	token, _, err := svc.GenerateAccessToken("user-1", "jo@lab.test", user.RoleStudent)
	require.NoError(t, err)

	_, _, err = svc.ValidateSession(token)
	assert.Error(t, err)
}

func TestValidateSession_Garbage(t *testing.T) {
	svc := NewJWTService(testSecret, "1h")

	_, _, err := svc.ValidateSession("not-a-token")
	assert.Error(t, err)
}
