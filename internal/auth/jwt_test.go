package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-key-for-testing-only")

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(testSecret, Claims{
		UserID:         "user-1",
		OrganizationID: "org-1",
		OutletIDs:      []string{"outlet-1", "outlet-2"},
		Role:           "CHEF",
	}, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "org-1", claims.OrganizationID)
	assert.Equal(t, []string{"outlet-1", "outlet-2"}, claims.OutletIDs)
	assert.Equal(t, "CHEF", claims.Role)
}

func TestGenerateToken_RequiresIdentity(t *testing.T) {
	_, err := GenerateToken(testSecret, Claims{OrganizationID: "org-1"}, time.Hour)
	assert.Error(t, err)

	_, err = GenerateToken(testSecret, Claims{UserID: "user-1"}, time.Hour)
	assert.Error(t, err)

	_, err = GenerateToken(nil, Claims{UserID: "user-1", OrganizationID: "org-1"}, time.Hour)
	assert.Error(t, err)
}

func TestValidateToken_Rejects(t *testing.T) {
	valid, err := GenerateToken(testSecret, Claims{UserID: "u", OrganizationID: "o"}, time.Hour)
	require.NoError(t, err)

	expired, err := GenerateToken(testSecret, Claims{UserID: "u", OrganizationID: "o"}, -time.Minute)
	require.NoError(t, err)

	noOrg, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userID": "u",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret []byte
		token  string
	}{
		{"garbage", testSecret, "invalid_token_xyz"},
		{"wrong secret", []byte("other-secret"), valid},
		{"expired", testSecret, expired},
		{"missing organization", testSecret, noOrg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateToken(tt.secret, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
