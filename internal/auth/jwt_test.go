package auth_test

import (
	"testing"
	"time"

	"workspace/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret-key"

func TestGenerateAndParseToken(t *testing.T) {
	m := auth.NewManager(testSecret, 24*time.Hour)

	token, err := m.GenerateToken("user_2abc")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	userID, err := m.ParseToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user_2abc", userID)
}

func TestGenerateToken_EmptyUser(t *testing.T) {
	m := auth.NewManager(testSecret, time.Hour)

	_, err := m.GenerateToken("")
	assert.ErrorIs(t, err, auth.ErrInvalidClaims)
}

func TestParseToken_InvalidToken(t *testing.T) {
	m := auth.NewManager(testSecret, time.Hour)

	_, err := m.ParseToken("invalid-token")

	assert.Error(t, err)
	assert.Equal(t, "invalid token", err.Error())
}

func TestParseToken_WrongSecret(t *testing.T) {
	issuer := auth.NewManager("other-secret", time.Hour)
	token, _ := issuer.GenerateToken("user-1")

	_, err := auth.NewManager(testSecret, time.Hour).ParseToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseToken_ExpiredToken(t *testing.T) {
	m := auth.NewManager(testSecret, time.Hour)

	claims := jwt.MapClaims{
		"user_id": "test-user-id",
		"exp":     time.Now().Add(-1 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	expiredToken, _ := token.SignedString([]byte(testSecret))

	_, err := m.ParseToken(expiredToken)

	assert.Error(t, err)
	assert.Equal(t, "invalid token", err.Error())
}

func TestParseToken_MissingClaims(t *testing.T) {
	m := auth.NewManager(testSecret, time.Hour)

	claims := jwt.MapClaims{
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenWithoutUserID, _ := token.SignedString([]byte(testSecret))

	_, err := m.ParseToken(tokenWithoutUserID)

	assert.Error(t, err)
	assert.Equal(t, "invalid claims", err.Error())
}
