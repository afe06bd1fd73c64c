package security

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastParams = Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestHashAndVerifyPassword(t *testing.T) {
	encoded, err := HashPasswordWithParams("s3cret", fastParams)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$t=1,m=8192,p=1$"))
	assert.False(t, IsLegacyHash(encoded))

	ok, err := VerifyPassword("s3cret", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_Salted(t *testing.T) {
	a, err := HashPasswordWithParams("same", fastParams)
	require.NoError(t, err)
	b, err := HashPasswordWithParams("same", fastParams)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyPassword_Legacy(t *testing.T) {
	sum := sha256.Sum256([]byte("hunter2"))
	legacy := hex.EncodeToString(sum[:])
	require.True(t, IsLegacyHash(legacy))

	ok, err := VerifyPassword("hunter2", legacy)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("hunter3", legacy)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPassword_Malformed(t *testing.T) {
	for _, encoded := range []string{"", "plain", "$argon2id$v=19$broken", "$bcrypt$v=1$a$b$c"} {
		_, err := VerifyPassword("x", encoded)
		assert.Error(t, err, encoded)
	}
}

func TestAccessToken_RoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("secret", 42, "admin", time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestAccessToken_Rejects(t *testing.T) {
	token, err := GenerateAccessToken("secret", 42, "student", time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "other")
	assert.Error(t, err)

	expired, err := GenerateAccessToken("secret", 42, "student", -time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken(expired, "secret")
	assert.Error(t, err)
}

func TestAccessToken_EmptySecret(t *testing.T) {
	_, err := GenerateAccessToken("", 42, "admin", time.Minute)
	assert.ErrorIs(t, err, ErrEmptySecret)

	forged, err := GenerateAccessToken("x", 42, "admin", time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken(forged, "")
	assert.ErrorIs(t, err, ErrEmptySecret)
}
