package identity

import (
	"context"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789"

func signToken(t *testing.T, secret string, claims jwtv5.MapClaims) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestVerify_StrictMissingToken(t *testing.T) {
	v := NewTokenVerifier(ModeStrict, testSecret, "")

	for _, header := range []string{"", "Bearer ", "Basic abc123", "bearer"} {
		_, err := v.Verify(context.Background(), header)
		require.ErrorIs(t, err, ErrUnauthorized, "header %q", header)
	}
}

func TestVerify_OpenModeFallback(t *testing.T) {
	v := NewTokenVerifier(ModeOpen, "", "")

	id, err := v.Verify(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, FallbackIdentity().ID, id.ID)
	require.NotEmpty(t, id.Email)
}

func TestVerify_OpenModeInvalidTokenNeverFallsBack(t *testing.T) {
	// token presente se valida SIEMPRE, incluso en modo open
	v := NewTokenVerifier(ModeOpen, testSecret, "")

	bad := signToken(t, "otro-secret", jwtv5.MapClaims{"sub": "u1"})
	_, err := v.Verify(context.Background(), "Bearer "+bad)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerify_ValidToken(t *testing.T) {
	v := NewTokenVerifier(ModeStrict, testSecret, "")

	tok := signToken(t, testSecret, jwtv5.MapClaims{
		"sub":   "user-42",
		"email": "user42@test.local",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	id, err := v.Verify(context.Background(), "Bearer "+tok)
	require.NoError(t, err)
	require.Equal(t, "user-42", id.ID)
	require.Equal(t, "user42@test.local", id.Email)
	require.Contains(t, id.Claims, "sub")
}

func TestVerify_UIDClaimFallback(t *testing.T) {
	// tokens de Firebase traen uid en lugar de sub
	v := NewTokenVerifier(ModeStrict, testSecret, "")

	tok := signToken(t, testSecret, jwtv5.MapClaims{"uid": "fb-user-7"})
	id, err := v.Verify(context.Background(), "Bearer "+tok)
	require.NoError(t, err)
	require.Equal(t, "fb-user-7", id.ID)
}

func TestVerify_NoSubjectRejected(t *testing.T) {
	v := NewTokenVerifier(ModeStrict, testSecret, "")

	tok := signToken(t, testSecret, jwtv5.MapClaims{"email": "anon@test.local"})
	_, err := v.Verify(context.Background(), "Bearer "+tok)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerify_ExpiredToken(t *testing.T) {
	v := NewTokenVerifier(ModeStrict, testSecret, "")

	tok := signToken(t, testSecret, jwtv5.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	_, err := v.Verify(context.Background(), "Bearer "+tok)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerify_IssuerEnforced(t *testing.T) {
	v := NewTokenVerifier(ModeStrict, testSecret, "https://id.promptcast.dev")

	ok := signToken(t, testSecret, jwtv5.MapClaims{"sub": "u1", "iss": "https://id.promptcast.dev"})
	_, err := v.Verify(context.Background(), "Bearer "+ok)
	require.NoError(t, err)

	wrong := signToken(t, testSecret, jwtv5.MapClaims{"sub": "u1", "iss": "https://evil.example"})
	_, err = v.Verify(context.Background(), "Bearer "+wrong)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("open")
	require.NoError(t, err)
	require.Equal(t, ModeOpen, m)

	m, err = ParseMode("strict")
	require.NoError(t, err)
	require.Equal(t, ModeStrict, m)

	_, err = ParseMode("yolo")
	require.Error(t, err)
}
