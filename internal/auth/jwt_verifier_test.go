package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecanvas/internal/domain"
	"sitecanvas/internal/domain/models"
)

func TestVerifyToken(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	other, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	verifier := NewKeyfuncVerifier(func(*jwt.Token) (any, error) { return &key.PublicKey, nil }, logger)
	defer verifier.Close()

	claims := func(sub, role string, exp time.Time) *models.EditorClaims {
		return &models.EditorClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: sub, ExpiresAt: jwt.NewNumericDate(exp)},
			Role:             role,
		}
	}
	sign := func(c *models.EditorClaims, k *ecdsa.PrivateKey) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodES256, c).SignedString(k)
		require.NoError(t, err)
		return s
	}
	hour := time.Now().Add(time.Hour)

	hmac, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims("u1", "authenticated", hour)).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantSub string
	}{
		{name: "valid", token: sign(claims("u1", "authenticated", hour), key), wantSub: "u1"},
		{name: "expired", token: sign(claims("u1", "authenticated", time.Now().Add(-time.Minute)), key)},
		{name: "anonymous role", token: sign(claims("u1", "anon", hour), key)},
		{name: "missing subject", token: sign(claims("", "authenticated", hour), key)},
		{name: "wrong key", token: sign(claims("u1", "authenticated", hour), other)},
		{name: "symmetric algorithm", token: hmac},
		{name: "garbage", token: "not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := verifier.VerifyToken(tt.token)
			if tt.wantSub == "" {
				assert.ErrorIs(t, err, domain.ErrUnauthorized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSub, got.GetUserID())
		})
	}
}

func TestNewJWTVerifierRequiresURL(t *testing.T) {
	_, err := NewJWTVerifier("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
