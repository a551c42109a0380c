package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealsense/salesapi/internal/config"
	"github.com/dealsense/salesapi/pkg/models"
)

const testJWTSecret = "test-secret"

func newTestAuth(t *testing.T, redisClient *redis.Client) *AuthService {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = testJWTSecret

	return NewAuthService(cfg, logger, redisClient)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

func signToken(t *testing.T, secret string, userID uuid.UUID, expiresAt time.Time) string {
	t.Helper()

	claims := &models.JWTClaims{
		UserID: userID,
		Email:  "rep@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthService_ValidateToken(t *testing.T) {
	userID := uuid.New()

	t.Run("valid token passes against an empty Redis", func(t *testing.T) {
		_, client := newTestRedis(t)
		auth := newTestAuth(t, client)

		token := signToken(t, testJWTSecret, userID, time.Now().Add(time.Hour))

		identity, err := auth.ValidateToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, userID, identity.UserID)
		assert.Equal(t, "rep@example.com", identity.Email)
	})

	t.Run("revocation marker rejects an otherwise valid token", func(t *testing.T) {
		server, client := newTestRedis(t)
		auth := newTestAuth(t, client)

		require.NoError(t, server.Set("session_revoked:"+userID.String(), "1"))

		token := signToken(t, testJWTSecret, userID, time.Now().Add(time.Hour))

		_, err := auth.ValidateToken(context.Background(), token)
		assert.ErrorContains(t, err, "revoked")
	})

	t.Run("revoking one user does not affect another", func(t *testing.T) {
		server, client := newTestRedis(t)
		auth := newTestAuth(t, client)

		require.NoError(t, server.Set("session_revoked:"+uuid.New().String(), "1"))

		token := signToken(t, testJWTSecret, userID, time.Now().Add(time.Hour))

		_, err := auth.ValidateToken(context.Background(), token)
		assert.NoError(t, err)
	})

	t.Run("redis outage does not invalidate a valid token", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			MaxRetries:  -1,
			DialTimeout: 10 * time.Millisecond,
		})
		t.Cleanup(func() { _ = client.Close() })
		auth := newTestAuth(t, client)

		token := signToken(t, testJWTSecret, userID, time.Now().Add(time.Hour))

		_, err := auth.ValidateToken(context.Background(), token)
		assert.NoError(t, err)
	})

	t.Run("wrong signature is rejected", func(t *testing.T) {
		_, client := newTestRedis(t)
		auth := newTestAuth(t, client)

		token := signToken(t, "some-other-secret", userID, time.Now().Add(time.Hour))

		_, err := auth.ValidateToken(context.Background(), token)
		assert.Error(t, err)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		_, client := newTestRedis(t)
		auth := newTestAuth(t, client)

		token := signToken(t, testJWTSecret, userID, time.Now().Add(-time.Hour))

		_, err := auth.ValidateToken(context.Background(), token)
		assert.Error(t, err)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, client := newTestRedis(t)
		auth := newTestAuth(t, client)

		_, err := auth.ValidateToken(context.Background(), "not.a.token")
		assert.Error(t, err)
	})
}
