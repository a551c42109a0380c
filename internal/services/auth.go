package services

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/dealsense/salesapi/internal/config"
	"github.com/dealsense/salesapi/pkg/models"
)

// AuthService validates bearer tokens minted by the external identity
// provider. Authentication failure is terminal for the request; there is no
// retry path.
type AuthService struct {
	logger      *logrus.Logger
	redisClient *redis.Client
	jwtSecret   []byte
}

func NewAuthService(cfg *config.Config, logger *logrus.Logger, redisClient *redis.Client) *AuthService {
	return &AuthService{
		logger:      logger,
		redisClient: redisClient,
		jwtSecret:   []byte(cfg.Auth.JWTSecret),
	}
}

// ValidateToken parses and verifies a bearer token and returns the identity
// it carries.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.UserIdentity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	// Revocation check. The identity provider writes a marker when a user is
	// force-logged-out; absent a marker the token stands on its own, and a
	// Redis outage does not invalidate an otherwise valid token.
	revokedKey := fmt.Sprintf("session_revoked:%s", claims.UserID.String())
	revoked, err := s.redisClient.Exists(ctx, revokedKey).Result()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to check token revocation in Redis")
	} else if revoked > 0 {
		return nil, fmt.Errorf("session revoked")
	}

	identity := &models.UserIdentity{
		UserID: claims.UserID,
		Email:  claims.Email,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}

	return identity, nil
}
