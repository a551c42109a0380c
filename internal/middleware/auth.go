package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dealsense/salesapi/internal/services"
	"github.com/dealsense/salesapi/pkg/models"
)

const identityKey = "identity"

// Auth resolves the bearer token into a UserIdentity and aborts with
// AUTH_ERROR when no valid credential is present. Runs before everything
// else on protected routes.
func Auth(authService *services.AuthService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, models.Fail(models.CodeAuthError, "Authorization header is required"))
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, models.Fail(models.CodeAuthError, "Authorization header must be in format 'Bearer <token>'"))
			c.Abort()
			return
		}

		identity, err := authService.ValidateToken(c.Request.Context(), tokenParts[1])
		if err != nil {
			logger.WithError(err).Warn("Invalid bearer token")
			c.JSON(http.StatusUnauthorized, models.Fail(models.CodeAuthError, "Invalid or expired token"))
			c.Abort()
			return
		}

		SetIdentity(c, identity)
		c.Next()
	}
}

// SetIdentity attaches an identity to the request context.
func SetIdentity(c *gin.Context, identity *models.UserIdentity) {
	c.Set(identityKey, identity)
}

// Identity returns the authenticated identity set by Auth.
func Identity(c *gin.Context) *models.UserIdentity {
	value, exists := c.Get(identityKey)
	if !exists {
		return nil
	}
	identity, _ := value.(*models.UserIdentity)
	return identity
}
