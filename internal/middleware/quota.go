package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dealsense/salesapi/internal/services"
	"github.com/dealsense/salesapi/pkg/models"
)

// Quota runs the ledger check for one feature after Auth and RequireTier.
// Recording stays in the handlers: usage is only written after the provider
// call is confirmed successful.
func Quota(ledger *services.QuotaLedger, metrics *services.Metrics, feature models.Feature, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := Identity(c)
		if identity == nil {
			logger.Error("Quota middleware called without identity context")
			c.JSON(http.StatusUnauthorized, models.Fail(models.CodeAuthError, "Authentication required"))
			c.Abort()
			return
		}

		tier := EffectiveTier(c)
		decision := ledger.Check(c.Request.Context(), identity.UserID, tier, feature)

		c.Header("X-Quota-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-Quota-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			metrics.QuotaDenials.WithLabelValues(string(feature)).Inc()
			logger.WithFields(logrus.Fields{
				"user_id": identity.UserID,
				"feature": feature,
				"limit":   decision.Limit,
			}).Warn("Monthly quota exhausted")

			c.JSON(http.StatusTooManyRequests, models.FailWithDetails(
				models.CodeRateLimitExceeded,
				"Monthly quota for this feature is exhausted.",
				decision,
			))
			c.Abort()
			return
		}

		c.Next()
	}
}
