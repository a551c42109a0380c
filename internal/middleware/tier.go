package middleware

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dealsense/salesapi/internal/services"
	"github.com/dealsense/salesapi/pkg/models"
)

const (
	profileKey       = "profile"
	effectiveTierKey = "effective_tier"
)

// RequireTier loads the caller's subscription profile and denies the request
// unless the effective tier (trial promotion included) is in the allowed
// set. The promotion is computed fresh on every request.
func RequireTier(profiles *services.ProfileService, logger *logrus.Logger, allowed ...models.Tier) gin.HandlerFunc {
	allowedSet := make(map[models.Tier]struct{}, len(allowed))
	names := make([]string, 0, len(allowed))
	for _, tier := range allowed {
		allowedSet[tier] = struct{}{}
		names = append(names, tier.String())
	}
	sort.Strings(names)
	upgradeMsg := fmt.Sprintf(
		"This feature requires a %s subscription. Please upgrade your plan to continue.",
		strings.Join(names, " or "),
	)

	return func(c *gin.Context) {
		identity := Identity(c)
		if identity == nil {
			logger.Error("Tier middleware called without identity context")
			c.JSON(http.StatusUnauthorized, models.Fail(models.CodeAuthError, "Authentication required"))
			c.Abort()
			return
		}

		profile, err := profiles.Get(c.Request.Context(), identity.UserID)
		if err != nil {
			if err == services.ErrProfileNotFound {
				c.JSON(http.StatusForbidden, models.Fail(models.CodeTierError, "No subscription found for this account"))
				c.Abort()
				return
			}
			logger.WithError(err).WithField("user_id", identity.UserID).Error("Failed to load user profile")
			c.JSON(http.StatusInternalServerError, models.Fail(models.CodeServerError, "Failed to load subscription"))
			c.Abort()
			return
		}

		effective := profile.Effective(time.Now())
		if _, ok := allowedSet[effective]; !ok {
			logger.WithFields(logrus.Fields{
				"user_id":        identity.UserID,
				"stored_tier":    profile.Tier,
				"effective_tier": effective,
			}).Warn("Tier check denied request")
			c.JSON(http.StatusForbidden, models.Fail(models.CodeTierError, upgradeMsg))
			c.Abort()
			return
		}

		c.Set(profileKey, profile)
		c.Set(effectiveTierKey, effective)
		c.Next()
	}
}

// EffectiveTier returns the tier computed by RequireTier for this request.
func EffectiveTier(c *gin.Context) models.Tier {
	value, exists := c.Get(effectiveTierKey)
	if !exists {
		return models.TierBasic
	}
	tier, _ := value.(models.Tier)
	return tier
}
