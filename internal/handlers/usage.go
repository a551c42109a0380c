package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dealsense/salesapi/internal/middleware"
	"github.com/dealsense/salesapi/pkg/models"
)

type UsageHandler struct {
	quota  QuotaService
	logger *logrus.Logger
}

func NewUsageHandler(quota QuotaService, logger *logrus.Logger) *UsageHandler {
	return &UsageHandler{
		quota:  quota,
		logger: logger,
	}
}

// Stats reports the caller's current-month usage per feature alongside the
// effective tier the caps were computed for.
func (h *UsageHandler) Stats(c *gin.Context) {
	identity := middleware.Identity(c)
	tier := middleware.EffectiveTier(c)

	stats := h.quota.Stats(c.Request.Context(), identity.UserID, tier)

	c.JSON(http.StatusOK, models.OK(gin.H{
		"tier":  tier,
		"usage": stats,
	}))
}
