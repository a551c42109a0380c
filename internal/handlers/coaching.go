package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/dealsense/salesapi/internal/middleware"
	"github.com/dealsense/salesapi/pkg/models"
)

type CoachingHandler struct {
	llm      LLMProvider
	quota    QuotaService
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewCoachingHandler(llm LLMProvider, quota QuotaService, validate *validator.Validate, logger *logrus.Logger) *CoachingHandler {
	return &CoachingHandler{
		llm:      llm,
		quota:    quota,
		validate: validate,
		logger:   logger,
	}
}

// Tip produces a realtime coaching tip for a short transcript chunk.
// Coaching must never block or fail the surrounding call flow: the adapter
// degrades every timeout, transport failure and parse failure to a nil tip,
// and a nil tip is a success response with null data. Usage is only recorded
// when a tip was actually produced.
func (h *CoachingHandler) Tip(c *gin.Context) {
	var req models.CoachingTipRequest
	if !bindAndValidate(c, h.validate, h.logger, &req) {
		return
	}

	tip, err := h.llm.CoachTip(c.Request.Context(), req.Chunk, req.Context)
	if err != nil || tip == nil {
		if err != nil {
			h.logger.WithError(err).Debug("Coaching tip degraded to empty")
		}
		c.JSON(http.StatusOK, models.OKNull())
		return
	}

	identity := middleware.Identity(c)
	h.quota.Record(c.Request.Context(), identity.UserID, models.FeatureCoach)

	c.JSON(http.StatusOK, models.OK(tip))
}
