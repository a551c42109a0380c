package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/dealsense/salesapi/internal/middleware"
	"github.com/dealsense/salesapi/internal/services"
	"github.com/dealsense/salesapi/pkg/models"
)

type EmailHandler struct {
	llm      LLMProvider
	quota    QuotaService
	metrics  *services.Metrics
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewEmailHandler(llm LLMProvider, quota QuotaService, metrics *services.Metrics, validate *validator.Validate, logger *logrus.Logger) *EmailHandler {
	return &EmailHandler{
		llm:      llm,
		quota:    quota,
		metrics:  metrics,
		validate: validate,
		logger:   logger,
	}
}

// DraftFollowUp writes a follow-up email for a lead in the requested tone.
func (h *EmailHandler) DraftFollowUp(c *gin.Context) {
	var req models.FollowUpEmailRequest
	if !bindAndValidate(c, h.validate, h.logger, &req) {
		return
	}

	draft, err := h.llm.DraftEmail(c.Request.Context(), req)
	if err != nil {
		respondLLMError(c, h.logger, h.metrics, err)
		return
	}

	identity := middleware.Identity(c)
	h.quota.Record(c.Request.Context(), identity.UserID, models.FeatureEmail)

	c.JSON(http.StatusOK, models.OK(draft))
}
