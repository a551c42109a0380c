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

type OCRHandler struct {
	llm      LLMProvider
	quota    QuotaService
	metrics  *services.Metrics
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewOCRHandler(llm LLMProvider, quota QuotaService, metrics *services.Metrics, validate *validator.Validate, logger *logrus.Logger) *OCRHandler {
	return &OCRHandler{
		llm:      llm,
		quota:    quota,
		metrics:  metrics,
		validate: validate,
		logger:   logger,
	}
}

// ScanCard extracts structured contact fields from a business-card image.
func (h *OCRHandler) ScanCard(c *gin.Context) {
	var req models.CardScanRequest
	if !bindAndValidate(c, h.validate, h.logger, &req) {
		return
	}

	extraction, err := h.llm.ExtractCard(c.Request.Context(), req.ImageURL)
	if err != nil {
		respondLLMError(c, h.logger, h.metrics, err)
		return
	}

	identity := middleware.Identity(c)
	h.quota.Record(c.Request.Context(), identity.UserID, models.FeatureOCR)

	c.JSON(http.StatusOK, models.OK(extraction))
}
