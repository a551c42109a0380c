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

type AnalysisHandler struct {
	llm      LLMProvider
	quota    QuotaService
	metrics  *services.Metrics
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewAnalysisHandler(llm LLMProvider, quota QuotaService, metrics *services.Metrics, validate *validator.Validate, logger *logrus.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		llm:      llm,
		quota:    quota,
		metrics:  metrics,
		validate: validate,
		logger:   logger,
	}
}

// AnalyzeTranscript turns a meeting transcript into structured insights:
// summary, needs, buying signals, lead score and action items.
func (h *AnalysisHandler) AnalyzeTranscript(c *gin.Context) {
	var req models.TranscriptAnalysisRequest
	if !bindAndValidate(c, h.validate, h.logger, &req) {
		return
	}

	insights, err := h.llm.AnalyzeTranscript(c.Request.Context(), req.Transcript, req.Context)
	if err != nil {
		respondLLMError(c, h.logger, h.metrics, err)
		return
	}

	identity := middleware.Identity(c)
	h.quota.Record(c.Request.Context(), identity.UserID, models.FeatureAnalyze)

	c.JSON(http.StatusOK, models.OK(insights))
}
