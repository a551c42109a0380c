package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/dealsense/salesapi/internal/llm"
	"github.com/dealsense/salesapi/internal/services"
	"github.com/dealsense/salesapi/internal/stt"
	"github.com/dealsense/salesapi/pkg/models"
)

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// bindAndValidate deserializes the body and runs structural validation. It
// writes the VALIDATION_ERROR envelope itself and returns false on
// rejection; callers must return without touching quota or providers.
func bindAndValidate(c *gin.Context, validate *validator.Validate, logger *logrus.Logger, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		logger.WithError(err).Warn("Invalid JSON in request body")
		c.JSON(http.StatusBadRequest, models.FailWithDetails(
			models.CodeValidationError,
			"Request body must be valid JSON",
			err.Error(),
		))
		return false
	}

	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]fieldError, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, fieldError{
					Field: fe.Field(),
					Rule:  fe.Tag(),
					Param: fe.Param(),
				})
			}
			c.JSON(http.StatusBadRequest, models.FailWithDetails(
				models.CodeValidationError,
				"Request validation failed",
				details,
			))
			return false
		}

		logger.WithError(err).Error("Validator failed")
		c.JSON(http.StatusInternalServerError, models.Fail(models.CodeServerError, "Internal server error"))
		return false
	}

	return true
}

// respondLLMError maps adapter failures onto the envelope taxonomy and counts
// them per error class. The upstream's own rate limit is surfaced as
// RATE_LIMIT, distinct from this service's quota denial.
func respondLLMError(c *gin.Context, logger *logrus.Logger, metrics *services.Metrics, err error) {
	switch {
	case errors.Is(err, llm.ErrUpstreamRateLimit):
		metrics.ProviderErrors.WithLabelValues("llm", "rate_limit").Inc()
		c.JSON(http.StatusTooManyRequests, models.Fail(models.CodeRateLimit, "The AI provider is rate limiting requests. Please try again shortly."))
	case errors.Is(err, llm.ErrEmptyResponse):
		metrics.ProviderErrors.WithLabelValues("llm", "empty_response").Inc()
		logger.WithError(err).Error("AI provider returned empty response")
		c.JSON(http.StatusInternalServerError, models.Fail(models.CodeAIError, "The AI provider returned an empty response"))
	case errors.Is(err, llm.ErrUnparseable):
		metrics.ProviderErrors.WithLabelValues("llm", "unparseable").Inc()
		logger.WithError(err).Error("AI provider returned unparseable response")
		c.JSON(http.StatusInternalServerError, models.Fail(models.CodeParseError, "The AI provider returned an unparseable response"))
	case errors.Is(err, llm.ErrUpstreamAuth):
		metrics.ProviderErrors.WithLabelValues("llm", "auth").Inc()
		logger.WithError(err).Error("AI provider rejected credentials")
		c.JSON(http.StatusInternalServerError, models.Fail(models.CodeAIError, "The AI provider rejected the request"))
	default:
		metrics.ProviderErrors.WithLabelValues("llm", "other").Inc()
		logger.WithError(err).Error("AI provider call failed")
		c.JSON(http.StatusInternalServerError, models.Fail(models.CodeServerError, "Failed to process request"))
	}
}

func respondSTTError(c *gin.Context, logger *logrus.Logger, metrics *services.Metrics, err error) {
	switch {
	case errors.Is(err, stt.ErrUpstreamRateLimit):
		metrics.ProviderErrors.WithLabelValues("stt", "rate_limit").Inc()
		c.JSON(http.StatusTooManyRequests, models.Fail(models.CodeRateLimit, "The transcription provider is rate limiting requests. Please try again shortly."))
	case errors.Is(err, stt.ErrJobNotFound):
		c.JSON(http.StatusNotFound, models.Fail(models.CodeNotFound, "Transcription job not found"))
	default:
		metrics.ProviderErrors.WithLabelValues("stt", "other").Inc()
		logger.WithError(err).Error("Transcription provider call failed")
		c.JSON(http.StatusInternalServerError, models.Fail(models.CodeServerError, "Failed to process request"))
	}
}
