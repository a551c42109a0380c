package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/dealsense/salesapi/internal/middleware"
	"github.com/dealsense/salesapi/internal/services"
	"github.com/dealsense/salesapi/pkg/models"
)

type TranscriptionHandler struct {
	stt      Transcriber
	jobs     JobStore
	quota    QuotaService
	metrics  *services.Metrics
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewTranscriptionHandler(sttClient Transcriber, jobs JobStore, quota QuotaService, metrics *services.Metrics, validate *validator.Validate, logger *logrus.Logger) *TranscriptionHandler {
	return &TranscriptionHandler{
		stt:      sttClient,
		jobs:     jobs,
		quota:    quota,
		metrics:  metrics,
		validate: validate,
		logger:   logger,
	}
}

// Submit creates an async transcription job and records who owns it. The job
// is polled externally; nothing here waits on it.
func (h *TranscriptionHandler) Submit(c *gin.Context) {
	var req models.TranscriptionSubmitRequest
	if !bindAndValidate(c, h.validate, h.logger, &req) {
		return
	}

	identity := middleware.Identity(c)

	jobID, status, err := h.stt.Submit(c.Request.Context(), req.AudioURL)
	if err != nil {
		respondSTTError(c, h.logger, h.metrics, err)
		return
	}

	if err := h.jobs.Register(c.Request.Context(), jobID, identity.UserID, status); err != nil {
		// Without an ownership record the job result could never be
		// released, so registration failure fails the submission.
		h.logger.WithError(err).WithField("job_id", jobID).Error("Failed to register job ownership")
		c.JSON(http.StatusInternalServerError, models.Fail(models.CodeServerError, "Failed to register transcription job"))
		return
	}

	h.quota.Record(c.Request.Context(), identity.UserID, models.FeatureTranscribe)

	c.JSON(http.StatusAccepted, models.OK(gin.H{
		"job_id": jobID,
		"status": status,
	}))
}

// Status polls a transcription job. Ownership is checked before the vendor
// is asked for anything.
func (h *TranscriptionHandler) Status(c *gin.Context) {
	jobID := c.Param("jobId")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, models.Fail(models.CodeValidationError, "Job id is required"))
		return
	}

	identity := middleware.Identity(c)

	owner, err := h.jobs.Owner(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, services.ErrJobUnknown) {
			c.JSON(http.StatusNotFound, models.Fail(models.CodeNotFound, "Transcription job not found"))
			return
		}
		h.logger.WithError(err).WithField("job_id", jobID).Error("Failed to resolve job owner")
		c.JSON(http.StatusInternalServerError, models.Fail(models.CodeServerError, "Failed to load transcription job"))
		return
	}

	if owner != identity.UserID {
		c.JSON(http.StatusForbidden, models.Fail(models.CodeForbidden, "You do not have access to this transcription job"))
		return
	}

	result, err := h.stt.Poll(c.Request.Context(), jobID)
	if err != nil {
		respondSTTError(c, h.logger, h.metrics, err)
		return
	}

	c.JSON(http.StatusOK, models.OK(result))
}
