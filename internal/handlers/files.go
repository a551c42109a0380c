package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/dealsense/salesapi/internal/middleware"
	"github.com/dealsense/salesapi/internal/services"
	"github.com/dealsense/salesapi/internal/storage"
	"github.com/dealsense/salesapi/pkg/models"
)

type FilesHandler struct {
	store    ObjectStore
	quota    QuotaService
	metrics  *services.Metrics
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewFilesHandler(store ObjectStore, quota QuotaService, metrics *services.Metrics, validate *validator.Validate, logger *logrus.Logger) *FilesHandler {
	return &FilesHandler{
		store:    store,
		quota:    quota,
		metrics:  metrics,
		validate: validate,
		logger:   logger,
	}
}

// UploadURL issues a presigned PUT URL under the caller's own key prefix.
func (h *FilesHandler) UploadURL(c *gin.Context) {
	var req models.UploadURLRequest
	if !bindAndValidate(c, h.validate, h.logger, &req) {
		return
	}

	identity := middleware.Identity(c)
	key := storage.ObjectKey(req.Category, identity.UserID, req.Filename, time.Now())

	uploadURL, expiresAt, err := h.store.PresignUpload(c.Request.Context(), key)
	if err != nil {
		h.logger.WithError(err).WithField("key", key).Error("Failed to presign upload")
		c.JSON(http.StatusInternalServerError, models.Fail(models.CodeServerError, "Failed to create upload URL"))
		return
	}

	h.quota.Record(c.Request.Context(), identity.UserID, models.FeatureUpload)

	c.JSON(http.StatusOK, models.OK(models.UploadGrant{
		UploadURL: uploadURL,
		Key:       key,
		ExpiresAt: expiresAt,
	}))
}

// DownloadURL issues a presigned GET URL after checking the key's owner.
func (h *FilesHandler) DownloadURL(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, models.Fail(models.CodeValidationError, "Query parameter 'key' is required"))
		return
	}

	identity := middleware.Identity(c)

	owner, err := storage.OwnerFromKey(key)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.CodeValidationError, "Malformed object key"))
		return
	}
	if owner != identity.UserID {
		c.JSON(http.StatusForbidden, models.Fail(models.CodeForbidden, "You do not have access to this file"))
		return
	}

	downloadURL, expiresAt, err := h.store.PresignDownload(c.Request.Context(), key)
	if err != nil {
		h.logger.WithError(err).WithField("key", key).Error("Failed to presign download")
		c.JSON(http.StatusInternalServerError, models.Fail(models.CodeServerError, "Failed to create download URL"))
		return
	}

	c.JSON(http.StatusOK, models.OK(models.DownloadGrant{
		DownloadURL: downloadURL,
		ExpiresAt:   expiresAt,
	}))
}

// Delete removes an object the caller owns. An object the backend already
// lost is success with a distinguishing message, not an error.
func (h *FilesHandler) Delete(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		c.JSON(http.StatusBadRequest, models.Fail(models.CodeValidationError, "Object key is required"))
		return
	}

	identity := middleware.Identity(c)

	owner, err := storage.OwnerFromKey(key)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.CodeValidationError, "Malformed object key"))
		return
	}
	if owner != identity.UserID {
		c.JSON(http.StatusForbidden, models.Fail(models.CodeForbidden, "You do not have access to this file"))
		return
	}

	outcome, err := h.store.Delete(c.Request.Context(), key)
	if err != nil {
		h.metrics.CleanupFailure.Inc()
		h.logger.WithError(err).WithField("key", key).Error("Failed to delete object")
		c.JSON(http.StatusInternalServerError, models.Fail(models.CodeServerError, "Failed to delete file"))
		return
	}

	h.metrics.CleanupSuccess.Inc()

	message := "File deleted"
	if outcome.AlreadyAbsent {
		message = "File was already removed"
	}

	c.JSON(http.StatusOK, models.OK(gin.H{
		"key":     key,
		"message": message,
	}))
}
