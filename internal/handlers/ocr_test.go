package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/dealsense/salesapi/internal/llm"
	"github.com/dealsense/salesapi/internal/services"
	"github.com/dealsense/salesapi/pkg/models"
)

func ocrRoute(llmFake *fakeLLM, quota *fakeQuota, metrics *services.Metrics) func(*gin.Engine) {
	handler := NewOCRHandler(llmFake, quota, metrics, testValidator(), testLogger())
	return func(r *gin.Engine) {
		r.POST("/card", handler.ScanCard)
	}
}

func TestOCRHandler_ScanCard(t *testing.T) {
	t.Run("extraction succeeds and charges quota", func(t *testing.T) {
		llmFake := &fakeLLM{extraction: &models.CardExtraction{
			Name:  models.CardField{Value: "Ada Moreno", Confidence: 97},
			Email: models.CardField{Value: "ada@northwind.io", Confidence: 92},
		}}
		quota := &fakeQuota{}

		recorder := serve(testIdentity(), http.MethodPost, "/card",
			`{"image_url":"https://cdn.example.com/card.jpg"}`, ocrRoute(llmFake, quota, testMetrics()))

		assert.Equal(t, http.StatusOK, recorder.Code)
		body := decodeEnvelope(t, recorder)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, 1, llmFake.calls)
		assert.Equal(t, []models.Feature{models.FeatureOCR}, quota.recorded)
	})

	t.Run("missing image_url never reaches the provider", func(t *testing.T) {
		llmFake := &fakeLLM{}
		quota := &fakeQuota{}

		recorder := serve(testIdentity(), http.MethodPost, "/card", `{}`, ocrRoute(llmFake, quota, testMetrics()))

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, models.CodeValidationError, errorCode(t, recorder))
		assert.Zero(t, llmFake.calls)
		assert.Empty(t, quota.recorded)
	})

	t.Run("malformed JSON is a validation error", func(t *testing.T) {
		llmFake := &fakeLLM{}
		quota := &fakeQuota{}

		recorder := serve(testIdentity(), http.MethodPost, "/card", `{"image_url":`, ocrRoute(llmFake, quota, testMetrics()))

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, models.CodeValidationError, errorCode(t, recorder))
		assert.Zero(t, llmFake.calls)
	})

	t.Run("provider rate limit maps to RATE_LIMIT and charges nothing", func(t *testing.T) {
		llmFake := &fakeLLM{err: llm.ErrUpstreamRateLimit}
		quota := &fakeQuota{}
		metrics := testMetrics()

		recorder := serve(testIdentity(), http.MethodPost, "/card",
			`{"image_url":"https://cdn.example.com/card.jpg"}`, ocrRoute(llmFake, quota, metrics))

		assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
		assert.Equal(t, models.CodeRateLimit, errorCode(t, recorder))
		assert.Empty(t, quota.recorded)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ProviderErrors.WithLabelValues("llm", "rate_limit")))
	})

	t.Run("unparseable model output maps to PARSE_ERROR", func(t *testing.T) {
		llmFake := &fakeLLM{err: llm.ErrUnparseable}
		quota := &fakeQuota{}
		metrics := testMetrics()

		recorder := serve(testIdentity(), http.MethodPost, "/card",
			`{"image_url":"https://cdn.example.com/card.jpg"}`, ocrRoute(llmFake, quota, metrics))

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
		assert.Equal(t, models.CodeParseError, errorCode(t, recorder))
		assert.Empty(t, quota.recorded)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ProviderErrors.WithLabelValues("llm", "unparseable")))
	})
}
