package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/dealsense/salesapi/pkg/models"
)

func coachingRoute(llmFake *fakeLLM, quota *fakeQuota) func(*gin.Engine) {
	handler := NewCoachingHandler(llmFake, quota, testValidator(), testLogger())
	return func(r *gin.Engine) {
		r.POST("/tip", handler.Tip)
	}
}

func TestCoachingHandler_Tip(t *testing.T) {
	body := `{"chunk":"They said the budget was approved last week."}`

	t.Run("tip produced charges quota", func(t *testing.T) {
		llmFake := &fakeLLM{tip: &models.CoachingTip{
			Tip:      "Confirm the decision timeline while momentum is high.",
			Category: "closing",
			Urgency:  "high",
		}}
		quota := &fakeQuota{}

		recorder := serve(testIdentity(), http.MethodPost, "/tip", body, coachingRoute(llmFake, quota))

		assert.Equal(t, http.StatusOK, recorder.Code)
		envelope := decodeEnvelope(t, recorder)
		assert.Equal(t, true, envelope["success"])
		assert.NotNil(t, envelope["data"])
		assert.Equal(t, []models.Feature{models.FeatureCoach}, quota.recorded)
	})

	t.Run("provider failure degrades to success with null data", func(t *testing.T) {
		llmFake := &fakeLLM{err: errors.New("deadline exceeded")}
		quota := &fakeQuota{}

		recorder := serve(testIdentity(), http.MethodPost, "/tip", body, coachingRoute(llmFake, quota))

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.JSONEq(t, `{"success":true,"data":null}`, recorder.Body.String())
		assert.Empty(t, quota.recorded, "a degraded tip must not consume quota")
	})

	t.Run("nil tip without error is also null data", func(t *testing.T) {
		llmFake := &fakeLLM{}
		quota := &fakeQuota{}

		recorder := serve(testIdentity(), http.MethodPost, "/tip", body, coachingRoute(llmFake, quota))

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.JSONEq(t, `{"success":true,"data":null}`, recorder.Body.String())
		assert.Empty(t, quota.recorded)
	})

	t.Run("oversized chunk is rejected before the provider", func(t *testing.T) {
		llmFake := &fakeLLM{}
		quota := &fakeQuota{}

		long := make([]byte, 4101)
		for i := range long {
			long[i] = 'a'
		}
		recorder := serve(testIdentity(), http.MethodPost, "/tip",
			`{"chunk":"`+string(long)+`"}`, coachingRoute(llmFake, quota))

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, models.CodeValidationError, errorCode(t, recorder))
		assert.Zero(t, llmFake.calls)
	})
}
