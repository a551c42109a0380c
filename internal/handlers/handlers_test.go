package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/dealsense/salesapi/internal/middleware"
	"github.com/dealsense/salesapi/internal/services"
	"github.com/dealsense/salesapi/internal/storage"
	"github.com/dealsense/salesapi/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func testValidator() *validator.Validate {
	return validator.New()
}

func testMetrics() *services.Metrics {
	return services.NewMetrics(prometheus.NewRegistry())
}

func testIdentity() *models.UserIdentity {
	return &models.UserIdentity{
		UserID: uuid.New(),
		Email:  "rep@example.com",
	}
}

// serve registers routes behind a stub identity middleware and replays one
// request against them.
func serve(identity *models.UserIdentity, method, path, body string, register func(*gin.Engine)) *httptest.ResponseRecorder {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if identity != nil {
			middleware.SetIdentity(c, identity)
		}
		c.Next()
	})
	register(router)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	return body
}

func errorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeEnvelope(t, recorder)
	errBody, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no error body: %s", recorder.Body.String())
	}
	code, _ := errBody["code"].(string)
	return code
}

// fakeLLM returns canned results and counts invocations.
type fakeLLM struct {
	extraction *models.CardExtraction
	insights   *models.MeetingInsights
	draft      *models.EmailDraft
	tip        *models.CoachingTip
	err        error
	calls      int
}

func (f *fakeLLM) ExtractCard(ctx context.Context, imageURL string) (*models.CardExtraction, error) {
	f.calls++
	return f.extraction, f.err
}

func (f *fakeLLM) AnalyzeTranscript(ctx context.Context, transcript, meetingContext string) (*models.MeetingInsights, error) {
	f.calls++
	return f.insights, f.err
}

func (f *fakeLLM) DraftEmail(ctx context.Context, req models.FollowUpEmailRequest) (*models.EmailDraft, error) {
	f.calls++
	return f.draft, f.err
}

func (f *fakeLLM) CoachTip(ctx context.Context, chunk, callContext string) (*models.CoachingTip, error) {
	f.calls++
	return f.tip, f.err
}

// fakeQuota records which features were charged.
type fakeQuota struct {
	recorded []models.Feature
	stats    map[models.Feature]models.FeatureUsage
}

func (f *fakeQuota) Record(ctx context.Context, userID uuid.UUID, feature models.Feature) {
	f.recorded = append(f.recorded, feature)
}

func (f *fakeQuota) Stats(ctx context.Context, userID uuid.UUID, tier models.Tier) map[models.Feature]models.FeatureUsage {
	if f.stats == nil {
		return map[models.Feature]models.FeatureUsage{}
	}
	return f.stats
}

type fakeTranscriber struct {
	jobID     string
	status    string
	submitErr error
	result    *models.TranscriptionResult
	pollErr   error
	polls     int
}

func (f *fakeTranscriber) Submit(ctx context.Context, audioURL string) (string, string, error) {
	return f.jobID, f.status, f.submitErr
}

func (f *fakeTranscriber) Poll(ctx context.Context, jobID string) (*models.TranscriptionResult, error) {
	f.polls++
	return f.result, f.pollErr
}

type fakeJobs struct {
	owners      map[string]uuid.UUID
	registerErr error
}

func (f *fakeJobs) Register(ctx context.Context, jobID string, userID uuid.UUID, status string) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	if f.owners == nil {
		f.owners = make(map[string]uuid.UUID)
	}
	f.owners[jobID] = userID
	return nil
}

func (f *fakeJobs) Owner(ctx context.Context, jobID string) (uuid.UUID, error) {
	owner, ok := f.owners[jobID]
	if !ok {
		return uuid.Nil, services.ErrJobUnknown
	}
	return owner, nil
}

type fakeStore struct {
	uploadURL   string
	downloadURL string
	expiresAt   time.Time
	deleteErr   error
	outcome     storage.DeleteOutcome
	deletes     int
}

func (f *fakeStore) PresignUpload(ctx context.Context, key string) (string, time.Time, error) {
	return f.uploadURL, f.expiresAt, nil
}

func (f *fakeStore) PresignDownload(ctx context.Context, key string) (string, time.Time, error) {
	return f.downloadURL, f.expiresAt, nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) (storage.DeleteOutcome, error) {
	f.deletes++
	return f.outcome, f.deleteErr
}
