package handlers

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dealsense/salesapi/internal/services"
	"github.com/dealsense/salesapi/internal/storage"
	"github.com/dealsense/salesapi/pkg/models"
)

// Provider adapters and core services are consumed through narrow interfaces
// so handlers are testable with fakes instead of network mocks.

type LLMProvider interface {
	ExtractCard(ctx context.Context, imageURL string) (*models.CardExtraction, error)
	AnalyzeTranscript(ctx context.Context, transcript, meetingContext string) (*models.MeetingInsights, error)
	DraftEmail(ctx context.Context, req models.FollowUpEmailRequest) (*models.EmailDraft, error)
	CoachTip(ctx context.Context, chunk, callContext string) (*models.CoachingTip, error)
}

type Transcriber interface {
	Submit(ctx context.Context, audioURL string) (jobID, status string, err error)
	Poll(ctx context.Context, jobID string) (*models.TranscriptionResult, error)
}

type ObjectStore interface {
	PresignUpload(ctx context.Context, key string) (string, time.Time, error)
	PresignDownload(ctx context.Context, key string) (string, time.Time, error)
	Delete(ctx context.Context, key string) (storage.DeleteOutcome, error)
}

type QuotaService interface {
	Record(ctx context.Context, userID uuid.UUID, feature models.Feature)
	Stats(ctx context.Context, userID uuid.UUID, tier models.Tier) map[models.Feature]models.FeatureUsage
}

type JobStore interface {
	Register(ctx context.Context, jobID string, userID uuid.UUID, status string) error
	Owner(ctx context.Context, jobID string) (uuid.UUID, error)
}

type Handlers struct {
	OCR           *OCRHandler
	Analysis      *AnalysisHandler
	Email         *EmailHandler
	Coaching      *CoachingHandler
	Transcription *TranscriptionHandler
	Files         *FilesHandler
	Usage         *UsageHandler
	Health        *HealthHandler
}

func New(logger *logrus.Logger, svc *services.Services, llmClient LLMProvider, sttClient Transcriber, store ObjectStore) *Handlers {
	validate := validator.New()

	return &Handlers{
		OCR:           NewOCRHandler(llmClient, svc.Quota, svc.Metrics, validate, logger),
		Analysis:      NewAnalysisHandler(llmClient, svc.Quota, svc.Metrics, validate, logger),
		Email:         NewEmailHandler(llmClient, svc.Quota, svc.Metrics, validate, logger),
		Coaching:      NewCoachingHandler(llmClient, svc.Quota, validate, logger),
		Transcription: NewTranscriptionHandler(sttClient, svc.Jobs, svc.Quota, svc.Metrics, validate, logger),
		Files:         NewFilesHandler(store, svc.Quota, svc.Metrics, validate, logger),
		Usage:         NewUsageHandler(svc.Quota, logger),
		Health:        NewHealthHandler(svc.Health, logger),
	}
}
