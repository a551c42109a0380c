package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dealsense/salesapi/internal/config"
	"github.com/dealsense/salesapi/pkg/models"
)

var (
	// ErrUpstreamRateLimit reports the transcription vendor's own 429.
	ErrUpstreamRateLimit = errors.New("stt: upstream rate limited")

	// ErrJobNotFound means the vendor has no job under the given id.
	ErrJobNotFound = errors.New("stt: job not found")
)

// Client wraps the transcription vendor's async job API: submit an audio URL,
// poll for the result later. Jobs are polled externally, never awaited
// in-process.
type Client struct {
	cfg        config.STTConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(cfg config.STTConfig, logger *logrus.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("stt api key is required")
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: logger,
	}, nil
}

type submitRequest struct {
	AudioURL      string `json:"audio_url"`
	SpeakerLabels bool   `json:"speaker_labels"`
}

type jobResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Text       string `json:"text"`
	Error      string `json:"error"`
	Utterances []struct {
		Speaker    string  `json:"speaker"`
		Text       string  `json:"text"`
		Start      int     `json:"start"`
		End        int     `json:"end"`
		Confidence float64 `json:"confidence"`
	} `json:"utterances"`
}

// Submit creates a transcription job and returns the vendor's job id.
func (c *Client) Submit(ctx context.Context, audioURL string) (string, string, error) {
	body, err := json.Marshal(submitRequest{
		AudioURL:      audioURL,
		SpeakerLabels: true,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal submit request: %w", err)
	}

	job, err := c.do(ctx, http.MethodPost, "/transcript", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}

	c.logger.WithFields(logrus.Fields{
		"job_id": job.ID,
		"status": job.Status,
	}).Info("Transcription job submitted")

	return job.ID, normalizeStatus(job.Status), nil
}

// Poll fetches the current state of a transcription job.
func (c *Client) Poll(ctx context.Context, jobID string) (*models.TranscriptionResult, error) {
	job, err := c.do(ctx, http.MethodGet, "/transcript/"+jobID, nil)
	if err != nil {
		return nil, err
	}

	result := &models.TranscriptionResult{
		JobID:  job.ID,
		Status: normalizeStatus(job.Status),
		Text:   job.Text,
	}

	for _, u := range job.Utterances {
		result.Utterances = append(result.Utterances, models.Utterance{
			Speaker:    u.Speaker,
			Text:       u.Text,
			StartMS:    u.Start,
			EndMS:      u.End,
			Confidence: u.Confidence,
		})
	}

	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*jobResponse, error) {
	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", c.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusTooManyRequests:
		return nil, ErrUpstreamRateLimit
	case http.StatusNotFound:
		return nil, ErrJobNotFound
	default:
		return nil, fmt.Errorf("upstream error (%d): %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var job jobResponse
	if err := json.Unmarshal(payload, &job); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if job.ID == "" {
		return nil, fmt.Errorf("upstream returned no job id")
	}

	return &job, nil
}

// normalizeStatus folds vendor status names into the small set the API
// reports.
func normalizeStatus(status string) string {
	switch status {
	case "queued":
		return models.TranscriptionStatusQueued
	case "processing":
		return models.TranscriptionStatusProcessing
	case "completed":
		return models.TranscriptionStatusCompleted
	case "error":
		return models.TranscriptionStatusError
	default:
		return models.TranscriptionStatusProcessing
	}
}
