package models

import "time"

// Structured results returned by the provider adapters. Scores and
// confidences are pass-through values from the LLM; this service performs no
// computation on them.

// CardField is one extracted business-card field with the model's confidence
// (0-100).
type CardField struct {
	Value      string `json:"value"`
	Confidence int    `json:"confidence"`
}

type CardExtraction struct {
	Name    CardField `json:"name"`
	Title   CardField `json:"title"`
	Company CardField `json:"company"`
	Email   CardField `json:"email"`
	Phone   CardField `json:"phone"`
	Website CardField `json:"website"`
	Address CardField `json:"address"`
}

type MeetingInsights struct {
	Summary       string   `json:"summary"`
	CustomerNeeds []string `json:"customer_needs"`
	BuyingSignals []string `json:"buying_signals"`
	Objections    []string `json:"objections"`
	LeadScore     int      `json:"lead_score"`
	ActionItems   []string `json:"action_items"`
	NextSteps     string   `json:"next_steps"`
}

type EmailDraft struct {
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	ToneUsed string `json:"tone_used"`
}

// CoachingTip is nullable end to end: a nil tip with a success envelope means
// "nothing useful to say right now".
type CoachingTip struct {
	Tip      string `json:"tip"`
	Category string `json:"category"`
	Urgency  string `json:"urgency"`
}

const (
	TranscriptionStatusQueued     = "queued"
	TranscriptionStatusProcessing = "processing"
	TranscriptionStatusCompleted  = "completed"
	TranscriptionStatusError      = "error"
)

type Utterance struct {
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	StartMS    int     `json:"start_ms"`
	EndMS      int     `json:"end_ms"`
	Confidence float64 `json:"confidence"`
}

type TranscriptionResult struct {
	JobID      string      `json:"job_id"`
	Status     string      `json:"status"`
	Text       string      `json:"text,omitempty"`
	Utterances []Utterance `json:"utterances,omitempty"`
}

type UploadGrant struct {
	UploadURL string    `json:"upload_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

type DownloadGrant struct {
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}
