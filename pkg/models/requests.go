package models

// Request bodies for the protected endpoints. Structural validation only:
// numeric bounds and enums are enforced with validator tags, free text gets
// length bounds.

type CardScanRequest struct {
	ImageURL string `json:"image_url" validate:"required,url,max=2048"`
}

type TranscriptAnalysisRequest struct {
	Transcript string `json:"transcript" validate:"required,min=1,max=50000"`
	Context    string `json:"context,omitempty" validate:"omitempty,max=2000"`
}

type FollowUpEmailRequest struct {
	LeadName       string `json:"lead_name" validate:"required,min=1,max=200"`
	Company        string `json:"company,omitempty" validate:"omitempty,max=200"`
	MeetingSummary string `json:"meeting_summary" validate:"required,min=1,max=10000"`
	Tone           string `json:"tone" validate:"required,oneof=professional friendly concise"`
	SenderName     string `json:"sender_name" validate:"required,min=1,max=200"`
}

type CoachingTipRequest struct {
	Chunk   string `json:"chunk" validate:"required,min=1,max=4000"`
	Context string `json:"context,omitempty" validate:"omitempty,max=2000"`
}

type TranscriptionSubmitRequest struct {
	AudioURL string `json:"audio_url" validate:"required,url,max=2048"`
}

type UploadURLRequest struct {
	Category string `json:"category" validate:"required,oneof=cards audio exports"`
	Filename string `json:"filename" validate:"required,min=1,max=255"`
}
