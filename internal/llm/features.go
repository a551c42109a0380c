package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dealsense/salesapi/pkg/models"
)

// ExtractCard reads a business-card image and returns structured fields with
// per-field confidence scores.
func (c *Client) ExtractCard(ctx context.Context, imageURL string) (*models.CardExtraction, error) {
	system := "You extract contact details from business card images. " +
		"Respond with only a JSON object containing name, title, company, email, phone, website and address, " +
		"each as {\"value\": string, \"confidence\": integer 0-100}. Use an empty value with confidence 0 for absent fields."

	user := fmt.Sprintf("Extract the contact details from the business card at this URL: %s", imageURL)

	var result models.CardExtraction
	if err := c.completeJSON(ctx, system, user, "card-extraction", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AnalyzeTranscript turns a meeting transcript into structured insights.
func (c *Client) AnalyzeTranscript(ctx context.Context, transcript, meetingContext string) (*models.MeetingInsights, error) {
	system := "You analyze B2B sales meeting transcripts. " +
		"Respond with only a JSON object with keys summary, customer_needs, buying_signals, objections, " +
		"lead_score (integer 0-100), action_items and next_steps."

	user := fmt.Sprintf("Transcript:\n%s", transcript)
	if meetingContext != "" {
		user = fmt.Sprintf("Context: %s\n\n%s", meetingContext, user)
	}

	var result models.MeetingInsights
	if err := c.completeJSON(ctx, system, user, "meeting-insights", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DraftEmail writes a follow-up email for a lead in the requested tone.
func (c *Client) DraftEmail(ctx context.Context, req models.FollowUpEmailRequest) (*models.EmailDraft, error) {
	system := "You draft concise B2B sales follow-up emails. " +
		"Respond with only a JSON object with keys subject, body and tone_used."

	user := fmt.Sprintf(
		"Write a %s follow-up email from %s to %s (%s) after this meeting:\n%s",
		req.Tone, req.SenderName, req.LeadName, req.Company, req.MeetingSummary,
	)

	var result models.EmailDraft
	if err := c.completeJSON(ctx, system, user, "email-draft", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CoachTip produces a realtime coaching tip for a short transcript chunk.
// Coaching is non-critical: the call is bounded by the configured coach
// timeout, and any timeout, transport failure or parse failure yields
// (nil, nil) rather than an error so the live conversation flow is never
// interrupted.
func (c *Client) CoachTip(ctx context.Context, chunk, callContext string) (*models.CoachingTip, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CoachTimeout)
	defer cancel()

	system := "You are a realtime sales call coach. If the latest exchange warrants a short actionable tip, " +
		"respond with only a JSON object with keys tip, category and urgency. " +
		"Categories: objection, pricing, closing, rapport, discovery. Urgency: low, medium, high."

	user := fmt.Sprintf("Latest exchange:\n%s", chunk)
	if callContext != "" {
		user = fmt.Sprintf("Call context: %s\n\n%s", callContext, user)
	}

	var result models.CoachingTip
	if err := c.completeJSON(ctx, system, user, "coaching-tip", &result); err != nil {
		c.logger.WithError(err).Debug("Coaching tip skipped")
		return nil, nil
	}
	return &result, nil
}

// completeJSON runs a prompt and decodes the schema-checked JSON answer into
// out.
func (c *Client) completeJSON(ctx context.Context, system, user, schemaName string, out interface{}) error {
	text, err := c.complete(ctx, system, user)
	if err != nil {
		return err
	}

	raw, err := extractJSON(text)
	if err != nil {
		return err
	}

	if err := checkSchema(schemaName, raw); err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	return nil
}
