package models

import (
	"time"

	"github.com/google/uuid"
)

// Feature identifies a billable capability. It indexes both the quota policy
// table and usage records.
type Feature string

const (
	FeatureOCR        Feature = "ocr"
	FeatureAnalyze    Feature = "analyze"
	FeatureEmail      Feature = "email"
	FeatureCoach      Feature = "coach"
	FeatureTranscribe Feature = "transcribe"
	FeatureUpload     Feature = "upload"
)

// KnownFeatures lists every feature the ledger reports stats for, in a stable
// order.
var KnownFeatures = []Feature{
	FeatureOCR,
	FeatureAnalyze,
	FeatureEmail,
	FeatureCoach,
	FeatureTranscribe,
	FeatureUpload,
}

// RateLimitPolicy maps feature -> tier -> monthly cap. A cap of 0 means
// unlimited. Loaded once from configuration at startup and immutable after.
type RateLimitPolicy map[Feature]map[Tier]int

// Limit returns the monthly cap for a feature/tier pair and whether the
// feature is known to the policy at all. A tier missing from a known feature's
// table defaults to 0 (unlimited).
func (p RateLimitPolicy) Limit(feature Feature, tier Tier) (limit int, known bool) {
	table, ok := p[feature]
	if !ok {
		return 0, false
	}
	return table[tier], true
}

// QuotaDecision is the ephemeral allow/deny result of a single quota check.
// Remaining of -1 signals "unlimited"; decisions are never persisted.
type QuotaDecision struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
	Limit     int  `json:"limit"`
}

// UsageRecord is one billable call. Append-only: written after a provider
// call succeeds, never updated or deleted by this service.
type UsageRecord struct {
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Feature     Feature   `json:"feature" db:"feature"`
	MonthBucket string    `json:"month_bucket" db:"month_bucket"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// FeatureUsage is one row of the usage-stats report. Unlimited features
// report Limit and Remaining of -1.
type FeatureUsage struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// MonthBucket returns the YYYY-MM partition key usage is counted under.
// Derived from wall-clock time at write time.
func MonthBucket(t time.Time) string {
	return t.UTC().Format("2006-01")
}
