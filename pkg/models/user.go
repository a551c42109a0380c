package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tier is a closed subscription level. Feature access and monthly quota caps
// are keyed by tier.
type Tier string

const (
	TierBasic    Tier = "basic"
	TierPro      Tier = "pro"
	TierBusiness Tier = "business"
)

// TrialTier is the tier granted while a trial window is active.
const TrialTier = TierBusiness

func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierBasic, TierPro, TierBusiness:
		return Tier(s), nil
	}
	return "", fmt.Errorf("unknown tier: %q", s)
}

func (t Tier) String() string {
	return string(t)
}

// UserIdentity is the per-request identity resolved from a bearer token.
// It is never persisted by this service.
type UserIdentity struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserProfile is the billing-owned subscription record. Read-only here;
// external billing systems mutate it.
type UserProfile struct {
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	Tier        Tier       `json:"tier" db:"tier"`
	TrialExpiry *time.Time `json:"trial_expiry,omitempty" db:"trial_expiry"`
}

// EffectiveTier computes the tier used for authorization. A trial window that
// is strictly in the future promotes the user to TrialTier regardless of the
// stored tier. The promotion is recomputed on every request and never stored.
func EffectiveTier(stored Tier, trialExpiry *time.Time, now time.Time) Tier {
	if trialExpiry != nil && trialExpiry.After(now) {
		return TrialTier
	}
	return stored
}

// Effective is a convenience wrapper over EffectiveTier for a loaded profile.
func (p *UserProfile) Effective(now time.Time) Tier {
	return EffectiveTier(p.Tier, p.TrialExpiry, now)
}
