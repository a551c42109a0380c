package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/dealsense/salesapi/pkg/models"
)

// ErrProfileNotFound means the billing system has no subscription record for
// the authenticated user.
var ErrProfileNotFound = errors.New("user profile not found")

// ProfileService reads billing-owned subscription records. This service
// never writes them.
type ProfileService struct {
	db     DatabaseQuerier
	logger *logrus.Logger
}

func NewProfileService(db DatabaseQuerier, logger *logrus.Logger) *ProfileService {
	return &ProfileService{
		db:     db,
		logger: logger,
	}
}

const selectProfileSQL = `
	SELECT user_id, tier, trial_expiry FROM user_profiles
	WHERE user_id = $1`

func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var (
		profile     models.UserProfile
		tierName    string
		trialExpiry *time.Time
	)

	err := s.db.QueryRow(ctx, selectProfileSQL, userID).Scan(&profile.UserID, &tierName, &trialExpiry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	tier, err := models.ParseTier(tierName)
	if err != nil {
		return nil, fmt.Errorf("corrupt profile for %s: %w", userID, err)
	}

	profile.Tier = tier
	profile.TrialExpiry = trialExpiry
	return &profile, nil
}
