package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dealsense/salesapi/internal/messaging"
	"github.com/dealsense/salesapi/pkg/models"
)

// QuotaLedger decides whether a user may consume one unit of a feature this
// month and records consumption after the provider call succeeds. The only
// state is the append-only usage_records table; each decision is computed
// fresh per call.
//
// Two concurrent requests from one user near the cap can both pass Check
// before either Record lands. The window is accepted: the ledger is
// insert-only so there is no write contention, and serializing the
// check/record pair would change latency characteristics for an exact cap
// nobody depends on.
type QuotaLedger struct {
	db     DatabaseQuerier
	policy models.RateLimitPolicy
	bus    *messaging.EventBus
	logger *logrus.Logger
	now    func() time.Time
}

func NewQuotaLedger(db DatabaseQuerier, policy models.RateLimitPolicy, bus *messaging.EventBus, logger *logrus.Logger) *QuotaLedger {
	return &QuotaLedger{
		db:     db,
		policy: policy,
		bus:    bus,
		logger: logger,
		now:    time.Now,
	}
}

const countUsageSQL = `
	SELECT COUNT(*) FROM usage_records
	WHERE user_id = $1 AND feature = $2 AND month_bucket = $3`

const insertUsageSQL = `
	INSERT INTO usage_records (user_id, feature, month_bucket, created_at)
	VALUES ($1, $2, $3, $4)`

const statsUsageSQL = `
	SELECT feature, COUNT(*) FROM usage_records
	WHERE user_id = $1 AND month_bucket = $2
	GROUP BY feature`

// Check returns the allow/deny decision for one unit of a feature.
//
// Unknown features and zero caps are unlimited: a feature absent from the
// policy table is deliberately never limited, and tightening that default
// silently would break callers that ship features ahead of policy entries.
// A failed count lookup fails closed: an unreachable usage store must never
// read as "no usage yet, allow".
func (l *QuotaLedger) Check(ctx context.Context, userID uuid.UUID, tier models.Tier, feature models.Feature) models.QuotaDecision {
	limit, known := l.policy.Limit(feature, tier)
	if !known {
		return models.QuotaDecision{Allowed: true, Remaining: -1, Limit: 0}
	}
	if limit == 0 {
		return models.QuotaDecision{Allowed: true, Remaining: -1, Limit: 0}
	}

	bucket := models.MonthBucket(l.now())

	var used int
	err := l.db.QueryRow(ctx, countUsageSQL, userID, string(feature), bucket).Scan(&used)
	if err != nil {
		l.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"feature": feature,
		}).Error("Usage count lookup failed, denying request")
		return models.QuotaDecision{Allowed: false, Remaining: 0, Limit: limit}
	}

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	return models.QuotaDecision{
		Allowed:   used < limit,
		Remaining: remaining,
		Limit:     limit,
	}
}

// Record appends one usage record for a call that already succeeded. An
// insert failure is logged and swallowed: a lost record under-counts future
// checks, but it must not overturn a response the user already earned.
func (l *QuotaLedger) Record(ctx context.Context, userID uuid.UUID, feature models.Feature) {
	now := l.now()
	rec := models.UsageRecord{
		UserID:      userID,
		Feature:     feature,
		MonthBucket: models.MonthBucket(now),
		CreatedAt:   now,
	}

	_, err := l.db.Exec(ctx, insertUsageSQL, rec.UserID, string(rec.Feature), rec.MonthBucket, rec.CreatedAt)
	if err != nil {
		l.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"feature": feature,
		}).Error("Failed to record usage")
		return
	}

	if err := l.bus.PublishUsage(ctx, messaging.UsageEvent{
		UserID:      rec.UserID,
		Feature:     rec.Feature,
		MonthBucket: rec.MonthBucket,
		Timestamp:   rec.CreatedAt,
	}); err != nil {
		l.logger.WithError(err).Warn("Failed to publish usage event")
	}
}

// Stats reports current-month usage for every known feature. This is a
// read-only diagnostic, so a failed query fails open to an empty map rather
// than a partial one.
func (l *QuotaLedger) Stats(ctx context.Context, userID uuid.UUID, tier models.Tier) map[models.Feature]models.FeatureUsage {
	bucket := models.MonthBucket(l.now())

	rows, err := l.db.Query(ctx, statsUsageSQL, userID, bucket)
	if err != nil {
		l.logger.WithError(err).WithField("user_id", userID).Error("Usage stats query failed")
		return map[models.Feature]models.FeatureUsage{}
	}
	defer rows.Close()

	used := make(map[models.Feature]int)
	for rows.Next() {
		var feature string
		var count int
		if err := rows.Scan(&feature, &count); err != nil {
			l.logger.WithError(err).WithField("user_id", userID).Error("Usage stats scan failed")
			return map[models.Feature]models.FeatureUsage{}
		}
		used[models.Feature(feature)] = count
	}
	if err := rows.Err(); err != nil {
		l.logger.WithError(err).WithField("user_id", userID).Error("Usage stats rows failed")
		return map[models.Feature]models.FeatureUsage{}
	}

	stats := make(map[models.Feature]models.FeatureUsage, len(models.KnownFeatures))
	for _, feature := range models.KnownFeatures {
		limit, _ := l.policy.Limit(feature, tier)
		if limit == 0 {
			stats[feature] = models.FeatureUsage{Used: used[feature], Limit: -1, Remaining: -1}
			continue
		}

		remaining := limit - used[feature]
		if remaining < 0 {
			remaining = 0
		}
		stats[feature] = models.FeatureUsage{Used: used[feature], Limit: limit, Remaining: remaining}
	}

	return stats
}
