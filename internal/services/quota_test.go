package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealsense/salesapi/pkg/models"
)

func testPolicy() models.RateLimitPolicy {
	return models.RateLimitPolicy{
		models.FeatureOCR: {
			models.TierBasic:    50,
			models.TierPro:      500,
			models.TierBusiness: 0,
		},
		models.FeatureEmail: {
			models.TierBasic: 3,
			models.TierPro:   100,
		},
	}
}

func newTestLedger(t *testing.T) (*QuotaLedger, pgxmock.PgxPoolIface) {
	t.Helper()

	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockDB.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	return NewQuotaLedger(mockDB, testPolicy(), nil, logger), mockDB
}

func TestQuotaLedger_Check(t *testing.T) {
	userID := uuid.New()
	bucket := models.MonthBucket(time.Now())

	t.Run("under the cap is allowed", func(t *testing.T) {
		ledger, mockDB := newTestLedger(t)

		mockDB.ExpectQuery("SELECT COUNT").
			WithArgs(userID, "ocr", bucket).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(49))

		decision := ledger.Check(context.Background(), userID, models.TierBasic, models.FeatureOCR)

		assert.True(t, decision.Allowed)
		assert.Equal(t, 1, decision.Remaining)
		assert.Equal(t, 50, decision.Limit)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("at the cap is denied", func(t *testing.T) {
		ledger, mockDB := newTestLedger(t)

		mockDB.ExpectQuery("SELECT COUNT").
			WithArgs(userID, "ocr", bucket).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(50))

		decision := ledger.Check(context.Background(), userID, models.TierBasic, models.FeatureOCR)

		assert.False(t, decision.Allowed)
		assert.Equal(t, 0, decision.Remaining)
		assert.Equal(t, 50, decision.Limit)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("zero cap is unlimited and never touches the database", func(t *testing.T) {
		ledger, mockDB := newTestLedger(t)

		decision := ledger.Check(context.Background(), userID, models.TierBusiness, models.FeatureOCR)

		assert.True(t, decision.Allowed)
		assert.Equal(t, -1, decision.Remaining)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("tier missing from a feature table is unlimited", func(t *testing.T) {
		ledger, mockDB := newTestLedger(t)

		decision := ledger.Check(context.Background(), userID, models.TierBusiness, models.FeatureEmail)

		assert.True(t, decision.Allowed)
		assert.Equal(t, -1, decision.Remaining)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("unknown feature is unlimited", func(t *testing.T) {
		ledger, mockDB := newTestLedger(t)

		decision := ledger.Check(context.Background(), userID, models.TierBasic, models.Feature("holograms"))

		assert.True(t, decision.Allowed)
		assert.Equal(t, -1, decision.Remaining)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("count failure fails closed", func(t *testing.T) {
		ledger, mockDB := newTestLedger(t)

		mockDB.ExpectQuery("SELECT COUNT").
			WithArgs(userID, "ocr", bucket).
			WillReturnError(errors.New("connection refused"))

		decision := ledger.Check(context.Background(), userID, models.TierBasic, models.FeatureOCR)

		assert.False(t, decision.Allowed)
		assert.Equal(t, 0, decision.Remaining)
		assert.Equal(t, 50, decision.Limit)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("usage above the cap clamps remaining to zero", func(t *testing.T) {
		ledger, mockDB := newTestLedger(t)

		mockDB.ExpectQuery("SELECT COUNT").
			WithArgs(userID, "email", bucket).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))

		decision := ledger.Check(context.Background(), userID, models.TierBasic, models.FeatureEmail)

		assert.False(t, decision.Allowed)
		assert.Equal(t, 0, decision.Remaining)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})
}

func TestQuotaLedger_Record(t *testing.T) {
	userID := uuid.New()

	t.Run("appends one usage record", func(t *testing.T) {
		ledger, mockDB := newTestLedger(t)

		mockDB.ExpectExec("INSERT INTO usage_records").
			WithArgs(userID, "email", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		ledger.Record(context.Background(), userID, models.FeatureEmail)

		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("insert failure is swallowed", func(t *testing.T) {
		ledger, mockDB := newTestLedger(t)

		mockDB.ExpectExec("INSERT INTO usage_records").
			WithArgs(userID, "email", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(errors.New("connection refused"))

		assert.NotPanics(t, func() {
			ledger.Record(context.Background(), userID, models.FeatureEmail)
		})
		require.NoError(t, mockDB.ExpectationsWereMet())
	})
}

// Walks a three-call monthly cap from fresh to exhausted the way the handlers
// drive it (check, call provider, record), then crosses into the next month
// and verifies the budget is fresh again.
func TestQuotaLedger_CapExhaustionAndMonthRollover(t *testing.T) {
	ledger, mockDB := newTestLedger(t)

	userID := uuid.New()
	march := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return march }

	for used := 0; used < 3; used++ {
		mockDB.ExpectQuery("SELECT COUNT").
			WithArgs(userID, "email", "2026-03").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(used))
		mockDB.ExpectExec("INSERT INTO usage_records").
			WithArgs(userID, "email", "2026-03", march).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mockDB.ExpectQuery("SELECT COUNT").
		WithArgs(userID, "email", "2026-03").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	for i := 0; i < 3; i++ {
		decision := ledger.Check(context.Background(), userID, models.TierBasic, models.FeatureEmail)
		require.True(t, decision.Allowed, "call %d should be allowed", i+1)
		assert.Equal(t, 3-i, decision.Remaining)
		ledger.Record(context.Background(), userID, models.FeatureEmail)
	}

	decision := ledger.Check(context.Background(), userID, models.TierBasic, models.FeatureEmail)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 0, decision.Remaining)

	// The calendar flips: the fourth call lands in April's empty bucket.
	april := march.AddDate(0, 1, 0)
	ledger.now = func() time.Time { return april }

	mockDB.ExpectQuery("SELECT COUNT").
		WithArgs(userID, "email", "2026-04").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mockDB.ExpectExec("INSERT INTO usage_records").
		WithArgs(userID, "email", "2026-04", april).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	decision = ledger.Check(context.Background(), userID, models.TierBasic, models.FeatureEmail)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 3, decision.Remaining)
	ledger.Record(context.Background(), userID, models.FeatureEmail)

	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestQuotaLedger_Stats(t *testing.T) {
	userID := uuid.New()
	bucket := models.MonthBucket(time.Now())

	t.Run("reports every known feature", func(t *testing.T) {
		ledger, mockDB := newTestLedger(t)

		mockDB.ExpectQuery("SELECT feature, COUNT").
			WithArgs(userID, bucket).
			WillReturnRows(pgxmock.NewRows([]string{"feature", "count"}).
				AddRow("ocr", 12).
				AddRow("email", 2))

		stats := ledger.Stats(context.Background(), userID, models.TierBasic)

		assert.Len(t, stats, len(models.KnownFeatures))
		assert.Equal(t, models.FeatureUsage{Used: 12, Limit: 50, Remaining: 38}, stats[models.FeatureOCR])
		assert.Equal(t, models.FeatureUsage{Used: 2, Limit: 3, Remaining: 1}, stats[models.FeatureEmail])
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("unlimited features report -1", func(t *testing.T) {
		ledger, mockDB := newTestLedger(t)

		mockDB.ExpectQuery("SELECT feature, COUNT").
			WithArgs(userID, bucket).
			WillReturnRows(pgxmock.NewRows([]string{"feature", "count"}).
				AddRow("ocr", 9))

		stats := ledger.Stats(context.Background(), userID, models.TierBusiness)

		assert.Equal(t, models.FeatureUsage{Used: 9, Limit: -1, Remaining: -1}, stats[models.FeatureOCR])
		assert.Equal(t, models.FeatureUsage{Used: 0, Limit: -1, Remaining: -1}, stats[models.FeatureCoach])
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("query failure fails open to an empty map", func(t *testing.T) {
		ledger, mockDB := newTestLedger(t)

		mockDB.ExpectQuery("SELECT feature, COUNT").
			WithArgs(userID, bucket).
			WillReturnError(errors.New("connection refused"))

		stats := ledger.Stats(context.Background(), userID, models.TierBasic)

		assert.NotNil(t, stats)
		assert.Empty(t, stats)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})
}
