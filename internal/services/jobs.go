package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrJobUnknown means no ownership record exists for a job id.
var ErrJobUnknown = errors.New("transcription job not found")

const jobOwnerTTL = 7 * 24 * time.Hour

// JobRegistry persists which user owns each transcription job. Ownership is
// written at submission and consulted on every poll before any vendor result
// is released. Redis is the fast path, PostgreSQL the durable record.
type JobRegistry struct {
	db     DatabaseQuerier
	redis  *redis.Client
	logger *logrus.Logger
}

func NewJobRegistry(db DatabaseQuerier, redisClient *redis.Client, logger *logrus.Logger) *JobRegistry {
	return &JobRegistry{
		db:     db,
		redis:  redisClient,
		logger: logger,
	}
}

const insertJobSQL = `
	INSERT INTO transcription_jobs (job_id, user_id, status, created_at)
	VALUES ($1, $2, $3, $4)`

const selectJobOwnerSQL = `
	SELECT user_id FROM transcription_jobs
	WHERE job_id = $1`

func jobOwnerKey(jobID string) string {
	return fmt.Sprintf("job_owner:%s", jobID)
}

// Register stores the job -> owner mapping. The durable insert must succeed;
// the cache write is best effort.
func (r *JobRegistry) Register(ctx context.Context, jobID string, userID uuid.UUID, status string) error {
	_, err := r.db.Exec(ctx, insertJobSQL, jobID, userID, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", jobID, err)
	}

	if err := r.redis.Set(ctx, jobOwnerKey(jobID), userID.String(), jobOwnerTTL).Err(); err != nil {
		r.logger.WithError(err).WithField("job_id", jobID).Warn("Failed to cache job owner")
	}

	r.logger.WithFields(logrus.Fields{
		"job_id":  jobID,
		"user_id": userID,
		"status":  status,
	}).Info("Transcription job registered")

	return nil
}

// Owner resolves the owning user for a job id, Redis first with PostgreSQL
// fallback.
func (r *JobRegistry) Owner(ctx context.Context, jobID string) (uuid.UUID, error) {
	cached, err := r.redis.Get(ctx, jobOwnerKey(jobID)).Result()
	if err == nil {
		if owner, parseErr := uuid.Parse(cached); parseErr == nil {
			return owner, nil
		}
	} else if err != redis.Nil {
		r.logger.WithError(err).WithField("job_id", jobID).Warn("Failed to read job owner from Redis")
	}

	var owner uuid.UUID
	err = r.db.QueryRow(ctx, selectJobOwnerSQL, jobID).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrJobUnknown
		}
		return uuid.Nil, fmt.Errorf("failed to load job owner: %w", err)
	}

	if err := r.redis.Set(ctx, jobOwnerKey(jobID), owner.String(), jobOwnerTTL).Err(); err != nil {
		r.logger.WithError(err).WithField("job_id", jobID).Warn("Failed to restore job owner to Redis")
	}

	return owner, nil
}
