package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/dealsense/salesapi/internal/database"
)

type HealthService struct {
	logger *logrus.Logger
	db     *database.Database

	healthCheckStatus *prometheus.GaugeVec
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func NewHealthService(logger *logrus.Logger, db *database.Database) *HealthService {
	return &HealthService{
		logger: logger,
		db:     db,
		healthCheckStatus: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "health_check_status",
			Help: "Health check status (1 = healthy, 0 = unhealthy)",
		}, []string{"service"}),
	}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Services:  make(map[string]string),
	}

	if err := s.db.PG.Ping(ctx); err != nil {
		s.logger.WithError(err).Warn("PostgreSQL health check failed")
		status.Services["postgres"] = "unhealthy"
		status.Status = "degraded"
		s.healthCheckStatus.WithLabelValues("postgres").Set(0)
	} else {
		status.Services["postgres"] = "healthy"
		s.healthCheckStatus.WithLabelValues("postgres").Set(1)
	}

	if err := s.db.Redis.Ping(ctx).Err(); err != nil {
		s.logger.WithError(err).Warn("Redis health check failed")
		status.Services["redis"] = "unhealthy"
		status.Status = "degraded"
		s.healthCheckStatus.WithLabelValues("redis").Set(0)
	} else {
		status.Services["redis"] = "healthy"
		s.healthCheckStatus.WithLabelValues("redis").Set(1)
	}

	return status
}
