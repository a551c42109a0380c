package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/dealsense/salesapi/internal/config"
	"github.com/dealsense/salesapi/internal/database"
	"github.com/dealsense/salesapi/internal/messaging"
)

type Services struct {
	Auth     *AuthService
	Profiles *ProfileService
	Quota    *QuotaLedger
	Jobs     *JobRegistry
	Health   *HealthService
	Metrics  *Metrics
	EventBus *messaging.EventBus
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database) (*Services, error) {
	eventBus := messaging.NewEventBus(cfg, logger)

	authService := NewAuthService(cfg, logger, db.Redis)
	profileService := NewProfileService(db.PG, logger)
	quotaLedger := NewQuotaLedger(db.PG, cfg.Quota.Policy(), eventBus, logger)
	jobRegistry := NewJobRegistry(db.PG, db.Redis, logger)
	healthService := NewHealthService(logger, db)
	metrics := NewMetrics(prometheus.DefaultRegisterer)

	return &Services{
		Auth:     authService,
		Profiles: profileService,
		Quota:    quotaLedger,
		Jobs:     jobRegistry,
		Health:   healthService,
		Metrics:  metrics,
		EventBus: eventBus,
	}, nil
}

func (s *Services) Close() error {
	return s.EventBus.Close()
}
