package services

import (
	"context"
	"time"

	"tontinepro/internal/adapters/persistence/repositories"
	"tontinepro/internal/core/domain"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// MaintenanceService runs the scheduled housekeeping jobs
type MaintenanceService struct {
	tontineRepo *repositories.TontineRepository
	cron        *cron.Cron
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(tontineRepo *repositories.TontineRepository) *MaintenanceService {
	return &MaintenanceService{
		tontineRepo: tontineRepo,
		cron:        cron.New(),
	}
}

// Start registers the jobs and starts the scheduler
func (s *MaintenanceService) Start() error {
	// Close out expired tontines shortly after midnight
	if _, err := s.cron.AddFunc("10 0 * * *", func() {
		if err := s.CompleteExpiredTontines(context.Background()); err != nil {
			logrus.WithError(err).Error("expired tontine sweep failed")
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	logrus.Info("maintenance scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *MaintenanceService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// CompleteExpiredTontines marks active tontines whose end date has passed
// as completed
func (s *MaintenanceService) CompleteExpiredTontines(ctx context.Context) error {
	expired, err := s.tontineRepo.ListActivePastEndDate(ctx, time.Now())
	if err != nil {
		return err
	}

	for _, tontine := range expired {
		tontine.Status = string(domain.TontineCompleted)
		if err := s.tontineRepo.Update(ctx, tontine); err != nil {
			logrus.WithError(err).WithField("tontine_id", tontine.ID).Error("failed to complete tontine")
			continue
		}
		logrus.WithFields(logrus.Fields{
			"tontine_id": tontine.ID,
			"code":       tontine.Code,
		}).Info("tontine completed after end date")
	}

	return nil
}
