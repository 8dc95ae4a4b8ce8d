package backup

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	DailySchedule  = "0 2 * * *"
	WeeklySchedule = "0 3 * * 1"
)

// Scheduler runs periodic snapshots on cron schedules.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

func NewScheduler(m *Manager, log *zap.Logger, schedules ...string) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(schedules) == 0 {
		schedules = []string{DailySchedule, WeeklySchedule}
	}

	s := &Scheduler{cron: cron.New(), log: log.Named("backup.scheduler")}
	for _, spec := range schedules {
		spec := spec
		_, err := s.cron.AddFunc(spec, func() {
			if _, err := m.Create(context.Background()); err != nil {
				s.log.Error("scheduled backup failed", zap.String("schedule", spec), zap.Error(err))
			}
		})
		if err != nil {
			return nil, fmt.Errorf("backup scheduler: schedule %q: %w", spec, err)
		}
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.log.Info("backup scheduled", zap.Time("next", e.Next))
	}
}

// Stop halts scheduling and waits for a running backup to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) Len() int { return len(s.cron.Entries()) }
