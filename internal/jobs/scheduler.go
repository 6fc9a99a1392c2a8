package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/khanglvm/moodbrain/internal/brain"
)

// updateTimeout bounds one scheduled brain update.
const updateTimeout = 5 * time.Minute

// Scheduler runs the brain updater on a schedule.
type Scheduler struct {
	scheduler gocron.Scheduler
	updater   Updater
	reloader  Reloader
	mode      RetrainMode
	logger    *zap.Logger
}

// NewScheduler creates a stopped scheduler. reloader may be nil unless mode
// is RetrainAfterUpdate.
func NewScheduler(updater Updater, reloader Reloader, mode RetrainMode, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mode == RetrainAfterUpdate && reloader == nil {
		return nil, errors.New("after-update retrain mode requires a reloader")
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: scheduler,
		updater:   updater,
		reloader:  reloader,
		mode:      mode,
		logger:    logger,
	}, nil
}

// ScheduleUpdate registers the brain update. spec is either a Go duration
// ("15m", "1h") or a five-field cron expression ("0 3 * * *").
func (s *Scheduler) ScheduleUpdate(spec string) error {
	definition, err := parseSchedule(spec)
	if err != nil {
		return err
	}

	_, err = s.scheduler.NewJob(
		definition,
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
			defer cancel()
			if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, brain.ErrUpdateInProgress) {
				s.logger.Warn("Scheduled brain update failed", zap.Error(err))
			}
		}),
		gocron.WithName("brain_update"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule brain update: %w", err)
	}

	s.logger.Info("Brain update scheduled", zap.String("schedule", spec), zap.String("retrainMode", string(s.mode)))
	return nil
}

// ValidateSchedule reports whether spec is a usable update schedule. Cron
// expressions are checked by building a job on a scheduler that never starts.
func ValidateSchedule(spec string) (err error) {
	def, err := parseSchedule(spec)
	if err != nil {
		return err
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	defer func() {
		err = multierr.Append(err, s.Shutdown())
	}()

	if _, err := s.NewJob(def, gocron.NewTask(func() {})); err != nil {
		return fmt.Errorf("invalid update schedule %q: %w", spec, err)
	}
	return nil
}

func parseSchedule(spec string) (gocron.JobDefinition, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, errors.New("empty update schedule")
	}
	if d, err := time.ParseDuration(spec); err == nil {
		if d <= 0 {
			return nil, fmt.Errorf("update interval must be positive, got %s", spec)
		}
		return gocron.DurationJob(d), nil
	}
	if len(strings.Fields(spec)) != 5 {
		return nil, fmt.Errorf("invalid update schedule %q: want a duration or a 5-field cron expression", spec)
	}
	return gocron.CronJob(spec, false), nil
}

// RunOnce runs one brain update and, in after-update mode, reloads the model
// if the update accepted new examples.
func (s *Scheduler) RunOnce(ctx context.Context) (brain.Report, error) {
	report, err := s.updater.Run(ctx)
	if err != nil {
		return report, err
	}

	if s.mode == RetrainAfterUpdate && report.Accepted > 0 {
		if err := s.reloader.Reload(ctx); err != nil {
			return report, fmt.Errorf("reload after update: %w", err)
		}
		s.logger.Info("Model reloaded after brain update", zap.Int("accepted", report.Accepted))
	}
	return report, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Shutdown stops the scheduler and waits for a running job.
func (s *Scheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}
