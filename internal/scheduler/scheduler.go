package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Poller is the job the scheduler runs. *weather.Service satisfies it.
type Poller interface {
	FetchAndStore(ctx context.Context) error
}

// Scheduler periodically polls the latest observation.
type Scheduler struct {
	scheduler *gocron.Scheduler
	poller    Poller
	interval  time.Duration
	timeout   time.Duration
	logger    logrus.FieldLogger
}

// New creates a new Scheduler. Each run is bounded by timeout.
func New(poller Poller, interval, timeout time.Duration, logger logrus.FieldLogger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		poller:    poller,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	if _, err := s.scheduler.Every(interval).Do(s.run); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	log := s.logger.WithField("run_id", uuid.NewString())
	log.Debug("running observation fetch job")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.poller.FetchAndStore(ctx); err != nil {
		log.WithError(err).Warn("observation fetch failed")
		return
	}
	log.WithField("duration", time.Since(start)).Debug("completed observation fetch job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
