package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/i474232898/ambient-weather/internal/metrics"
	"github.com/i474232898/ambient-weather/pkg/ambient"
)

// ErrVendorUnavailable is returned while the circuit breaker is open.
var ErrVendorUnavailable = errors.New("vendor API unavailable")

// Service polls one device through the vendor client, keeps what it
// receives in a Store and forwards new snapshots to the configured sinks.
type Service struct {
	fetcher Fetcher
	creds   ambient.Credentials
	device  string
	store   Store
	sinks   []Sink
	metrics *metrics.Metrics
	logger  logrus.FieldLogger
	breaker *gobreaker.CircuitBreaker

	breakerMaxFailures uint32
	breakerTimeout     time.Duration
}

type Option func(*Service)

// WithSink adds a sink that receives every newly stored snapshot.
func WithSink(sink Sink) Option {
	return func(s *Service) {
		s.sinks = append(s.sinks, sink)
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithBreaker opens the circuit after maxFailures consecutive vendor
// failures and keeps it open for timeout.
func WithBreaker(maxFailures uint32, timeout time.Duration) Option {
	return func(s *Service) {
		s.breakerMaxFailures = maxFailures
		s.breakerTimeout = timeout
	}
}

// NewService creates a new Service.
func NewService(fetcher Fetcher, creds ambient.Credentials, store Store, logger logrus.FieldLogger, opts ...Option) *Service {
	s := &Service{
		fetcher:            fetcher,
		creds:              creds,
		device:             creds.Device().String(),
		store:              store,
		logger:             logger,
		breakerMaxFailures: 5,
		breakerTimeout:     10 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ambient",
		MaxRequests: 1,
		Timeout:     s.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.breakerMaxFailures
		},
		// The vendor answered; the device simply has nothing to report.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ambient.ErrNoData) || errors.Is(err, ambient.ErrDeviceNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
			if s.metrics != nil {
				s.metrics.BreakerState.Set(float64(to))
			}
		},
	})

	return s
}

// Device returns the key snapshots of the polled device are stored under.
func (s *Service) Device() string {
	return s.device
}

// FetchAndStore fetches the latest observation and stores it. An
// observation already in the store is not forwarded to the sinks again.
func (s *Service) FetchAndStore(ctx context.Context) error {
	res, err := s.call("latest", func() (interface{}, error) {
		return s.fetcher.GetLatest(ctx, s.creds)
	})
	if err != nil {
		return fmt.Errorf("fetch latest observation: %w", err)
	}

	snapshot := NewSnapshot(s.device, res.(ambient.Observation), time.Now())
	if !s.store.SaveSnapshot(snapshot) {
		s.logger.WithField("timestamp", snapshot.Timestamp).Debug("latest observation already stored")
		return nil
	}

	s.afterSave(ctx, []Snapshot{snapshot})
	return nil
}

// Backfill loads up to limit historic observations into the store and
// returns how many were new.
func (s *Service) Backfill(ctx context.Context, limit int) (int, error) {
	res, err := s.call("historic", func() (interface{}, error) {
		return s.fetcher.GetHistoric(ctx, s.creds, ambient.HistoricQuery{Limit: limit})
	})
	if err != nil {
		return 0, fmt.Errorf("fetch historic observations: %w", err)
	}

	// The vendor sends newest first; store oldest first.
	records := res.([]ambient.Observation)
	now := time.Now()
	added := make([]Snapshot, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		snapshot := NewSnapshot(s.device, records[i], now)
		if s.store.SaveSnapshot(snapshot) {
			added = append(added, snapshot)
		}
	}

	if len(added) > 0 {
		s.afterSave(ctx, added)
	}

	s.logger.WithFields(logrus.Fields{
		"received": len(records),
		"added":    len(added),
	}).Info("backfill completed")

	return len(added), nil
}

// Devices lists the account's devices straight from the vendor.
func (s *Service) Devices(ctx context.Context) ([]ambient.Device, error) {
	res, err := s.call("devices", func() (interface{}, error) {
		return s.fetcher.ListDevices(ctx, s.creds)
	})
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return res.([]ambient.Device), nil
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest() (Snapshot, error) {
	return s.store.GetLatest(s.device)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(from, to time.Time) ([]Snapshot, error) {
	return s.store.GetRange(s.device, from, to)
}

// Summary summarizes the stored observations between from and to.
func (s *Service) Summary(from, to time.Time) (Summary, error) {
	snapshots, err := s.store.GetRange(s.device, from, to)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(s.device, from, to, snapshots), nil
}

func (s *Service) call(operation string, fn func() (interface{}, error)) (interface{}, error) {
	start := time.Now()
	res, err := s.breaker.Execute(fn)

	if s.metrics != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		s.metrics.Requests.WithLabelValues(operation, result).Inc()
		s.metrics.Latency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrVendorUnavailable, err)
	}
	return res, err
}

func (s *Service) afterSave(ctx context.Context, snapshots []Snapshot) {
	if s.metrics != nil {
		s.metrics.Stored.Set(float64(s.store.Len(s.device)))
	}

	for _, sink := range s.sinks {
		if err := sink.Write(ctx, snapshots); err != nil {
			// Sinks are best effort; the store already has the data.
			s.logger.WithError(err).WithField("sink", sink.Name()).Error("sink write failed")
			if s.metrics != nil {
				s.metrics.SinkFailures.WithLabelValues(sink.Name()).Inc()
			}
		}
	}
}
