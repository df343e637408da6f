package weather

import (
	"context"
	"time"

	"github.com/i474232898/ambient-weather/pkg/ambient"
)

// Fetcher is the part of the vendor client the poller needs.
// *ambient.Client satisfies it.
type Fetcher interface {
	GetLatest(ctx context.Context, creds ambient.Credentials) (ambient.Observation, error)
	GetHistoric(ctx context.Context, creds ambient.Credentials, q ambient.HistoricQuery) ([]ambient.Observation, error)
	ListDevices(ctx context.Context, creds ambient.Credentials) ([]ambient.Device, error)
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	SaveSnapshot(snapshot Snapshot) bool
	GetLatest(device string) (Snapshot, error)
	GetRange(device string, from, to time.Time) ([]Snapshot, error)
	Len(device string) int
}

// Sink receives every newly stored snapshot, e.g. a time-series database.
type Sink interface {
	Name() string
	Write(ctx context.Context, snapshots []Snapshot) error
}
