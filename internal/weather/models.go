package weather

import (
	"time"

	"github.com/i474232898/ambient-weather/pkg/ambient"
)

// Snapshot is one observation as kept by the poller.
type Snapshot struct {
	Device      string              `json:"device"`
	Timestamp   time.Time           `json:"timestamp"` // always UTC
	Observation ambient.Observation `json:"observation"`
}

// NewSnapshot stamps an observation with its own timestamp, or with the
// receive time when the device did not send one.
func NewSnapshot(device string, obs ambient.Observation, received time.Time) Snapshot {
	ts, ok := obs.Time()
	if !ok {
		ts = received.UTC()
	}
	return Snapshot{
		Device:      device,
		Timestamp:   ts,
		Observation: obs,
	}
}

// Stat summarizes one sensor over a range. Samples counts the observations
// that reported the sensor.
type Stat struct {
	Samples int     `json:"samples"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
}

// Summary describes stored observations between From and To. A nil Stat
// means no observation in the range reported that sensor.
type Summary struct {
	Device string    `json:"device"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
	Count  int       `json:"count"`

	TempF          *Stat `json:"tempf,omitempty"`
	Humidity       *Stat `json:"humidity,omitempty"`
	WindSpeedMPH   *Stat `json:"windspeedmph,omitempty"`
	WindGustMPH    *Stat `json:"windgustmph,omitempty"`
	BaromRelIn     *Stat `json:"baromrelin,omitempty"`
	SolarRadiation *Stat `json:"solarradiation,omitempty"`
	UV             *Stat `json:"uv,omitempty"`

	// DailyRainIn is the largest daily rain counter seen in the range.
	DailyRainIn *float64 `json:"dailyrainin,omitempty"`
}
