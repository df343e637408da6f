package sink

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/i474232898/ambient-weather/internal/weather"
	"github.com/i474232898/ambient-weather/pkg/ambient"
)

// Measurement is the InfluxDB measurement observations are written to.
const Measurement = "ambient_observation"

// InfluxSink writes snapshots to an InfluxDB v2 bucket, one point per
// snapshot tagged with the device key.
type InfluxSink struct {
	client influxdb2.Client
	writer api.WriteAPIBlocking
}

func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	client := influxdb2.NewClient(url, token)
	return &InfluxSink{
		client: client,
		writer: client.WriteAPIBlocking(org, bucket),
	}
}

func (s *InfluxSink) Name() string { return "influxdb" }

// Write sends all snapshots in a single request. Snapshots without any
// sensor value are skipped.
func (s *InfluxSink) Write(ctx context.Context, snapshots []weather.Snapshot) error {
	points := make([]*write.Point, 0, len(snapshots))
	for _, snap := range snapshots {
		fields := observationFields(snap.Observation)
		if len(fields) == 0 {
			continue
		}
		points = append(points, influxdb2.NewPoint(
			Measurement,
			map[string]string{"device": snap.Device},
			fields,
			snap.Timestamp,
		))
	}
	if len(points) == 0 {
		return nil
	}

	if err := s.writer.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("influxdb write: %w", err)
	}
	return nil
}

// Close flushes and releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

// observationFields maps every numeric sensor the observation carries to
// its JSON name. Timestamps are carried by the point itself.
func observationFields(o ambient.Observation) map[string]interface{} {
	fields := make(map[string]interface{})

	v := reflect.ValueOf(o)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "dateutc" {
			continue
		}

		f := v.Field(i)
		if f.Kind() != reflect.Pointer || f.IsNil() {
			continue
		}

		switch e := f.Elem(); e.Kind() {
		case reflect.Float64:
			fields[name] = e.Float()
		case reflect.Int, reflect.Int64:
			fields[name] = float64(e.Int())
		}
	}

	return fields
}
