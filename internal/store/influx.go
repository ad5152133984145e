package store

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/rickykhulal/bolt-earth/internal/fusion"
	"github.com/rickykhulal/bolt-earth/internal/weather"
)

const measurement = "merged_reading"

// InfluxConfig holds the connection settings for the snapshot sink.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// InfluxSink writes every stored snapshot to InfluxDB as one point.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

func NewInfluxSink(cfg InfluxConfig) (*InfluxSink, error) {
	if cfg.URL == "" || cfg.Token == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx config incomplete")
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}, nil
}

func (s *InfluxSink) Write(ctx context.Context, snap weather.Snapshot) error {
	if err := s.writeAPI.WritePoint(ctx, SnapshotToPoint(snap)); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}

func (s *InfluxSink) Close() {
	s.client.Close()
}

// SnapshotToPoint converts a snapshot into a line-protocol point. Quantities
// that were unknown are left out rather than written as zero.
func SnapshotToPoint(snap weather.Snapshot) *write.Point {
	m := snap.Reading

	tags := map[string]string{
		"location": snap.Location.Key(),
	}
	if m.DataSource != "" {
		tags["data_source"] = m.DataSource
	}
	if m.AQISource != "" {
		tags["aqi_source"] = m.AQISource
	}

	fields := map[string]interface{}{
		"lat": m.Lat,
		"lng": m.Lng,
	}
	for _, q := range fusion.Quantities {
		if v, ok := m.Value(q); ok {
			fields[string(q)] = v
		}
	}
	if m.AQI != nil {
		fields["aqi"] = *m.AQI
	}

	return influxdb2.NewPoint(measurement, tags, fields, snap.Timestamp)
}

var _ weather.Sink = (*InfluxSink)(nil)
