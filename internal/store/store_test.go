package store

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickykhulal/bolt-earth/internal/fusion"
	"github.com/rickykhulal/bolt-earth/internal/weather"
)

var oslo = weather.Location{City: "Oslo", Country: "NO"}

func snapshotAt(ts time.Time, temp float64) weather.Snapshot {
	return weather.Snapshot{
		ID:        ts.Format(time.RFC3339),
		Location:  oslo,
		Timestamp: ts,
		Reading:   fusion.MergedReading{Temperature: temp, GeneratedAt: ts},
	}
}

func TestMemoryStoreLatestAndRange(t *testing.T) {
	s := NewMemoryStore(0, 0)
	base := time.Date(2025, 10, 4, 12, 0, 0, 0, time.UTC)

	// Inserted out of order on purpose.
	s.SaveSnapshot(oslo, snapshotAt(base.Add(2*time.Hour), 3))
	s.SaveSnapshot(oslo, snapshotAt(base, 1))
	s.SaveSnapshot(oslo, snapshotAt(base.Add(time.Hour), 2))

	latest, err := s.GetLatest(oslo)
	require.NoError(t, err)
	assert.Equal(t, 3.0, latest.Reading.Temperature)

	got, err := s.GetRange(oslo, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1.0, got[0].Reading.Temperature)
	assert.Equal(t, 2.0, got[1].Reading.Temperature)

	got, err = s.GetRange(oslo, base.Add(3*time.Hour), base.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStoreUnknownLocation(t *testing.T) {
	s := NewMemoryStore(10, time.Hour)

	_, err := s.GetLatest(oslo)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetRange(oslo, time.Time{}, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreRetentionByCount(t *testing.T) {
	s := NewMemoryStore(2, 0)
	base := time.Date(2025, 10, 4, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.SaveSnapshot(oslo, snapshotAt(base.Add(time.Duration(i)*time.Minute), float64(i)))
	}

	got, err := s.GetRange(oslo, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3.0, got[0].Reading.Temperature)

	// Trimmed history is reallocated, not a window onto the old array.
	kept := s.data[oslo.Key()]
	assert.Equal(t, len(kept), cap(kept))
}

func TestMemoryStoreRetentionByAgeKeepsNewest(t *testing.T) {
	now := time.Date(2025, 10, 4, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(0, time.Hour)
	s.now = func() time.Time { return now }

	s.SaveSnapshot(oslo, snapshotAt(now.Add(-3*time.Hour), 1))
	s.SaveSnapshot(oslo, snapshotAt(now.Add(-2*time.Hour), 2))

	got, err := s.GetRange(oslo, time.Time{}, now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].Reading.Temperature)

	s.SaveSnapshot(oslo, snapshotAt(now.Add(-10*time.Minute), 3))
	got, err = s.GetRange(oslo, time.Time{}, now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3.0, got[0].Reading.Temperature)
}

func TestSnapshotToPointSkipsMissing(t *testing.T) {
	aqi := 42
	snap := weather.Snapshot{
		Location:  oslo,
		Timestamp: time.Date(2025, 10, 4, 12, 0, 0, 0, time.UTC),
		Reading: fusion.MergedReading{
			Temperature: 8.5,
			PM25:        10,
			AQI:         &aqi,
			AQISource:   fusion.AQISourceComputed,
			DataSource:  "Meteostat + OpenAQ",
			Missing:     []fusion.Quantity{fusion.Humidity, fusion.WindSpeed},
		},
	}

	p := SnapshotToPoint(snap)
	assert.Equal(t, measurement, p.Name())

	fields := map[string]interface{}{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, 8.5, fields["temperature"])
	assert.Equal(t, int64(42), fields["aqi"])
	assert.NotContains(t, fields, "humidity")
	assert.NotContains(t, fields, "windSpeed")
	assert.Contains(t, fields, "precipitation")

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, "Oslo:NO", tags["location"])
	assert.Equal(t, fusion.AQISourceComputed, tags["aqi_source"])
}

func TestInfluxSinkWritesLineProtocol(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/write", r.URL.Path)
		assert.Equal(t, "bolt", r.URL.Query().Get("bucket"))
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink, err := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "t", Org: "earth", Bucket: "bolt"})
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Write(context.Background(), snapshotAt(time.Date(2025, 10, 4, 12, 0, 0, 0, time.UTC), 8)))
	assert.Contains(t, body, "merged_reading,")
	assert.Contains(t, body, "temperature=8")
}

func TestInfluxSinkRequiresConfig(t *testing.T) {
	_, err := NewInfluxSink(InfluxConfig{URL: "http://localhost:8086"})
	assert.Error(t, err)
}
