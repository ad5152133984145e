package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickykhulal/bolt-earth/internal/fusion"
)

func TestCachedProviderReusesBucket(t *testing.T) {
	inner := available(fusion.SourceOpenAQ, func(r *fusion.SourceReading) { r.PM25 = fusion.Float(8) })
	metrics := NewMetrics(prometheus.NewRegistry())
	c := NewCachedProvider(inner, 10*time.Minute, metrics)

	now := time.Date(2025, 10, 4, 12, 1, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	loc := Location{City: "Paris", Country: "FR"}

	_, err := c.Fetch(context.Background(), loc)
	require.NoError(t, err)
	now = now.Add(5 * time.Minute)
	r, err := c.Fetch(context.Background(), loc)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.callCount())
	assert.Equal(t, 8.0, *r.PM25)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cache.WithLabelValues(fusion.SourceOpenAQ, "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cache.WithLabelValues(fusion.SourceOpenAQ, "miss")))

	// Crossing into the next bucket refetches and evicts the old entry.
	now = now.Add(5 * time.Minute)
	_, err = c.Fetch(context.Background(), loc)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.callCount())
	assert.Len(t, c.entries, 1)
}

func TestCachedProviderSeparatesLocations(t *testing.T) {
	inner := available(fusion.SourceOpenAQ, func(r *fusion.SourceReading) { r.PM25 = fusion.Float(8) })
	c := NewCachedProvider(inner, time.Hour, nil)

	_, _ = c.Fetch(context.Background(), Location{City: "Paris", Country: "FR"})
	_, _ = c.Fetch(context.Background(), Location{City: "Lyon", Country: "FR"})
	assert.Equal(t, 2, inner.callCount())
	assert.Equal(t, fusion.SourceOpenAQ, c.Name())
}

func TestCachedProviderSkipsFailures(t *testing.T) {
	failing := &stubProvider{name: "x", err: errors.New("nope")}
	c := NewCachedProvider(failing, time.Hour, nil)
	loc := Location{City: "Paris", Country: "FR"}

	_, err := c.Fetch(context.Background(), loc)
	require.Error(t, err)
	_, err = c.Fetch(context.Background(), loc)
	require.Error(t, err)
	assert.Equal(t, 2, failing.callCount())

	unavailable := &stubProvider{name: "y", reading: fusion.SourceReading{Source: "y"}}
	c = NewCachedProvider(unavailable, time.Hour, nil)
	_, _ = c.Fetch(context.Background(), loc)
	_, _ = c.Fetch(context.Background(), loc)
	assert.Equal(t, 2, unavailable.callCount())
}
