package weather

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickykhulal/bolt-earth/internal/fusion"
)

type stubProvider struct {
	name    string
	reading fusion.SourceReading
	err     error
	delay   time.Duration

	mu    sync.Mutex
	calls int
	seen  []Location
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Fetch(ctx context.Context, loc Location) (fusion.SourceReading, error) {
	p.mu.Lock()
	p.calls++
	p.seen = append(p.seen, loc)
	p.mu.Unlock()

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return fusion.SourceReading{}, ctx.Err()
		}
	}
	if p.err != nil {
		return fusion.SourceReading{}, p.err
	}
	return p.reading, nil
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type memStore struct {
	mu    sync.Mutex
	saved []Snapshot
}

func (m *memStore) SaveSnapshot(_ Location, s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, s)
}

func (m *memStore) GetLatest(Location) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return Snapshot{}, errors.New("not found")
	}
	return m.saved[len(m.saved)-1], nil
}

func (m *memStore) GetRange(Location, time.Time, time.Time) ([]Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved, nil
}

type recordingSink struct {
	err       error
	snapshots []Snapshot
}

func (s *recordingSink) Write(_ context.Context, snap Snapshot) error {
	s.snapshots = append(s.snapshots, snap)
	return s.err
}

type stubResolver struct {
	lat, lng      float64
	city, country string
	err           error
}

func (r stubResolver) Geocode(context.Context, string, string) (float64, float64, error) {
	return r.lat, r.lng, r.err
}

func (r stubResolver) Reverse(context.Context, float64, float64) (string, string, error) {
	return r.city, r.country, r.err
}

func available(name string, fill func(*fusion.SourceReading)) *stubProvider {
	r := fusion.SourceReading{Source: name, Available: true}
	fill(&r)
	return &stubProvider{name: name, reading: r}
}

func TestCollectTurnsFailuresIntoUnavailableRecords(t *testing.T) {
	ok := available(fusion.SourceMeteostat, func(r *fusion.SourceReading) { r.Temperature = fusion.Float(20) })
	failing := &stubProvider{name: fusion.SourceNASAPower, err: errors.New("boom")}
	svc := NewService(&memStore{}, []Provider{ok, failing})

	readings, statuses := svc.Collect(context.Background(), Location{City: "Paris", Country: "FR"})

	require.Len(t, readings, 2)
	assert.True(t, readings[0].Available)
	assert.Equal(t, fusion.SourceNASAPower, readings[1].Source)
	assert.False(t, readings[1].Available)

	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].Available)
	assert.Equal(t, "boom", statuses[1].Error)
}

func TestCollectRunsProvidersConcurrently(t *testing.T) {
	var provs []Provider
	for _, name := range []string{"a", "b", "c", "d"} {
		p := available(name, func(r *fusion.SourceReading) { r.Humidity = fusion.Float(50) })
		p.delay = 100 * time.Millisecond
		provs = append(provs, p)
	}
	svc := NewService(&memStore{}, provs)

	start := time.Now()
	readings, _ := svc.Collect(context.Background(), Location{City: "Oslo", Country: "NO"})

	assert.Len(t, readings, 4)
	assert.Less(t, time.Since(start), 350*time.Millisecond)
}

func TestCurrentMergesReadings(t *testing.T) {
	provs := []Provider{
		available(fusion.SourceMeteostat, func(r *fusion.SourceReading) { r.Temperature = fusion.Float(20) }),
		available(fusion.SourceNASAPower, func(r *fusion.SourceReading) { r.Temperature = fusion.Float(21) }),
		available(fusion.SourceOpenAQ, func(r *fusion.SourceReading) { r.PM25 = fusion.Float(12) }),
	}
	svc := NewService(&memStore{}, provs)

	snap, err := svc.Current(context.Background(), Location{City: "Paris", Country: "FR"})
	require.NoError(t, err)

	assert.NotEmpty(t, snap.ID)
	assert.InDelta(t, 20.5, snap.Reading.Temperature, 1e-9)
	require.NotNil(t, snap.Reading.AQI)
	assert.Equal(t, 50, *snap.Reading.AQI)
	assert.Equal(t, "Meteostat + NASA + OpenAQ (blended)", snap.Reading.DataSource)
	assert.Equal(t, "Paris", snap.Reading.City)
	assert.Equal(t, snap.Reading.GeneratedAt, snap.Timestamp)
}

func TestCurrentWithoutProviders(t *testing.T) {
	svc := NewService(&memStore{}, nil)
	_, err := svc.Current(context.Background(), Location{City: "Paris", Country: "FR"})
	assert.ErrorIs(t, err, ErrNoProviders)
}

func TestCurrentResolvesCoordinates(t *testing.T) {
	p := available(fusion.SourceNASAPower, func(r *fusion.SourceReading) { r.Temperature = fusion.Float(15) })
	svc := NewService(&memStore{}, []Provider{p}, WithResolver(stubResolver{lat: 48.85, lng: 2.35}))

	snap, err := svc.Current(context.Background(), Location{City: "Paris", Country: "FR"})
	require.NoError(t, err)

	require.Len(t, p.seen, 1)
	require.True(t, p.seen[0].HasCoordinates())
	assert.Equal(t, 48.85, *p.seen[0].Lat)
	assert.Equal(t, 2.35, snap.Reading.Lng)
}

func TestCurrentReverseGeocodes(t *testing.T) {
	p := available(fusion.SourceNASAPower, func(r *fusion.SourceReading) { r.Temperature = fusion.Float(15) })
	svc := NewService(&memStore{}, []Provider{p}, WithResolver(stubResolver{city: "Kathmandu", country: "Nepal"}))

	lat, lng := 27.7, 85.3
	snap, err := svc.Current(context.Background(), Location{Lat: &lat, Lng: &lng})
	require.NoError(t, err)
	assert.Equal(t, "Kathmandu", snap.Location.City)
	assert.Equal(t, "Kathmandu", snap.Reading.City)
}

func TestCurrentIgnoresResolverFailure(t *testing.T) {
	p := available(fusion.SourceWeatherAPI, func(r *fusion.SourceReading) { r.Humidity = fusion.Float(40) })
	svc := NewService(&memStore{}, []Provider{p}, WithResolver(stubResolver{err: errors.New("quota")}))

	snap, err := svc.Current(context.Background(), Location{City: "Paris", Country: "FR"})
	require.NoError(t, err)
	assert.False(t, snap.Location.HasCoordinates())
	assert.Equal(t, 40.0, snap.Reading.Humidity)
}

func TestFetchAndStore(t *testing.T) {
	store := &memStore{}
	sink := &recordingSink{}
	p := available(fusion.SourceMeteostat, func(r *fusion.SourceReading) { r.Temperature = fusion.Float(9) })
	svc := NewService(store, []Provider{p}, WithSinks(sink))

	require.NoError(t, svc.FetchAndStore(context.Background(), Location{City: "Oslo", Country: "NO"}))
	require.Len(t, store.saved, 1)
	require.Len(t, sink.snapshots, 1)
	assert.Equal(t, store.saved[0].ID, sink.snapshots[0].ID)

	latest, err := svc.GetLatest(Location{City: "Oslo", Country: "NO"})
	require.NoError(t, err)
	assert.Equal(t, 9.0, latest.Reading.Temperature)
}

func TestFetchAndStoreKeepsLastGoodSnapshot(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, []Provider{&stubProvider{name: "down", err: errors.New("timeout")}})

	require.NoError(t, svc.FetchAndStore(context.Background(), Location{City: "Oslo", Country: "NO"}))
	assert.Empty(t, store.saved)
}

func TestFetchAndStoreReportsSinkFailure(t *testing.T) {
	store := &memStore{}
	sink := &recordingSink{err: errors.New("influx down")}
	p := available(fusion.SourceMeteostat, func(r *fusion.SourceReading) { r.Temperature = fusion.Float(9) })
	svc := NewService(store, []Provider{p}, WithSinks(sink))

	err := svc.FetchAndStore(context.Background(), Location{City: "Oslo", Country: "NO"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "influx down")
	assert.Len(t, store.saved, 1)
}

func TestMetricsRecorded(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	provs := []Provider{
		available(fusion.SourceOpenAQ, func(r *fusion.SourceReading) { r.PM25 = fusion.Float(30) }),
		&stubProvider{name: "down", err: errors.New("timeout")},
	}
	svc := NewService(&memStore{}, provs, WithMetrics(metrics))

	_, err := svc.Current(context.Background(), Location{City: "Paris", Country: "FR"})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.fetches.WithLabelValues(fusion.SourceOpenAQ, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.fetches.WithLabelValues("down", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.merges.WithLabelValues("computed")))
}

func TestLocationKey(t *testing.T) {
	lat, lng := 27.71720, 85.32400
	assert.Equal(t, "Paris:FR", Location{City: "Paris", Country: "FR"}.Key())
	assert.Equal(t, "27.7172,85.3240", Location{Lat: &lat, Lng: &lng}.Key())
	assert.Equal(t, "Paris:FR", Location{City: "Paris", Country: "FR", Lat: &lat, Lng: &lng}.Key())
}
