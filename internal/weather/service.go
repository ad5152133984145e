package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/rickykhulal/bolt-earth/internal/fusion"
)

// ErrNoProviders is returned when a fetch is requested with nothing configured.
var ErrNoProviders = errors.New("no weather providers configured")

// Service orchestrates fetching from multiple providers, fusing the results
// and persisting snapshots.
type Service struct {
	store     Store
	providers []Provider
	merger    *fusion.Merger
	resolver  Resolver
	sinks     []Sink
	metrics   *Metrics
}

// Option customizes a Service.
type Option func(*Service)

// WithMerger replaces the default merger.
func WithMerger(m *fusion.Merger) Option {
	return func(s *Service) { s.merger = m }
}

// WithResolver enables geocoding of locations lacking coordinates or a city.
func WithResolver(r Resolver) Option {
	return func(s *Service) { s.resolver = r }
}

// WithSinks adds sinks that receive each stored snapshot.
func WithSinks(sinks ...Sink) Option {
	return func(s *Service) { s.sinks = append(s.sinks, sinks...) }
}

// WithMetrics records fetch and merge metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a new Service.
func NewService(store Store, providers []Provider, opts ...Option) *Service {
	s := &Service{
		store:     store,
		providers: providers,
		merger:    fusion.NewMerger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Merge fuses caller-supplied readings without contacting any provider.
func (s *Service) Merge(readings []fusion.SourceReading, place fusion.Place) fusion.MergedReading {
	reading := s.merger.Merge(readings, place)
	s.metrics.observeMerge(reading)
	return reading
}

// Collect fetches from all providers concurrently and waits for every one of
// them. A failing provider contributes an unavailable record rather than an
// error, so the result always has one reading per provider, in provider order.
func (s *Service) Collect(ctx context.Context, loc Location) ([]fusion.SourceReading, []SourceStatus) {
	readings := make([]fusion.SourceReading, len(s.providers))
	statuses := make([]SourceStatus, len(s.providers))

	var wg sync.WaitGroup
	for i, p := range s.providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()

			start := time.Now()
			r, err := p.Fetch(ctx, loc)
			elapsed := time.Since(start)

			st := SourceStatus{Source: p.Name(), LatencyMs: elapsed.Milliseconds()}
			if err != nil {
				// Log and continue; we want partial success when possible.
				log.Printf("provider %s fetch failed for %s: %v", p.Name(), loc.Key(), err)
				r = fusion.SourceReading{Source: p.Name()}
				st.Error = err.Error()
			}
			if r.Source == "" {
				r.Source = p.Name()
			}
			st.Available = r.Available
			s.metrics.observeFetch(p.Name(), err, r.Available, elapsed)

			readings[i] = r
			statuses[i] = st
		}(i, p)
	}
	wg.Wait()

	return readings, statuses
}

// Current resolves the location, collects from every provider and merges the
// results into a fresh snapshot.
func (s *Service) Current(ctx context.Context, loc Location) (Snapshot, error) {
	if len(s.providers) == 0 {
		log.Printf("ERROR: No providers available to fetch readings for %s", loc.Key())
		return Snapshot{}, ErrNoProviders
	}

	loc = s.resolve(ctx, loc)
	log.Printf("DEBUG: Current called for %s with %d providers", loc.Key(), len(s.providers))

	readings, statuses := s.Collect(ctx, loc)
	snapshot := AggregateReadings(s.merger, loc, readings, statuses)
	s.metrics.observeMerge(snapshot.Reading)
	return snapshot, nil
}

// FetchAndStore fetches and merges readings for loc and stores the snapshot.
// When no provider succeeded the last good snapshot is kept.
func (s *Service) FetchAndStore(ctx context.Context, loc Location) error {
	snapshot, err := s.Current(ctx, loc)
	if err != nil {
		return err
	}

	if !snapshot.AnyAvailable() {
		// No providers succeeded; do not overwrite last good snapshot.
		log.Printf("no successful provider readings for %s; keeping last good snapshot if any", loc.Key())
		return nil
	}

	// Store under the caller's key so scheduled lookups stay stable.
	s.store.SaveSnapshot(loc, snapshot)

	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Write(ctx, snapshot); err != nil {
			log.Printf("sink write failed for %s: %v", loc.Key(), err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("snapshot stored but %d sink(s) failed: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// resolve fills in coordinates from the place name, or the place name from the
// coordinates. Resolution failures are logged; providers that can work from a
// city name still run.
func (s *Service) resolve(ctx context.Context, loc Location) Location {
	if s.resolver == nil {
		return loc
	}

	switch {
	case !loc.HasCoordinates() && loc.City != "":
		lat, lng, err := s.resolver.Geocode(ctx, loc.City, loc.Country)
		if err != nil {
			log.Printf("INFO: geocoding %s failed: %v", loc.Key(), err)
			return loc
		}
		loc.Lat, loc.Lng = &lat, &lng
	case loc.HasCoordinates() && loc.City == "":
		city, country, err := s.resolver.Reverse(ctx, *loc.Lat, *loc.Lng)
		if err != nil {
			log.Printf("INFO: reverse geocoding %s failed: %v", loc.Key(), err)
			return loc
		}
		loc.City, loc.Country = city, country
	}
	return loc
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(loc Location) (Snapshot, error) {
	return s.store.GetLatest(loc)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(loc Location, from, to time.Time) ([]Snapshot, error) {
	return s.store.GetRange(loc, from, to)
}
