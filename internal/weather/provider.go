package weather

import (
	"context"
	"time"

	"github.com/rickykhulal/bolt-earth/internal/fusion"
)

// Provider abstracts one upstream source (NASA POWER, Meteostat, OpenAQ, ...).
// Fetch returns the source's readings already normalized into optional fields;
// absent values stay nil.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (fusion.SourceReading, error)
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	SaveSnapshot(loc Location, snapshot Snapshot)
	GetLatest(loc Location) (Snapshot, error)
	GetRange(loc Location, from, to time.Time) ([]Snapshot, error)
}

// Sink receives every stored snapshot, e.g. a time-series database.
type Sink interface {
	Write(ctx context.Context, snapshot Snapshot) error
}

// Resolver turns place names into coordinates and back.
type Resolver interface {
	Geocode(ctx context.Context, city, country string) (lat, lng float64, err error)
	Reverse(ctx context.Context, lat, lng float64) (city, country string, err error)
}
