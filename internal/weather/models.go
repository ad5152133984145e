package weather

import (
	"fmt"
	"time"

	"github.com/rickykhulal/bolt-earth/internal/fusion"
)

// Location represents a place for which readings are fused.
// Either City/Country or Lat/Lng must be provided; providers that need
// coordinates rely on the resolver to fill them in.
type Location struct {
	City    string   `json:"city"`
	Country string   `json:"country"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	if l.City == "" && l.HasCoordinates() {
		return fmt.Sprintf("%.4f,%.4f", *l.Lat, *l.Lng)
	}
	return l.City + ":" + l.Country
}

// HasCoordinates reports whether both latitude and longitude are set.
func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lng != nil
}

// Place converts the location into the merger's passthrough form.
func (l Location) Place() fusion.Place {
	p := fusion.Place{City: l.City, Country: l.Country}
	if l.HasCoordinates() {
		p.Lat, p.Lng = *l.Lat, *l.Lng
	}
	return p
}

// SourceStatus records how one provider fared during a fetch cycle.
type SourceStatus struct {
	Source    string `json:"source"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// Snapshot is a merged reading at a point in time, plus fetch diagnostics.
type Snapshot struct {
	ID        string               `json:"id"`
	Location  Location             `json:"location"`
	Timestamp time.Time            `json:"timestamp"` // always UTC
	Reading   fusion.MergedReading `json:"reading"`
	Sources   []SourceStatus       `json:"sources,omitempty"`
}

// AnyAvailable reports whether at least one source delivered a reading.
func (s Snapshot) AnyAvailable() bool {
	for _, st := range s.Sources {
		if st.Available {
			return true
		}
	}
	return false
}
