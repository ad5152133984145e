package weather

import (
	"github.com/google/uuid"

	"github.com/rickykhulal/bolt-earth/internal/fusion"
)

// AggregateReadings fuses provider readings into a Snapshot for loc.
// Unavailable providers are expected to be present as unavailable records so
// they show up in the snapshot's source list.
func AggregateReadings(merger *fusion.Merger, loc Location, readings []fusion.SourceReading, statuses []SourceStatus) Snapshot {
	if merger == nil {
		merger = fusion.NewMerger()
	}
	reading := merger.Merge(readings, loc.Place())

	return Snapshot{
		ID:        uuid.NewString(),
		Location:  loc,
		Timestamp: reading.GeneratedAt.UTC(),
		Reading:   reading,
		Sources:   statuses,
	}
}
