package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFollowsPriorityOrder(t *testing.T) {
	p := Priorities{Order: map[Quantity][]string{
		Temperature: {"A", "B", "C"},
	}}
	readings := []SourceReading{
		{Source: "C", Available: true, Temperature: Float(3)},
		{Source: "A", Available: true, Temperature: Float(1)},
		{Source: "B", Available: true, Temperature: Float(2)},
	}

	got := p.Extract(Temperature, readings)
	assert.Equal(t, []Candidate{{1, "A"}, {2, "B"}, {3, "C"}}, got)
}

func TestExtractSkipsUnavailableAndAbsent(t *testing.T) {
	p := Priorities{Order: map[Quantity][]string{
		Humidity: {"A", "B", "C"},
	}}
	readings := []SourceReading{
		{Source: "A", Available: false, Humidity: Float(50)},
		{Source: "B", Available: true},
		{Source: "C", Available: true, Humidity: Float(0)},
	}

	got := p.Extract(Humidity, readings)
	assert.Equal(t, []Candidate{{0, "C"}}, got)
}

func TestExtractAppendsUnlistedSources(t *testing.T) {
	p := Priorities{Order: map[Quantity][]string{
		NO2: {"B"},
	}}
	readings := []SourceReading{
		{Source: "Z", Available: true, NO2: Float(9)},
		{Source: "B", Available: true, NO2: Float(8)},
		{Source: "Y", Available: true, NO2: Float(7)},
	}

	got := p.Extract(NO2, readings)
	assert.Equal(t, []Candidate{{8, "B"}, {9, "Z"}, {7, "Y"}}, got)
}

func TestExtractConvertsWindSpeed(t *testing.T) {
	p := Priorities{Order: map[Quantity][]string{
		WindSpeed: {"kmh", "ms"},
	}}
	readings := []SourceReading{
		{Source: "kmh", Available: true, WindSpeed: Float(36), WindSpeedUnit: WindKMH},
		{Source: "ms", Available: true, WindSpeed: Float(4), WindSpeedUnit: WindMS},
	}

	got := p.Extract(WindSpeed, readings)
	assert.Len(t, got, 2)
	assert.InDelta(t, 10.0, got[0].Value, 1e-9)
	assert.Equal(t, 4.0, got[1].Value)
}

func TestExtractFirstReadingPerSourceWins(t *testing.T) {
	p := Priorities{Order: map[Quantity][]string{PM25: {"A"}}}
	readings := []SourceReading{
		{Source: "A", Available: false, PM25: Float(1)},
		{Source: "A", Available: true, PM25: Float(2)},
		{Source: "A", Available: true, PM25: Float(3)},
	}

	assert.Equal(t, []Candidate{{2, "A"}}, p.Extract(PM25, readings))
}

func TestDefaultPrioritiesCoverEveryQuantity(t *testing.T) {
	p := DefaultPriorities()
	for _, q := range Quantities {
		assert.NotEmpty(t, p.Order[q], q)
	}
	assert.Equal(t, SourceMeteostat, p.Order[Temperature][0])
	assert.Equal(t, []string{SourceNASAIMERG, SourceNASAPower}, p.Order[Precipitation][:2])
}
