package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/rickykhulal/bolt-earth/internal/fusion"
)

const reportedAQIKey = "reported_aqi"

type prioritiesFile struct {
	Priorities map[string][]string `toml:"priorities"`
}

// LoadPriorities reads a TOML source-priority table. Quantities the file does
// not mention keep their default order. Example:
//
//	[priorities]
//	temperature  = ["Meteostat", "NASA POWER", "WeatherAPI"]
//	reported_aqi = ["OpenAQ", "Open-Meteo AQ"]
func LoadPriorities(path string) (fusion.Priorities, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fusion.Priorities{}, fmt.Errorf("read priorities: %w", err)
	}
	return ParsePriorities(data)
}

// ParsePriorities applies a TOML priority table over the defaults.
func ParsePriorities(data []byte) (fusion.Priorities, error) {
	var file prioritiesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return fusion.Priorities{}, fmt.Errorf("parse priorities: %w", err)
	}

	p := fusion.DefaultPriorities()
	for key, sources := range file.Priorities {
		if key == reportedAQIKey {
			p.ReportedAQI = sources
			continue
		}
		q := fusion.Quantity(key)
		if !q.Valid() {
			return fusion.Priorities{}, fmt.Errorf("parse priorities: unknown quantity %q", key)
		}
		p.Order[q] = sources
	}
	return p, nil
}
