package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickykhulal/bolt-earth/internal/fusion"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("WEATHER_LOCATION_CITY", "")
	t.Setenv("WEATHER_LOCATION_COUNTRY", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.FetchInterval)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, fusion.DefaultThreshold, cfg.BlendThreshold)
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.Locations)
	assert.Equal(t, fusion.DefaultPriorities(), cfg.Priorities)
}

func TestFromEnvLocations(t *testing.T) {
	t.Setenv("WEATHER_LOCATION_CITY", "Paris, Kathmandu")
	t.Setenv("WEATHER_LOCATION_COUNTRY", "FR,NP")
	t.Setenv("WEATHER_LOCATION_LAT", "48.85,27.71")
	t.Setenv("WEATHER_LOCATION_LNG", "2.35,85.32")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Len(t, cfg.Locations, 2)

	assert.Equal(t, "Kathmandu", cfg.Locations[1].City)
	assert.Equal(t, 27.71, *cfg.Locations[1].Lat)
	assert.Equal(t, 85.32, *cfg.Locations[1].Lng)
}

func TestFromEnvRejectsBadInput(t *testing.T) {
	cases := map[string]map[string]string{
		"mismatched countries": {"WEATHER_LOCATION_CITY": "Paris,Lyon", "WEATHER_LOCATION_COUNTRY": "FR"},
		"latitude out of range": {
			"WEATHER_LOCATION_CITY": "Paris", "WEATHER_LOCATION_COUNTRY": "FR",
			"WEATHER_LOCATION_LAT": "148.8", "WEATHER_LOCATION_LNG": "2.3",
		},
		"bad interval":  {"FETCH_INTERVAL": "soon"},
		"bad threshold": {"BLEND_THRESHOLD": "1.5"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestParsePriorities(t *testing.T) {
	p, err := ParsePriorities([]byte(`
[priorities]
temperature = ["WeatherAPI", "Meteostat"]
reported_aqi = ["Open-Meteo AQ"]
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"WeatherAPI", "Meteostat"}, p.Order[fusion.Temperature])
	assert.Equal(t, []string{"Open-Meteo AQ"}, p.ReportedAQI)
	assert.Equal(t, fusion.DefaultPriorities().Order[fusion.Humidity], p.Order[fusion.Humidity])
}

func TestParsePrioritiesRejectsUnknownQuantity(t *testing.T) {
	_, err := ParsePriorities([]byte("[priorities]\npollen = [\"X\"]\n"))
	assert.ErrorContains(t, err, "pollen")
}

func TestLoadPrioritiesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "priorities.toml")
	require.NoError(t, os.WriteFile(path, []byte("[priorities]\npm25 = [\"OpenAQ\"]\n"), 0o600))

	t.Setenv("SOURCE_PRIORITIES_FILE", path)
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"OpenAQ"}, cfg.Priorities.Order[fusion.PM25])
}
