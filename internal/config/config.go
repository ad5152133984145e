package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/rickykhulal/bolt-earth/internal/fusion"
	"github.com/rickykhulal/bolt-earth/internal/weather"
)

type AppConfig struct {
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	RapidAPIKey       string
	OpenAQAPIKey      string
	GeocodingAPIKey   string

	// Edge functions proxying sources without a direct adapter.
	EdgeFunctionsURL   string
	EdgeFunctionsToken string

	// FetchInterval controls how often we fetch data for each location.
	FetchInterval time.Duration
	// HTTPTimeout bounds a single upstream request.
	HTTPTimeout time.Duration
	// CacheTTL sizes the provider response cache buckets (0 disables it).
	CacheTTL time.Duration
	// ProviderRPS caps requests per second per provider (0 = unlimited).
	ProviderRPS float64

	// Locations to track.
	Locations []weather.Location

	// In-memory store retention.
	StoreMaxHistory int           // max number of snapshots per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of snapshots (0 = unlimited)

	// Fusion policy.
	BlendThreshold float64
	Priorities     fusion.Priorities

	Influx InfluxConfig

	Port string
}

// InfluxConfig is optional; the sink is enabled only when URL is set.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.RapidAPIKey = os.Getenv("RAPIDAPI_KEY")
	cfg.OpenAQAPIKey = os.Getenv("OPENAQ_API_KEY")
	cfg.GeocodingAPIKey = os.Getenv("GOOGLE_GEOCODING_API_KEY")
	cfg.EdgeFunctionsURL = os.Getenv("EDGE_FUNCTIONS_URL")
	cfg.EdgeFunctionsToken = os.Getenv("EDGE_FUNCTIONS_TOKEN")

	var err error
	// Scheduler interval: default 15 minutes.
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", "10m"); err != nil {
		return nil, err
	}
	if cfg.ProviderRPS, err = getenvFloat("PROVIDER_RPS", 0); err != nil {
		return nil, err
	}

	// Store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	if cfg.BlendThreshold, err = getenvFloat("BLEND_THRESHOLD", fusion.DefaultThreshold); err != nil {
		return nil, err
	}
	if cfg.BlendThreshold <= 0 || cfg.BlendThreshold >= 1 {
		return nil, fmt.Errorf("BLEND_THRESHOLD must be between 0 and 1, got %v", cfg.BlendThreshold)
	}

	cfg.Priorities = fusion.DefaultPriorities()
	if path := os.Getenv("SOURCE_PRIORITIES_FILE"); path != "" {
		if cfg.Priorities, err = LoadPriorities(path); err != nil {
			return nil, err
		}
	}

	cfg.Influx = InfluxConfig{
		URL:    os.Getenv("INFLUX_URL"),
		Token:  os.Getenv("INFLUX_TOKEN"),
		Org:    getenvDefault("INFLUX_ORG", "bolt-earth"),
		Bucket: getenvDefault("INFLUX_BUCKET", "merged-readings"),
	}

	cfg.Port = getenvDefault("PORT", "8080")

	locs, err := loadLocations()
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	return cfg, nil
}

// loadLocations reads the comma-separated WEATHER_LOCATION_* lists. Lat/lng
// lists are optional, but when present they must line up with the cities.
func loadLocations() ([]weather.Location, error) {
	cities := splitList(os.Getenv("WEATHER_LOCATION_CITY"))
	countries := splitList(os.Getenv("WEATHER_LOCATION_COUNTRY"))
	if len(cities) != len(countries) {
		return nil, fmt.Errorf("number of cities and countries must be the same")
	}

	lats := splitList(os.Getenv("WEATHER_LOCATION_LAT"))
	lngs := splitList(os.Getenv("WEATHER_LOCATION_LNG"))
	if len(lats) != len(lngs) || (len(lats) > 0 && len(lats) != len(cities)) {
		return nil, fmt.Errorf("latitudes and longitudes must match the number of cities")
	}

	var locs []weather.Location
	for i := range cities {
		loc := weather.Location{
			City:    cities[i],
			Country: countries[i],
		}
		if len(lats) > 0 {
			lat, err := strconv.ParseFloat(lats[i], 64)
			if err != nil || lat < -90 || lat > 90 {
				return nil, fmt.Errorf("invalid latitude %q for %s", lats[i], cities[i])
			}
			lng, err := strconv.ParseFloat(lngs[i], 64)
			if err != nil || lng < -180 || lng > 180 {
				return nil, fmt.Errorf("invalid longitude %q for %s", lngs[i], cities[i])
			}
			loc.Lat, loc.Lng = &lat, &lng
		}
		locs = append(locs, loc)
	}

	return locs, nil
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
