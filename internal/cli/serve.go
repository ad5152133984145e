package cli

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	httpapi "github.com/rickykhulal/bolt-earth/internal/api/http"
	"github.com/rickykhulal/bolt-earth/internal/config"
	"github.com/rickykhulal/bolt-earth/internal/fusion"
	"github.com/rickykhulal/bolt-earth/internal/scheduler"
	"github.com/rickykhulal/bolt-earth/internal/store"
	"github.com/rickykhulal/bolt-earth/internal/weather"
	"github.com/rickykhulal/bolt-earth/internal/weather/providers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the periodic fusion scheduler",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	merger := fusion.NewMerger()
	merger.Priorities = cfg.Priorities
	merger.Threshold = cfg.BlendThreshold

	metrics := weather.NewMetrics(reg)
	opts := []weather.Option{
		weather.WithMerger(merger),
		weather.WithMetrics(metrics),
	}
	if cfg.GeocodingAPIKey != "" {
		opts = append(opts, weather.WithResolver(weather.NewGoogleResolver(cfg.GeocodingAPIKey)))
	} else {
		log.Println("INFO: GOOGLE_GEOCODING_API_KEY not set; locations need explicit coordinates for point-based sources")
	}
	if cfg.Influx.URL != "" {
		sink, err := store.NewInfluxSink(store.InfluxConfig(cfg.Influx))
		if err != nil {
			return err
		}
		defer sink.Close()
		opts = append(opts, weather.WithSinks(sink))
	}

	provs := buildProviders(cfg, httpClient, metrics)
	log.Printf("INFO: %d providers configured", len(provs))

	// Core service orchestrating providers, merger and store.
	service := weather.NewService(memStore, provs, opts...)

	// Scheduler that periodically fetches, merges and stores readings.
	sched := scheduler.New(cfg.Locations, cfg.FetchInterval, 2*cfg.HTTPTimeout, service)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	app := httpapi.NewApp(service, reg)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: listening on :%s", cfg.Port)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	return nil
}

// buildProviders creates every adapter the configuration has credentials for.
// Each one is rate limited and wrapped in the response cache.
func buildProviders(cfg *config.AppConfig, client *http.Client, metrics *weather.Metrics) []weather.Provider {
	limit := providers.WithRateLimit(cfg.ProviderRPS, 1)

	raw := []weather.Provider{
		providers.NewNASAPowerProvider(client, limit),
		providers.NewOpenMeteoProvider(client, limit),
		providers.NewOpenAQProvider(client, cfg.OpenAQAPIKey, limit),
	}
	if cfg.RapidAPIKey != "" {
		raw = append(raw, providers.NewMeteostatProvider(client, cfg.RapidAPIKey, limit))
	}
	if cfg.WeatherAPIKey != "" {
		raw = append(raw, providers.NewWeatherAPIProvider(client, cfg.WeatherAPIKey, limit))
	}
	if cfg.OpenWeatherAPIKey != "" {
		raw = append(raw, providers.NewOpenWeatherProvider(client, cfg.OpenWeatherAPIKey, limit))
	}
	if cfg.EdgeFunctionsURL != "" {
		for _, fn := range providers.EdgeFunctions() {
			raw = append(raw, providers.NewEdgeFunctionProvider(client, cfg.EdgeFunctionsURL, cfg.EdgeFunctionsToken, fn, limit))
		}
	}

	out := make([]weather.Provider, 0, len(raw))
	for _, p := range raw {
		out = append(out, weather.NewCachedProvider(p, cfg.CacheTTL, metrics))
	}
	return out
}
