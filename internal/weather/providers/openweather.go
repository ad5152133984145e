package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rickykhulal/bolt-earth/internal/fusion"
	"github.com/rickykhulal/bolt-earth/internal/weather"
)

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	base
	apiKey string
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, opts ...Option) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		base:   newBase(fusion.SourceOpenWeather, "https://api.openweathermap.org/data/2.5/weather", client, opts),
		apiKey: apiKey,
	}
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc weather.Location) (fusion.SourceReading, error) {
	if p.apiKey == "" {
		return fusion.SourceReading{}, fmt.Errorf("%s: %w", p.name, errNotConfigured)
	}

	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	if loc.HasCoordinates() {
		values.Set("lat", formatCoord(*loc.Lat))
		values.Set("lon", formatCoord(*loc.Lng))
	} else {
		q := loc.City
		if loc.Country != "" {
			q = fmt.Sprintf("%s,%s", loc.City, loc.Country)
		}
		values.Set("q", q)
	}

	var payload struct {
		Dt    int64  `json:"dt"`
		Name  string `json:"name"`
		Coord struct {
			Lat any `json:"lat"`
			Lon any `json:"lon"`
		} `json:"coord"`
		Sys struct {
			Country string `json:"country"`
		} `json:"sys"`
		Main struct {
			Temp     any `json:"temp"`
			Humidity any `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed any `json:"speed"`
		} `json:"wind"`
		Rain struct {
			OneHour any `json:"1h"`
		} `json:"rain"`
	}
	if err := p.getJSON(ctx, p.baseURL+"?"+values.Encode(), nil, &payload); err != nil {
		return fusion.SourceReading{}, err
	}

	r := fusion.SourceReading{
		Temperature:   field(fusion.Temperature, payload.Main.Temp),
		Humidity:      field(fusion.Humidity, payload.Main.Humidity),
		WindSpeed:     field(fusion.WindSpeed, payload.Wind.Speed),
		WindSpeedUnit: fusion.WindMS,
		Precipitation: field(fusion.Precipitation, payload.Rain.OneHour),
		City:          payload.Name,
		Country:       payload.Sys.Country,
		Lat:           fusion.Sanitize(payload.Coord.Lat, latRange),
		Lng:           fusion.Sanitize(payload.Coord.Lon, lngRange),
	}
	if payload.Dt > 0 {
		r.ObservedAt = time.Unix(payload.Dt, 0).UTC()
	}
	return p.complete(r)
}
