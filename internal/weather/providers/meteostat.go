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

const meteostatHost = "meteostat.p.rapidapi.com"

// MeteostatProvider reads hourly station data from Meteostat through RapidAPI.
// Meteostat reports wind speed in km/h.
type MeteostatProvider struct {
	base
	apiKey string
}

func NewMeteostatProvider(client *http.Client, apiKey string, opts ...Option) *MeteostatProvider {
	return &MeteostatProvider{
		base:   newBase(fusion.SourceMeteostat, "https://"+meteostatHost+"/point/hourly", client, opts),
		apiKey: apiKey,
	}
}

func (p *MeteostatProvider) Fetch(ctx context.Context, loc weather.Location) (fusion.SourceReading, error) {
	if p.apiKey == "" {
		return fusion.SourceReading{}, fmt.Errorf("%s: %w", p.name, errNotConfigured)
	}
	lat, lng, err := coordinates(loc)
	if err != nil {
		return fusion.SourceReading{}, fmt.Errorf("%s: %w", p.name, err)
	}

	now := p.now().UTC()
	values := url.Values{}
	values.Set("lat", formatCoord(lat))
	values.Set("lon", formatCoord(lng))
	values.Set("start", now.AddDate(0, 0, -1).Format(time.DateOnly))
	values.Set("end", now.Format(time.DateOnly))

	headers := map[string]string{
		"x-rapidapi-host": meteostatHost,
		"x-rapidapi-key":  p.apiKey,
	}

	var payload struct {
		Data []struct {
			Time string `json:"time"`
			Temp any    `json:"temp"`
			Rhum any    `json:"rhum"`
			Wspd any    `json:"wspd"`
			Prcp any    `json:"prcp"`
		} `json:"data"`
	}
	if err := p.getJSON(ctx, p.baseURL+"?"+values.Encode(), headers, &payload); err != nil {
		return fusion.SourceReading{}, err
	}

	// Rows run oldest to newest and future hours come back empty, so walk
	// backwards to the newest row with data.
	for i := len(payload.Data) - 1; i >= 0; i-- {
		row := payload.Data[i]
		r := fusion.SourceReading{
			Temperature:   field(fusion.Temperature, row.Temp),
			Humidity:      field(fusion.Humidity, row.Rhum),
			WindSpeed:     field(fusion.WindSpeed, row.Wspd),
			WindSpeedUnit: fusion.WindKMH,
			Precipitation: field(fusion.Precipitation, row.Prcp),
		}
		if !r.HasData() {
			continue
		}
		if ts, err := time.Parse(time.DateTime, row.Time); err == nil {
			r.ObservedAt = ts
		}
		return p.complete(r)
	}
	return p.complete(fusion.SourceReading{})
}
