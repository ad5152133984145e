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

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
// The air_quality block is requested too, so one call yields both weather and
// pollutant concentrations.
type WeatherAPIProvider struct {
	base
	apiKey string
}

func NewWeatherAPIProvider(client *http.Client, apiKey string, opts ...Option) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		base:   newBase(fusion.SourceWeatherAPI, "https://api.weatherapi.com/v1/current.json", client, opts),
		apiKey: apiKey,
	}
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, loc weather.Location) (fusion.SourceReading, error) {
	if p.apiKey == "" {
		return fusion.SourceReading{}, fmt.Errorf("%s: %w", p.name, errNotConfigured)
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("aqi", "yes")
	// WeatherAPI uses "q" for location; it accepts "city,country" or "lat,lon".
	if loc.HasCoordinates() {
		values.Set("q", formatCoord(*loc.Lat)+","+formatCoord(*loc.Lng))
	} else {
		q := loc.City
		if loc.Country != "" {
			q = fmt.Sprintf("%s,%s", loc.City, loc.Country)
		}
		values.Set("q", q)
	}

	var payload struct {
		Location struct {
			Name    string `json:"name"`
			Country string `json:"country"`
			Lat     any    `json:"lat"`
			Lon     any    `json:"lon"`
		} `json:"location"`
		Current struct {
			LastUpdatedEpoch int64 `json:"last_updated_epoch"`
			TempC            any   `json:"temp_c"`
			Humidity         any   `json:"humidity"`
			WindKph          any   `json:"wind_kph"`
			PrecipMm         any   `json:"precip_mm"`
			AirQuality       struct {
				CO   any `json:"co"`
				NO2  any `json:"no2"`
				O3   any `json:"o3"`
				SO2  any `json:"so2"`
				PM25 any `json:"pm2_5"`
				PM10 any `json:"pm10"`
			} `json:"air_quality"`
		} `json:"current"`
	}
	if err := p.getJSON(ctx, p.baseURL+"?"+values.Encode(), nil, &payload); err != nil {
		return fusion.SourceReading{}, err
	}

	cur := payload.Current
	aq := cur.AirQuality
	r := fusion.SourceReading{
		Temperature:   field(fusion.Temperature, cur.TempC),
		Humidity:      field(fusion.Humidity, cur.Humidity),
		WindSpeed:     field(fusion.WindSpeed, cur.WindKph),
		WindSpeedUnit: fusion.WindKMH,
		Precipitation: field(fusion.Precipitation, cur.PrecipMm),
		PM25:          field(fusion.PM25, aq.PM25),
		PM10:          field(fusion.PM10, aq.PM10),
		NO2:           field(fusion.NO2, aq.NO2),
		Ozone:         field(fusion.Ozone, aq.O3),
		SO2:           field(fusion.SO2, aq.SO2),
		CO:            field(fusion.CO, aq.CO),
		City:          payload.Location.Name,
		Country:       payload.Location.Country,
		Lat:           fusion.Sanitize(payload.Location.Lat, latRange),
		Lng:           fusion.Sanitize(payload.Location.Lon, lngRange),
	}
	if cur.LastUpdatedEpoch > 0 {
		r.ObservedAt = time.Unix(cur.LastUpdatedEpoch, 0).UTC()
	}
	return p.complete(r)
}
