package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rickykhulal/bolt-earth/internal/fusion"
	"github.com/rickykhulal/bolt-earth/internal/weather"
)

var errNoCity = errors.New("city is required")

// EdgeFunction describes one serverless function that proxies an upstream
// source and answers with a flat JSON object.
type EdgeFunction struct {
	Source   string
	Function string
	// ByCity sends {"city": ...} instead of {"lat": ..., "lng": ...}.
	ByCity bool
	// Fields maps a quantity to dotted JSON paths. Several paths are averaged,
	// e.g. a daily maximum and minimum temperature.
	Fields      map[fusion.Quantity][]string
	ReportedAQI string
	WindUnit    fusion.WindUnit
}

// EdgeFunctions returns the functions deployed next to the service.
func EdgeFunctions() []EdgeFunction {
	return []EdgeFunction{
		{
			Source:   fusion.SourceNASATempo,
			Function: "nasa-tempo",
			Fields: map[fusion.Quantity][]string{
				fusion.NO2:   {"no2"},
				fusion.Ozone: {"ozone"},
			},
		},
		{
			Source:   fusion.SourceNASADaymet,
			Function: "nasa-daymet",
			Fields: map[fusion.Quantity][]string{
				fusion.Temperature: {"tmax", "tmin"},
			},
		},
		{
			Source:   fusion.SourceNASAIMERG,
			Function: "nasa-imerg",
			Fields: map[fusion.Quantity][]string{
				fusion.Precipitation: {"precipitation"},
			},
		},
		{
			Source:   fusion.SourceRapidAPIAQ,
			Function: "rapidapi-airquality",
			ByCity:   true,
			Fields: map[fusion.Quantity][]string{
				fusion.PM25:  {"PM2.concentration"},
				fusion.PM10:  {"PM10.concentration"},
				fusion.NO2:   {"NO2.concentration"},
				fusion.Ozone: {"O3.concentration"},
				fusion.SO2:   {"SO2.concentration"},
				fusion.CO:    {"CO.concentration"},
			},
			ReportedAQI: "overall_aqi",
		},
		{
			Source:   fusion.SourceRapidAPIWeather,
			Function: "rapidapi-weather",
			ByCity:   true,
			Fields: map[fusion.Quantity][]string{
				fusion.Temperature: {"temperature"},
				fusion.Humidity:    {"humidity"},
				fusion.WindSpeed:   {"wind_speed"},
			},
			WindUnit: fusion.WindMS,
		},
		{
			Source:   fusion.SourceCustomWeather,
			Function: "custom-weather",
			Fields: map[fusion.Quantity][]string{
				fusion.Temperature: {"temperature"},
				fusion.Humidity:    {"humidity"},
				fusion.WindSpeed:   {"windSpeed"},
			},
			WindUnit: fusion.WindMS,
		},
	}
}

// EdgeFunctionProvider calls one EdgeFunction under a shared base URL.
type EdgeFunctionProvider struct {
	base
	fn    EdgeFunction
	token string
}

func NewEdgeFunctionProvider(client *http.Client, baseURL, token string, fn EdgeFunction, opts ...Option) *EdgeFunctionProvider {
	return &EdgeFunctionProvider{
		base:  newBase(fn.Source, strings.TrimRight(baseURL, "/"), client, opts),
		fn:    fn,
		token: token,
	}
}

func (p *EdgeFunctionProvider) Fetch(ctx context.Context, loc weather.Location) (fusion.SourceReading, error) {
	var body map[string]any
	if p.fn.ByCity {
		if loc.City == "" {
			return fusion.SourceReading{}, fmt.Errorf("%s: %w", p.name, errNoCity)
		}
		body = map[string]any{"city": loc.City}
	} else {
		lat, lng, err := coordinates(loc)
		if err != nil {
			return fusion.SourceReading{}, fmt.Errorf("%s: %w", p.name, err)
		}
		body = map[string]any{"lat": lat, "lng": lng}
	}

	headers := map[string]string{}
	if p.token != "" {
		headers["Authorization"] = "Bearer " + p.token
		headers["apikey"] = p.token
	}

	var payload map[string]any
	if err := p.postJSON(ctx, p.baseURL+"/"+p.fn.Function, headers, body, &payload); err != nil {
		return fusion.SourceReading{}, err
	}
	if msg, failed := edgeFailure(payload); failed {
		return fusion.SourceReading{Source: p.name}, fmt.Errorf("%s: %w: %s", p.name, errNoData, msg)
	}

	r := fusion.SourceReading{WindSpeedUnit: p.fn.WindUnit}
	for q, paths := range p.fn.Fields {
		r.Set(q, average(q, payload, paths))
	}
	if p.fn.ReportedAQI != "" {
		r.ReportedAQI = fusion.Sanitize(lookup(payload, p.fn.ReportedAQI), fusion.AQIRange)
	}
	return p.complete(r)
}

// edgeFailure reports whether the function answered with available=false or
// an error field.
func edgeFailure(payload map[string]any) (string, bool) {
	msg, _ := payload["message"].(string)
	if e, ok := payload["error"]; ok && e != nil {
		return fmt.Sprint(e), true
	}
	if a, ok := payload["available"].(bool); ok && !a {
		return msg, true
	}
	return "", false
}

func average(q fusion.Quantity, payload map[string]any, paths []string) *float64 {
	var sum float64
	var n int
	for _, path := range paths {
		if v := field(q, lookup(payload, path)); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return field(q, sum/float64(n))
}

// lookup resolves a dotted path through nested JSON objects.
func lookup(payload map[string]any, path string) any {
	var cur any = payload
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}
