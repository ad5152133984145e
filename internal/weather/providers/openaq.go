package providers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rickykhulal/bolt-earth/internal/fusion"
	"github.com/rickykhulal/bolt-earth/internal/weather"
)

const openAQRadiusMeters = 25000

// OpenAQProvider reads ground-station measurements from the OpenAQ v3 API.
// It picks the nearest location that has sensors and maps each sensor's latest
// value by parameter name.
type OpenAQProvider struct {
	base
	apiKey string
}

func NewOpenAQProvider(client *http.Client, apiKey string, opts ...Option) *OpenAQProvider {
	return &OpenAQProvider{
		base:   newBase(fusion.SourceOpenAQ, "https://api.openaq.org/v3", client, opts),
		apiKey: apiKey,
	}
}

type openAQSensor struct {
	ID        int64 `json:"id"`
	Parameter struct {
		Name  string `json:"name"`
		Units string `json:"units"`
	} `json:"parameter"`
}

type openAQLocation struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Country struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"country"`
	Coordinates struct {
		Latitude  any `json:"latitude"`
		Longitude any `json:"longitude"`
	} `json:"coordinates"`
	Sensors []openAQSensor `json:"sensors"`
}

type openAQLatest struct {
	Value     any   `json:"value"`
	SensorsID int64 `json:"sensorsId"`
	Datetime  struct {
		UTC string `json:"utc"`
	} `json:"datetime"`
}

var openAQParameters = map[string]fusion.Quantity{
	"pm25":  fusion.PM25,
	"pm2.5": fusion.PM25,
	"pm10":  fusion.PM10,
	"no2":   fusion.NO2,
	"o3":    fusion.Ozone,
	"so2":   fusion.SO2,
	"co":    fusion.CO,
}

func (p *OpenAQProvider) Fetch(ctx context.Context, loc weather.Location) (fusion.SourceReading, error) {
	lat, lng, err := coordinates(loc)
	if err != nil {
		return fusion.SourceReading{}, fmt.Errorf("%s: %w", p.name, err)
	}

	headers := map[string]string{}
	if p.apiKey != "" {
		headers["X-API-Key"] = p.apiKey
	}

	values := url.Values{}
	values.Set("coordinates", formatCoord(lat)+","+formatCoord(lng))
	values.Set("radius", fmt.Sprint(openAQRadiusMeters))
	values.Set("limit", "10")

	var locations struct {
		Results []openAQLocation `json:"results"`
	}
	if err := p.getJSON(ctx, p.baseURL+"/locations?"+values.Encode(), headers, &locations); err != nil {
		return fusion.SourceReading{}, err
	}

	var station *openAQLocation
	for i := range locations.Results {
		if len(locations.Results[i].Sensors) > 0 {
			station = &locations.Results[i]
			break
		}
	}
	if station == nil {
		return p.complete(fusion.SourceReading{})
	}

	var latest struct {
		Results []openAQLatest `json:"results"`
	}
	u := fmt.Sprintf("%s/locations/%d/latest", p.baseURL, station.ID)
	if err := p.getJSON(ctx, u, headers, &latest); err != nil {
		return fusion.SourceReading{}, err
	}

	sensors := make(map[int64]openAQSensor, len(station.Sensors))
	for _, s := range station.Sensors {
		sensors[s.ID] = s
	}

	r := fusion.SourceReading{
		City:    station.Name,
		Country: station.Country.Name,
		Lat:     fusion.Sanitize(station.Coordinates.Latitude, latRange),
		Lng:     fusion.Sanitize(station.Coordinates.Longitude, lngRange),
	}
	for _, m := range latest.Results {
		sensor, ok := sensors[m.SensorsID]
		if !ok {
			continue
		}
		q, ok := openAQParameters[strings.ToLower(sensor.Parameter.Name)]
		if !ok || r.Value(q) != nil {
			continue
		}
		raw := fusion.Sanitize(m.Value, fusion.Unbounded)
		if raw == nil {
			continue
		}
		v := field(q, toMicrograms(q, *raw, sensor.Parameter.Units))
		if v == nil {
			continue
		}
		r.Set(q, v)
		if ts, err := time.Parse(time.RFC3339, m.Datetime.UTC); err == nil && ts.After(r.ObservedAt) {
			r.ObservedAt = ts.UTC()
		}
	}
	r.ReportedAQI = stationAQI(r.PM25, r.NO2, r.Ozone)
	return p.complete(r)
}

// molarVolume is the volume of one mole of gas in litres at 25 °C and 1 atm.
const molarVolume = 24.45

var molecularWeights = map[fusion.Quantity]float64{
	fusion.NO2:   46.01,
	fusion.Ozone: 48.00,
	fusion.SO2:   64.07,
	fusion.CO:    28.01,
}

// toMicrograms converts a gas mixing ratio in ppm or ppb to µg/m³.
// Particulates and values already in mass units pass through.
func toMicrograms(q fusion.Quantity, v float64, units string) float64 {
	mw, ok := molecularWeights[q]
	if !ok {
		return v
	}
	switch strings.ToLower(strings.TrimSpace(units)) {
	case "ppm":
		return v * 1000 * mw / molarVolume
	case "ppb":
		return v * mw / molarVolume
	default:
		return v
	}
}

// stationAQI is the station-level index: the highest of the PM2.5, NO2 and
// ozone sub-indices that are present. Gas concentrations are in µg/m³.
func stationAQI(pm25, no2, ozone *float64) *float64 {
	var (
		best  float64
		found bool
	)
	consider := func(v *float64, subIndex func(float64) float64) {
		if v == nil {
			return
		}
		if idx := subIndex(*v); !found || idx > best {
			best, found = idx, true
		}
	}
	consider(pm25, pm25StationIndex)
	consider(no2, no2StationIndex)
	consider(ozone, ozoneStationIndex)
	if !found {
		return nil
	}
	return fusion.Sanitize(math.Round(best), fusion.AQIRange)
}

func pm25StationIndex(c float64) float64 {
	switch {
	case c <= 12.0:
		return c / 12.0 * 50
	case c <= 35.4:
		return 50 + (c-12.0)/(35.4-12.0)*50
	case c <= 55.4:
		return 100 + (c-35.4)/(55.4-35.4)*50
	case c <= 150.4:
		return 150 + (c-55.4)/(150.4-55.4)*50
	case c <= 250.4:
		return 200 + (c-150.4)/(250.4-150.4)*100
	default:
		return 300 + (c-250.4)/(500.4-250.4)*200
	}
}

// no2StationIndex takes µg/m³ and scores the equivalent ppb.
func no2StationIndex(c float64) float64 {
	ppb := c * 0.53
	switch {
	case ppb <= 53:
		return ppb / 53 * 50
	case ppb <= 100:
		return 50 + (ppb-53)/(100-53)*50
	case ppb <= 360:
		return 100 + (ppb-100)/(360-100)*50
	default:
		return 150 + (ppb-360)/(1249-360)*50
	}
}

// ozoneStationIndex takes µg/m³ and scores the equivalent ppb. Anything above
// 105 ppb is capped at 200.
func ozoneStationIndex(c float64) float64 {
	ppb := c * 0.51
	switch {
	case ppb <= 54:
		return ppb / 54 * 50
	case ppb <= 70:
		return 50 + (ppb-54)/(70-54)*50
	case ppb <= 85:
		return 100 + (ppb-70)/(85-70)*50
	case ppb <= 105:
		return 150 + (ppb-85)/(105-85)*50
	default:
		return 200
	}
}
