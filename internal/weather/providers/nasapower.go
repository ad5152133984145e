package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rickykhulal/bolt-earth/internal/fusion"
	"github.com/rickykhulal/bolt-earth/internal/weather"
)

// NASAPowerProvider reads the daily point product of NASA POWER.
// The newest day is often still filled with -999; the newest day carrying any
// valid value is used instead.
type NASAPowerProvider struct {
	base
}

func NewNASAPowerProvider(client *http.Client, opts ...Option) *NASAPowerProvider {
	return &NASAPowerProvider{
		base: newBase(fusion.SourceNASAPower, "https://power.larc.nasa.gov/api/temporal/daily/point", client, opts),
	}
}

func (p *NASAPowerProvider) Fetch(ctx context.Context, loc weather.Location) (fusion.SourceReading, error) {
	lat, lng, err := coordinates(loc)
	if err != nil {
		return fusion.SourceReading{}, fmt.Errorf("%s: %w", p.name, err)
	}

	today := p.now().UTC()
	values := url.Values{}
	values.Set("parameters", "T2M,RH2M,PRECTOTCORR,WS2M")
	values.Set("community", "RE")
	values.Set("latitude", formatCoord(lat))
	values.Set("longitude", formatCoord(lng))
	values.Set("start", today.AddDate(0, 0, -7).Format("20060102"))
	values.Set("end", today.Format("20060102"))
	values.Set("format", "JSON")

	var payload struct {
		Properties struct {
			Parameter map[string]map[string]any `json:"parameter"`
		} `json:"properties"`
	}
	if err := p.getJSON(ctx, p.baseURL+"?"+values.Encode(), nil, &payload); err != nil {
		return fusion.SourceReading{}, err
	}

	params := payload.Properties.Parameter
	dates := make([]string, 0, len(params["T2M"]))
	for d := range params["T2M"] {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	for _, d := range dates {
		r := fusion.SourceReading{
			Temperature:   field(fusion.Temperature, params["T2M"][d]),
			Humidity:      field(fusion.Humidity, params["RH2M"][d]),
			Precipitation: field(fusion.Precipitation, params["PRECTOTCORR"][d]),
			WindSpeed:     field(fusion.WindSpeed, params["WS2M"][d]),
			WindSpeedUnit: fusion.WindMS,
			Lat:           fusion.Float(lat),
			Lng:           fusion.Float(lng),
		}
		if !r.HasData() {
			continue
		}
		if ts, err := time.Parse("20060102", d); err == nil {
			r.ObservedAt = ts
		}
		return p.complete(r)
	}
	return p.complete(fusion.SourceReading{})
}
