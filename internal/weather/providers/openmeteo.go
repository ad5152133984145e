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

// OpenMeteoProvider reads the Open-Meteo air-quality model. It needs no key and
// also reports a US AQI, which the merger may use as a fallback index.
type OpenMeteoProvider struct {
	base
}

func NewOpenMeteoProvider(client *http.Client, opts ...Option) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		base: newBase(fusion.SourceOpenMeteoAQ, "https://air-quality-api.open-meteo.com/v1/air-quality", client, opts),
	}
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (fusion.SourceReading, error) {
	lat, lng, err := coordinates(loc)
	if err != nil {
		return fusion.SourceReading{}, fmt.Errorf("%s: %w", p.name, err)
	}

	values := url.Values{}
	values.Set("latitude", formatCoord(lat))
	values.Set("longitude", formatCoord(lng))
	values.Set("current", "pm10,pm2_5,nitrogen_dioxide,ozone,sulphur_dioxide,carbon_monoxide,us_aqi")
	values.Set("timezone", "GMT")

	var payload struct {
		Current struct {
			Time            string `json:"time"`
			PM10            any    `json:"pm10"`
			PM25            any    `json:"pm2_5"`
			NitrogenDioxide any    `json:"nitrogen_dioxide"`
			Ozone           any    `json:"ozone"`
			SulphurDioxide  any    `json:"sulphur_dioxide"`
			CarbonMonoxide  any    `json:"carbon_monoxide"`
			USAQI           any    `json:"us_aqi"`
		} `json:"current"`
	}
	if err := p.getJSON(ctx, p.baseURL+"?"+values.Encode(), nil, &payload); err != nil {
		return fusion.SourceReading{}, err
	}

	cur := payload.Current
	r := fusion.SourceReading{
		PM25:        field(fusion.PM25, cur.PM25),
		PM10:        field(fusion.PM10, cur.PM10),
		NO2:         field(fusion.NO2, cur.NitrogenDioxide),
		Ozone:       field(fusion.Ozone, cur.Ozone),
		SO2:         field(fusion.SO2, cur.SulphurDioxide),
		CO:          field(fusion.CO, cur.CarbonMonoxide),
		ReportedAQI: fusion.Sanitize(cur.USAQI, fusion.AQIRange),
		Lat:         fusion.Float(lat),
		Lng:         fusion.Float(lng),
	}
	// Open-Meteo uses ISO 8601 without seconds or zone.
	if ts, err := time.Parse("2006-01-02T15:04", cur.Time); err == nil {
		r.ObservedAt = ts
	}
	return p.complete(r)
}
