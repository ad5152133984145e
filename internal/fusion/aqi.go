package fusion

import (
	"encoding/json"
	"math"
)

// Pollutant labels the pollutant that drove the AQI. The zero value means none
// and encodes as JSON null.
type Pollutant string

const (
	PollutantNone Pollutant = ""
	PollutantPM25 Pollutant = "PM2.5"
	PollutantPM10 Pollutant = "PM10"
)

func (p Pollutant) MarshalJSON() ([]byte, error) {
	if p == PollutantNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(p))
}

// Breakpoint maps the concentration range [CLo, CHi] onto the index range [ILo, IHi].
type Breakpoint struct {
	CLo float64
	CHi float64
	ILo int
	IHi int
}

// PM25Breakpoints is the US EPA table for PM2.5 in µg/m³.
var PM25Breakpoints = []Breakpoint{
	{CLo: 0.0, CHi: 12.0, ILo: 0, IHi: 50},
	{CLo: 12.1, CHi: 35.4, ILo: 51, IHi: 100},
	{CLo: 35.5, CHi: 55.4, ILo: 101, IHi: 150},
	{CLo: 55.5, CHi: 150.4, ILo: 151, IHi: 200},
	{CLo: 150.5, CHi: 250.4, ILo: 201, IHi: 300},
	{CLo: 250.5, CHi: 350.4, ILo: 301, IHi: 400},
	{CLo: 350.5, CHi: 500.4, ILo: 401, IHi: 500},
}

// PM10Breakpoints is the US EPA table for PM10 in µg/m³.
var PM10Breakpoints = []Breakpoint{
	{CLo: 0, CHi: 54, ILo: 0, IHi: 50},
	{CLo: 55, CHi: 154, ILo: 51, IHi: 100},
	{CLo: 155, CHi: 254, ILo: 101, IHi: 150},
	{CLo: 255, CHi: 354, ILo: 151, IHi: 200},
	{CLo: 355, CHi: 424, ILo: 201, IHi: 300},
	{CLo: 425, CHi: 504, ILo: 301, IHi: 400},
	{CLo: 505, CHi: 604, ILo: 401, IHi: 500},
}

// SubIndex interpolates c within the first bracket that contains it.
// Concentrations outside every bracket (including the gaps between them)
// produce no index.
func SubIndex(c float64, table []Breakpoint) (int, bool) {
	for _, b := range table {
		if c >= b.CLo && c <= b.CHi {
			i := float64(b.IHi-b.ILo)/(b.CHi-b.CLo)*(c-b.CLo) + float64(b.ILo)
			return int(math.Round(i)), true
		}
	}
	return 0, false
}

// AQIResult is the combined index and the pollutant that produced it.
type AQIResult struct {
	AQI               *int      `json:"aqi"`
	DominantPollutant Pollutant `json:"dominantPollutant"`
}

// ComputeAQI returns the larger of the PM2.5 and PM10 sub-indices.
// Ties go to PM2.5.
func ComputeAQI(pm25, pm10 *float64) AQIResult {
	var (
		res  AQIResult
		best int
	)
	if pm25 != nil {
		if i, ok := SubIndex(*pm25, PM25Breakpoints); ok {
			best = i
			res.AQI = &best
			res.DominantPollutant = PollutantPM25
		}
	}
	if pm10 != nil {
		if i, ok := SubIndex(*pm10, PM10Breakpoints); ok && (res.AQI == nil || i > best) {
			best = i
			res.AQI = &best
			res.DominantPollutant = PollutantPM10
		}
	}
	return res
}

// Category returns the EPA health category for an index.
func Category(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}
