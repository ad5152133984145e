package fusion

import "time"

// WindUnit is the unit a source reports wind speed in.
type WindUnit string

const (
	WindMS  WindUnit = "m/s"
	WindKMH WindUnit = "km/h"
)

// SourceReading is what one source reported for one fetch cycle.
// Nil fields are absent. When Available is false the whole record is ignored.
type SourceReading struct {
	Source    string `json:"source" validate:"required"`
	Available bool   `json:"available"`

	Temperature   *float64 `json:"temperature,omitempty"`
	Humidity      *float64 `json:"humidity,omitempty"`
	WindSpeed     *float64 `json:"windSpeed,omitempty"`
	WindSpeedUnit WindUnit `json:"windSpeedUnit,omitempty" validate:"omitempty,oneof=m/s km/h"`
	PM25          *float64 `json:"pm25,omitempty"`
	PM10          *float64 `json:"pm10,omitempty"`
	NO2           *float64 `json:"no2,omitempty"`
	Ozone         *float64 `json:"ozone,omitempty"`
	SO2           *float64 `json:"so2,omitempty"`
	CO            *float64 `json:"co,omitempty"`
	Precipitation *float64 `json:"precipitation,omitempty"`

	// ReportedAQI is an overall index computed upstream. It is only consulted
	// when the breakpoint computation yields nothing.
	ReportedAQI *float64 `json:"reportedAqi,omitempty"`

	City       string    `json:"city,omitempty"`
	Country    string    `json:"country,omitempty"`
	Lat        *float64  `json:"lat,omitempty"`
	Lng        *float64  `json:"lng,omitempty"`
	ObservedAt time.Time `json:"observedAt,omitempty"`
}

// Value returns the raw field for q.
func (r SourceReading) Value(q Quantity) *float64 {
	switch q {
	case Temperature:
		return r.Temperature
	case Humidity:
		return r.Humidity
	case WindSpeed:
		return r.WindSpeed
	case PM25:
		return r.PM25
	case PM10:
		return r.PM10
	case NO2:
		return r.NO2
	case Ozone:
		return r.Ozone
	case SO2:
		return r.SO2
	case CO:
		return r.CO
	case Precipitation:
		return r.Precipitation
	default:
		return nil
	}
}

// Set assigns the raw field for q. Unknown quantities are ignored.
func (r *SourceReading) Set(q Quantity, v *float64) {
	switch q {
	case Temperature:
		r.Temperature = v
	case Humidity:
		r.Humidity = v
	case WindSpeed:
		r.WindSpeed = v
	case PM25:
		r.PM25 = v
	case PM10:
		r.PM10 = v
	case NO2:
		r.NO2 = v
	case Ozone:
		r.Ozone = v
	case SO2:
		r.SO2 = v
	case CO:
		r.CO = v
	case Precipitation:
		r.Precipitation = v
	}
}

// HasData reports whether any fused field is present.
func (r SourceReading) HasData() bool {
	for _, q := range Quantities {
		if r.Value(q) != nil {
			return true
		}
	}
	return r.ReportedAQI != nil
}

// Candidate is one source's proposed value for one quantity.
type Candidate struct {
	Value  float64 `json:"value"`
	Source string  `json:"source"`
}

// Condition is the coarse sky condition derived from precipitation.
type Condition string

const (
	ConditionClear Condition = "Clear"
	ConditionRainy Condition = "Rainy"
)

// Method records how a field's value was chosen.
type Method string

const (
	MethodNone           Method = "none"
	MethodSingle         Method = "single"
	MethodConsensus      Method = "consensus"
	MethodPriority       Method = "priority"
	MethodFirstAvailable Method = "first-available"
)

// FieldProvenance explains one merged field.
type FieldProvenance struct {
	Method     Method      `json:"method"`
	Candidates []Candidate `json:"candidates,omitempty"`
	// Sources whose values formed the blended result.
	Sources []string `json:"sources,omitempty"`
	// Rejected is set when a blended value failed sanitization.
	Rejected bool `json:"rejected,omitempty"`
}

// AQI paths recorded in MergedReading.AQISource.
const (
	AQISourceComputed       = "computed"
	AQISourceReportedPrefix = "reported:"
)

// MergedReading is the fused result for one location.
// Quantity fields are zero when unknown; Missing lists which ones.
type MergedReading struct {
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	WindSpeed     float64 `json:"windSpeed"`
	PM25          float64 `json:"pm25"`
	PM10          float64 `json:"pm10"`
	NO2           float64 `json:"no2"`
	Ozone         float64 `json:"ozone"`
	SO2           float64 `json:"so2"`
	CO            float64 `json:"co"`
	Precipitation float64 `json:"precipitation"`

	AQI               *int      `json:"aqi"`
	AQISource         string    `json:"aqiSource,omitempty"`
	Category          string    `json:"category,omitempty"`
	DominantPollutant Pollutant `json:"dominantPollutant"`
	Condition         Condition `json:"condition"`
	DataSource        string    `json:"dataSource"`

	City        string    `json:"city"`
	Country     string    `json:"country"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	GeneratedAt time.Time `json:"generatedAt"`

	Missing    []Quantity                   `json:"missing,omitempty"`
	Provenance map[Quantity]FieldProvenance `json:"provenance,omitempty"`
}

// Value returns the merged value for q and whether it was known.
func (m MergedReading) Value(q Quantity) (float64, bool) {
	for _, missing := range m.Missing {
		if missing == q {
			return 0, false
		}
	}
	switch q {
	case Temperature:
		return m.Temperature, true
	case Humidity:
		return m.Humidity, true
	case WindSpeed:
		return m.WindSpeed, true
	case PM25:
		return m.PM25, true
	case PM10:
		return m.PM10, true
	case NO2:
		return m.NO2, true
	case Ozone:
		return m.Ozone, true
	case SO2:
		return m.SO2, true
	case CO:
		return m.CO, true
	case Precipitation:
		return m.Precipitation, true
	default:
		return 0, false
	}
}

func (m *MergedReading) set(q Quantity, v float64) {
	switch q {
	case Temperature:
		m.Temperature = v
	case Humidity:
		m.Humidity = v
	case WindSpeed:
		m.WindSpeed = v
	case PM25:
		m.PM25 = v
	case PM10:
		m.PM10 = v
	case NO2:
		m.NO2 = v
	case Ozone:
		m.Ozone = v
	case SO2:
		m.SO2 = v
	case CO:
		m.CO = v
	case Precipitation:
		m.Precipitation = v
	}
}
