package fusion

import "math"

// Quantity identifies one physical measurement that is fused across sources.
type Quantity string

const (
	Temperature   Quantity = "temperature"
	Humidity      Quantity = "humidity"
	WindSpeed     Quantity = "windSpeed"
	PM25          Quantity = "pm25"
	PM10          Quantity = "pm10"
	NO2           Quantity = "no2"
	Ozone         Quantity = "ozone"
	SO2           Quantity = "so2"
	CO            Quantity = "co"
	Precipitation Quantity = "precipitation"
)

// Quantities lists every fused quantity in the order the merger walks them.
// The order also decides the order of names in the source label.
var Quantities = []Quantity{
	Temperature,
	Humidity,
	WindSpeed,
	PM25,
	PM10,
	NO2,
	Ozone,
	SO2,
	CO,
	Precipitation,
}

// Range is an inclusive [Min, Max] bound used by Sanitize.
type Range struct {
	Min float64
	Max float64
}

// Unbounded accepts any finite, non-sentinel value.
var Unbounded = Range{Min: math.Inf(-1), Max: math.Inf(1)}

// AQIRange bounds a directly reported overall index.
var AQIRange = Range{Min: 0, Max: 500}

var quantityRanges = map[Quantity]Range{
	Temperature:   {Min: -90, Max: 60},
	Humidity:      {Min: 0, Max: 100},
	WindSpeed:     {Min: 0, Max: 400},
	PM25:          {Min: 0, Max: 10000},
	PM10:          {Min: 0, Max: 10000},
	NO2:           {Min: 0, Max: 10000},
	Ozone:         {Min: 0, Max: 10000},
	SO2:           {Min: 0, Max: 10000},
	CO:            {Min: 0, Max: 100000},
	Precipitation: {Min: 0, Max: 1000},
}

// Range returns the semantic range a merged value must fall in.
// Unknown quantities are unbounded.
func (q Quantity) Range() Range {
	if r, ok := quantityRanges[q]; ok {
		return r
	}
	return Unbounded
}

// Valid reports whether q is one of the fused quantities.
func (q Quantity) Valid() bool {
	_, ok := quantityRanges[q]
	return ok
}
