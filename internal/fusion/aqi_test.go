package fusion

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeAQIBreakpoints(t *testing.T) {
	tests := []struct {
		name string
		pm25 *float64
		pm10 *float64
		aqi  int
		dom  Pollutant
	}{
		{name: "pm25 zero", pm25: Float(0), aqi: 0, dom: PollutantPM25},
		{name: "pm25 top of good", pm25: Float(12.0), aqi: 50, dom: PollutantPM25},
		{name: "pm25 bottom of moderate", pm25: Float(12.1), aqi: 51, dom: PollutantPM25},
		{name: "pm25 top of moderate", pm25: Float(35.4), aqi: 100, dom: PollutantPM25},
		{name: "pm25 unhealthy", pm25: Float(100), aqi: 174, dom: PollutantPM25},
		{name: "pm25 hazardous ceiling", pm25: Float(500.4), aqi: 500, dom: PollutantPM25},
		{name: "pm10 top of good", pm10: Float(54), aqi: 50, dom: PollutantPM10},
		{name: "pm10 bottom of moderate", pm10: Float(55), aqi: 51, dom: PollutantPM10},
		{name: "pm10 ceiling", pm10: Float(604), aqi: 500, dom: PollutantPM10},
		{name: "pm10 wins", pm25: Float(10), pm10: Float(200), aqi: 123, dom: PollutantPM10},
		{name: "pm25 wins", pm25: Float(40), pm10: Float(20), aqi: 112, dom: PollutantPM25},
		{name: "tie goes to pm25", pm25: Float(35.4), pm10: Float(154), aqi: 100, dom: PollutantPM25},
		{name: "pm25 out of table uses pm10", pm25: Float(900), pm10: Float(30), aqi: 28, dom: PollutantPM10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ComputeAQI(tt.pm25, tt.pm10)
			require.NotNil(t, res.AQI)
			assert.Equal(t, tt.aqi, *res.AQI)
			assert.Equal(t, tt.dom, res.DominantPollutant)
		})
	}
}

func TestComputeAQINoIndex(t *testing.T) {
	cases := map[string][2]*float64{
		"both nil":             {nil, nil},
		"both out of range":    {Float(600), Float(700)},
		"gap between brackets": {Float(12.05), nil},
		"negative":             {Float(-1), nil},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			res := ComputeAQI(in[0], in[1])
			assert.Nil(t, res.AQI)
			assert.Equal(t, PollutantNone, res.DominantPollutant)
		})
	}
}

func TestSubIndexOutsideTable(t *testing.T) {
	_, ok := SubIndex(604.1, PM10Breakpoints)
	assert.False(t, ok)
	_, ok = SubIndex(54.5, PM10Breakpoints)
	assert.False(t, ok)
}

func TestCategory(t *testing.T) {
	assert.Equal(t, "Good", Category(0))
	assert.Equal(t, "Good", Category(50))
	assert.Equal(t, "Moderate", Category(51))
	assert.Equal(t, "Unhealthy for Sensitive Groups", Category(150))
	assert.Equal(t, "Unhealthy", Category(200))
	assert.Equal(t, "Very Unhealthy", Category(300))
	assert.Equal(t, "Hazardous", Category(301))
}

func TestPollutantJSON(t *testing.T) {
	b, err := json.Marshal(AQIResult{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"aqi":null,"dominantPollutant":null}`, string(b))

	b, err = json.Marshal(ComputeAQI(Float(12), nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"aqi":50,"dominantPollutant":"PM2.5"}`, string(b))
}
