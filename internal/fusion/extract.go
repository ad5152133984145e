package fusion

// Source names used by the bundled adapters.
const (
	SourceMeteostat       = "Meteostat"
	SourceNASAPower       = "NASA POWER"
	SourceNASADaymet      = "NASA Daymet"
	SourceNASATempo       = "NASA TEMPO"
	SourceNASAIMERG       = "NASA IMERG"
	SourceRapidAPIWeather = "RapidAPI Weather"
	SourceRapidAPIAQ      = "RapidAPI AQ"
	SourceWeatherAPI      = "WeatherAPI"
	SourceCustomWeather   = "Custom Weather API"
	SourceOpenAQ          = "OpenAQ"
	SourceOpenWeather     = "OpenWeather"
	SourceOpenMeteoAQ     = "Open-Meteo AQ"
)

// Priorities decides the order candidates are listed in for each quantity.
// The blender prefers earlier candidates when sources disagree, so the order
// is policy, not cosmetics.
type Priorities struct {
	Order map[Quantity][]string
	// ReportedAQI is the order in which directly reported indices are tried
	// when the breakpoint computation yields nothing.
	ReportedAQI []string
}

// DefaultPriorities returns the built-in source ordering.
func DefaultPriorities() Priorities {
	weather := []string{
		SourceMeteostat,
		SourceNASAPower,
		SourceRapidAPIWeather,
		SourceWeatherAPI,
		SourceCustomWeather,
		SourceOpenWeather,
	}
	particulates := []string{SourceOpenAQ, SourceRapidAPIAQ, SourceOpenMeteoAQ, SourceWeatherAPI}
	gases := []string{SourceNASATempo, SourceOpenAQ, SourceRapidAPIAQ, SourceOpenMeteoAQ, SourceWeatherAPI}

	return Priorities{
		Order: map[Quantity][]string{
			Temperature: {
				SourceMeteostat,
				SourceNASAPower,
				SourceNASADaymet,
				SourceRapidAPIWeather,
				SourceWeatherAPI,
				SourceCustomWeather,
				SourceOpenWeather,
			},
			Humidity:      weather,
			WindSpeed:     weather,
			PM25:          particulates,
			PM10:          particulates,
			NO2:           gases,
			Ozone:         gases,
			SO2:           particulates,
			CO:            particulates,
			Precipitation: {SourceNASAIMERG, SourceNASAPower, SourceMeteostat, SourceWeatherAPI, SourceOpenWeather},
		},
		ReportedAQI: []string{SourceOpenAQ, SourceRapidAPIAQ, SourceOpenMeteoAQ},
	}
}

// Extract lists the candidates for q from every available reading.
// Sources named in the priority order come first, in that order; any other
// source follows in input order. Wind speeds reported in km/h are converted
// to m/s.
func (p Priorities) Extract(q Quantity, readings []SourceReading) []Candidate {
	available := availableBySource(readings)

	var out []Candidate
	listed := make(map[string]bool)
	for _, name := range p.Order[q] {
		listed[name] = true
		if r, ok := available[name]; ok {
			out = appendCandidate(out, q, r)
		}
	}
	for _, r := range readings {
		if !r.Available || listed[r.Source] {
			continue
		}
		listed[r.Source] = true
		out = appendCandidate(out, q, r)
	}
	return out
}

func appendCandidate(out []Candidate, q Quantity, r SourceReading) []Candidate {
	v := r.Value(q)
	if v == nil {
		return out
	}
	val := *v
	if q == WindSpeed && r.WindSpeedUnit == WindKMH {
		val /= 3.6
	}
	return append(out, Candidate{Value: val, Source: r.Source})
}

// availableBySource indexes available readings by name; the first reading
// for a name wins.
func availableBySource(readings []SourceReading) map[string]SourceReading {
	m := make(map[string]SourceReading, len(readings))
	for _, r := range readings {
		if !r.Available {
			continue
		}
		if _, dup := m[r.Source]; !dup {
			m[r.Source] = r
		}
	}
	return m
}
