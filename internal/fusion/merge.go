package fusion

import (
	"math"
	"time"
)

// Place is the location a merge is performed for. It is passed through,
// not fused.
type Place struct {
	City    string
	Country string
	Lat     float64
	Lng     float64
}

// Merger fuses source readings into one MergedReading.
// The zero value uses the default priorities, threshold and label rules.
type Merger struct {
	Priorities Priorities
	Threshold  float64
	LabelRules []LabelRule
	Now        func() time.Time
}

// NewMerger returns a Merger with the default configuration.
func NewMerger() *Merger {
	return &Merger{
		Priorities: DefaultPriorities(),
		Threshold:  DefaultThreshold,
		LabelRules: DefaultLabelRules,
	}
}

func (m *Merger) priorities() Priorities {
	if m.Priorities.Order == nil && m.Priorities.ReportedAQI == nil {
		return DefaultPriorities()
	}
	return m.Priorities
}

func (m *Merger) threshold() float64 {
	if m.Threshold <= 0 {
		return DefaultThreshold
	}
	return m.Threshold
}

func (m *Merger) labelRules() []LabelRule {
	if m.LabelRules == nil {
		return DefaultLabelRules
	}
	return m.LabelRules
}

func (m *Merger) now() time.Time {
	if m.Now == nil {
		return time.Now().UTC()
	}
	return m.Now()
}

// Merge runs extract, blend and sanitize for every quantity, then derives the
// AQI, condition and source label. It never fails: with no usable source the
// result has every quantity at zero, listed in Missing, and a nil AQI.
func (m *Merger) Merge(readings []SourceReading, place Place) MergedReading {
	prio := m.priorities()
	threshold := m.threshold()

	var (
		values       = make(map[Quantity]*float64, len(Quantities))
		provenance   = make(map[Quantity]FieldProvenance, len(Quantities))
		contributors []string
		seen         = make(map[string]bool)
		blended      bool
	)
	contribute := func(name string) {
		if !seen[name] {
			seen[name] = true
			contributors = append(contributors, name)
		}
	}

	for _, q := range Quantities {
		candidates := prio.Extract(q, readings)

		var o Outcome
		if q == Precipitation {
			o = FirstAvailable(candidates)
		} else {
			o = BlendOutcome(candidates, threshold)
		}
		if o.Agreed() {
			blended = true
		}
		for _, c := range candidates {
			contribute(c.Source)
		}

		v := Sanitize(o.Value, q.Range())
		values[q] = v
		provenance[q] = FieldProvenance{
			Method:     o.Method,
			Candidates: candidates,
			Sources:    o.Sources,
			Rejected:   o.Value != nil && v == nil,
		}
	}

	aqi := ComputeAQI(values[PM25], values[PM10])
	aqiSource := ""
	if aqi.AQI != nil {
		aqiSource = AQISourceComputed
	}
	if aqi.AQI == nil || *aqi.AQI == 0 {
		if idx, src, ok := reportedAQI(readings, prio.ReportedAQI, aqi.AQI == nil); ok {
			aqi = AQIResult{AQI: &idx}
			aqiSource = AQISourceReportedPrefix + src
			contribute(src)
		}
	}

	out := MergedReading{
		AQI:               aqi.AQI,
		AQISource:         aqiSource,
		DominantPollutant: aqi.DominantPollutant,
		Condition:         ConditionClear,
		DataSource:        SourceLabel(contributors, blended, m.labelRules()),
		Provenance:        provenance,
		GeneratedAt:       m.now(),
	}
	if aqi.AQI != nil {
		out.Category = Category(*aqi.AQI)
	}
	if p := values[Precipitation]; p != nil && *p > 0 {
		out.Condition = ConditionRainy
	}

	// Unknown becomes zero only here; Missing keeps the distinction.
	for _, q := range Quantities {
		if v := values[q]; v != nil {
			out.set(q, *v)
		} else {
			out.Missing = append(out.Missing, q)
		}
	}

	m.assignPlace(&out, readings, place)
	return out
}

// reportedAQI walks order and returns the first sanitized, non-zero index an
// available source reported. A reported zero is only used when allowZero is set
// and nothing better exists.
func reportedAQI(readings []SourceReading, order []string, allowZero bool) (int, string, bool) {
	available := availableBySource(readings)

	var (
		zeroSource string
		haveZero   bool
	)
	for _, name := range order {
		r, ok := available[name]
		if !ok {
			continue
		}
		v := Sanitize(r.ReportedAQI, AQIRange)
		if v == nil {
			continue
		}
		idx := int(math.Round(*v))
		if idx != 0 {
			return idx, name, true
		}
		if !haveZero {
			zeroSource, haveZero = name, true
		}
	}
	if allowZero && haveZero {
		return 0, zeroSource, true
	}
	return 0, "", false
}

// assignPlace fills the passthrough location. Caller-supplied values win;
// otherwise the first available reading that names a place is used.
func (m *Merger) assignPlace(out *MergedReading, readings []SourceReading, place Place) {
	out.City, out.Country = place.City, place.Country
	out.Lat, out.Lng = place.Lat, place.Lng

	for _, r := range readings {
		if !r.Available {
			continue
		}
		if out.City == "" && r.City != "" {
			out.City = r.City
			if out.Country == "" {
				out.Country = r.Country
			}
		}
		if out.Lat == 0 && out.Lng == 0 && r.Lat != nil && r.Lng != nil {
			out.Lat, out.Lng = *r.Lat, *r.Lng
		}
	}
}
