package fusion

import (
	"strings"

	"github.com/rickykhulal/bolt-earth/internal/common"
)

// LabelRule collapses any source name containing one of Keywords into Label.
type LabelRule struct {
	Label    string
	Keywords []string
}

// DefaultLabelRules groups the bundled source names by provider family.
// Rules are tried in order, so "RapidAPI Weather" becomes "RapidAPI" before
// the WeatherAPI rule is considered.
var DefaultLabelRules = []LabelRule{
	{Label: "RapidAPI", Keywords: []string{"RapidAPI"}},
	{Label: "WeatherAPI", Keywords: []string{"WeatherAPI"}},
	{Label: "Meteostat", Keywords: []string{"Meteostat"}},
	{Label: "NASA", Keywords: []string{"NASA"}},
	{Label: "OpenAQ", Keywords: []string{"OpenAQ"}},
	{Label: "Open-Meteo", Keywords: []string{"Open-Meteo"}},
}

// CollapseName maps a source name onto its display label.
func CollapseName(name string, rules []LabelRule) string {
	for _, r := range rules {
		if common.HasAny(name, r.Keywords...) {
			return r.Label
		}
	}
	return name
}

// SourceLabel joins the collapsed, deduplicated source names with " + ".
// " (blended)" is appended when consensus occurred for at least one quantity.
func SourceLabel(sources []string, blended bool, rules []LabelRule) string {
	seen := make(map[string]bool, len(sources))
	labels := make([]string, 0, len(sources))
	for _, s := range sources {
		l := CollapseName(s, rules)
		if seen[l] {
			continue
		}
		seen[l] = true
		labels = append(labels, l)
	}

	label := strings.Join(labels, " + ")
	if blended && label != "" {
		label += " (blended)"
	}
	return label
}
