package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"
)

var errNoAddress = errors.New("no address found for coordinates")

// GoogleResolver geocodes through the Google Maps Geocoding API.
// The geocoder package keeps its key in a package variable, so calls are
// serialized.
type GoogleResolver struct {
	mu     sync.Mutex
	apiKey string
}

// NewGoogleResolver returns a resolver using apiKey.
func NewGoogleResolver(apiKey string) *GoogleResolver {
	return &GoogleResolver{apiKey: apiKey}
}

func (g *GoogleResolver) Geocode(ctx context.Context, city, country string) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	geocoder.ApiKey = g.apiKey

	loc, err := geocoder.Geocoding(geocoder.Address{City: city, Country: country})
	if err != nil {
		return 0, 0, fmt.Errorf("geocode %s,%s: %w", city, country, err)
	}
	return loc.Latitude, loc.Longitude, nil
}

func (g *GoogleResolver) Reverse(ctx context.Context, lat, lng float64) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	geocoder.ApiKey = g.apiKey

	addresses, err := geocoder.GeocodingReverse(geocoder.Location{Latitude: lat, Longitude: lng})
	if err != nil {
		return "", "", fmt.Errorf("reverse geocode %.4f,%.4f: %w", lat, lng, err)
	}
	for _, a := range addresses {
		if a.City != "" {
			return a.City, a.Country, nil
		}
	}
	return "", "", errNoAddress
}

var _ Resolver = (*GoogleResolver)(nil)
