package geocode

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("geocode not found")

// Place is a resolved location.
type Place struct {
	Lat         float64
	Lon         float64
	DisplayName string
}

// Geocoder resolves free-text addresses to coordinates and back. Both calls
// are fallible; an empty result set is ErrNotFound.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Place, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error)
}

// BuildQuery assembles a geocoding query from an address and optional
// city/country context, skipping blank parts.
func BuildQuery(addr string, city string, country string) string {
	parts := []string{}
	for _, p := range []string{addr, city, country} {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
