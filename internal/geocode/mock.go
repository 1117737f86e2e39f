package geocode

import (
	"context"
	"fmt"
	"strings"

	"github.com/knockline/backend/internal/utils"
)

// MockGeocoder resolves every query deterministically from a hash of the
// input, for dev mode and tests. Queries listed in Unresolvable return
// ErrNotFound.
type MockGeocoder struct {
	Unresolvable map[string]bool
}

func (m MockGeocoder) Geocode(ctx context.Context, query string) (Place, error) {
	q := strings.TrimSpace(query)
	if q == "" || m.Unresolvable[q] {
		return Place{}, ErrNotFound
	}
	h := utils.HashStringToUint64(q)
	lat := 30.0 + float64(h%2000000)/100000.0
	lon := -120.0 + float64((h/2000000)%4000000)/100000.0
	return Place{
		Lat:         lat,
		Lon:         lon,
		DisplayName: fmt.Sprintf("%s, Springfield, USA", q),
	}, nil
}

func (m MockGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error) {
	h := utils.HashStringToUint64(fmt.Sprintf("%.5f,%.5f", lat, lon))
	addr := fmt.Sprintf("%d Mock St", 100+h%900)
	if m.Unresolvable[addr] {
		return Place{}, ErrNotFound
	}
	return Place{Lat: lat, Lon: lon, DisplayName: addr + ", Springfield, USA"}, nil
}
