package geocode

import (
	"context"
	"errors"
	"testing"
)

func TestBuildQuery(t *testing.T) {
	q := BuildQuery("123 Main St", "Springfield", "USA")
	if q != "123 Main St, Springfield, USA" {
		t.Fatalf("unexpected query: %s", q)
	}
	if BuildQuery(" 123 Main St ", "", "") != "123 Main St" {
		t.Fatalf("blank parts must be dropped")
	}
}

func TestMockGeocoderDeterministic(t *testing.T) {
	m := MockGeocoder{}
	a, err := m.Geocode(context.Background(), "123 Main St")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := m.Geocode(context.Background(), "123 Main St")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Fatalf("mock must be deterministic: %+v vs %+v", a, b)
	}
	if a.Lat == 0 && a.Lon == 0 {
		t.Fatalf("expected nonzero coordinates")
	}
}

func TestMockGeocoderUnresolvable(t *testing.T) {
	m := MockGeocoder{Unresolvable: map[string]bool{"1 Nowhere": true}}
	if _, err := m.Geocode(context.Background(), "1 Nowhere"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := m.Geocode(context.Background(), ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty query, got %v", err)
	}
}
