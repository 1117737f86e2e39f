package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseItem(t *testing.T) {
	res, err := parseItem(nominatimItem{
		Lat:         "40.1234",
		Lon:         "-75.5678",
		DisplayName: "500 Oak St, Springfield, USA",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Lat != 40.1234 || res.Lon != -75.5678 {
		t.Fatalf("unexpected coordinates: %+v", res)
	}
	if res.DisplayName != "500 Oak St, Springfield, USA" {
		t.Fatalf("unexpected display name: %s", res.DisplayName)
	}
}

func TestParseItemBadCoordinates(t *testing.T) {
	if _, err := parseItem(nominatimItem{Lat: "x", Lon: "0"}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNominatimGeocodeNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]nominatimItem{})
	}))
	defer srv.Close()

	g := &NominatimGeocoder{BaseURL: srv.URL, MinInterval: time.Millisecond}
	if _, err := g.Geocode(context.Background(), "1 Nowhere"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNominatimGeocodeCachesResponses(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_ = json.NewEncoder(w).Encode([]nominatimItem{{Lat: "40.1", Lon: "-75.2", DisplayName: "500 Oak St"}})
	}))
	defer srv.Close()

	g := &NominatimGeocoder{BaseURL: srv.URL, MinInterval: time.Millisecond}
	for i := 0; i < 3; i++ {
		place, err := g.Geocode(context.Background(), "500 Oak St")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if place.DisplayName != "500 Oak St" {
			t.Fatalf("unexpected place: %+v", place)
		}
	}
	if hits != 1 {
		t.Fatalf("expected one upstream hit, got %d", hits)
	}
}

func TestNominatimReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(nominatimItem{Lat: "40.1", Lon: "-75.2", DisplayName: "500 Oak St, Springfield"})
	}))
	defer srv.Close()

	g := &NominatimGeocoder{BaseURL: srv.URL, MinInterval: time.Millisecond}
	place, err := g.ReverseGeocode(context.Background(), 40.1, -75.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place.DisplayName != "500 Oak St, Springfield" {
		t.Fatalf("unexpected place: %+v", place)
	}
}
