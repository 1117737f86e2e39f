package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// NominatimGeocoder talks to a Nominatim instance. Requests are spaced at
// least MinInterval apart (the public instance requires 1 rps) and responses
// are cached for CacheTTL.
type NominatimGeocoder struct {
	BaseURL     string
	UserAgent   string
	MinInterval time.Duration
	CacheTTL    time.Duration
	Client      *http.Client

	mu        sync.Mutex
	lastReqAt time.Time
	cache     *gocache.Cache
}

type nominatimItem struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (Place, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&addressdetails=1&limit=1", g.baseURL(), url.QueryEscape(query))
	return g.lookup(ctx, "geo:"+query, endpoint, func(body *json.Decoder) (Place, error) {
		var items []nominatimItem
		if err := body.Decode(&items); err != nil {
			return Place{}, err
		}
		if len(items) == 0 {
			return Place{}, ErrNotFound
		}
		return parseItem(items[0])
	})
}

func (g *NominatimGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error) {
	key := fmt.Sprintf("rev:%.6f,%.6f", lat, lon)
	endpoint := fmt.Sprintf("%s/reverse?lat=%s&lon=%s&format=json", g.baseURL(),
		url.QueryEscape(strconv.FormatFloat(lat, 'f', -1, 64)),
		url.QueryEscape(strconv.FormatFloat(lon, 'f', -1, 64)))
	return g.lookup(ctx, key, endpoint, func(body *json.Decoder) (Place, error) {
		var item nominatimItem
		if err := body.Decode(&item); err != nil {
			return Place{}, err
		}
		if item.DisplayName == "" {
			return Place{}, ErrNotFound
		}
		return parseItem(item)
	})
}

func (g *NominatimGeocoder) lookup(ctx context.Context, cacheKey string, endpoint string, parse func(*json.Decoder) (Place, error)) (Place, error) {
	g.mu.Lock()
	if g.cache == nil {
		ttl := g.CacheTTL
		if ttl <= 0 {
			ttl = time.Hour
		}
		g.cache = gocache.New(ttl, 2*ttl)
	}
	if cached, ok := g.cache.Get(cacheKey); ok {
		g.mu.Unlock()
		return cached.(Place), nil
	}
	interval := g.MinInterval
	if interval <= 0 {
		interval = time.Second
	}
	sleepFor := time.Until(g.lastReqAt.Add(interval))
	if sleepFor > 0 {
		g.mu.Unlock()
		time.Sleep(sleepFor)
		g.mu.Lock()
	}
	g.lastReqAt = time.Now()
	g.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Place{}, err
	}
	req.Header.Set("User-Agent", g.userAgent())

	client := g.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Place{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Place{}, fmt.Errorf("nominatim http error: %s", resp.Status)
	}

	place, err := parse(json.NewDecoder(resp.Body))
	if err != nil {
		return Place{}, err
	}

	g.mu.Lock()
	g.cache.SetDefault(cacheKey, place)
	g.mu.Unlock()

	return place, nil
}

func parseItem(item nominatimItem) (Place, error) {
	lat, err := strconv.ParseFloat(item.Lat, 64)
	if err != nil {
		return Place{}, err
	}
	lon, err := strconv.ParseFloat(item.Lon, 64)
	if err != nil {
		return Place{}, err
	}
	if lat == 0 && lon == 0 && item.DisplayName == "" {
		return Place{}, ErrNotFound
	}
	return Place{Lat: lat, Lon: lon, DisplayName: item.DisplayName}, nil
}

func (g *NominatimGeocoder) baseURL() string {
	if g.BaseURL == "" {
		return "https://nominatim.openstreetmap.org"
	}
	return g.BaseURL
}

func (g *NominatimGeocoder) userAgent() string {
	if g.UserAgent == "" {
		return "knockline-backend"
	}
	return g.UserAgent
}
