package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tgienger/tung/internal/models"
)

// MinGeocodeQuery is the shortest address worth sending, in bytes after trimming
const MinGeocodeQuery = 4

// Place is one geocoding result
type Place struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Coordinates parses the result's position
func (p Place) Coordinates() (models.Coordinates, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("parse latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("parse longitude %q: %w", p.Lon, err)
	}
	return models.Coordinates{Latitude: lat, Longitude: lon}, nil
}

// Geocoder searches a Nominatim-compatible service. Requests are limited to
// one per second and identify the client through User-Agent, both of which
// the public instance requires.
type Geocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

// NewGeocoder returns a geocoder for baseURL
func NewGeocoder(baseURL, userAgent string, timeout time.Duration) *Geocoder {
	if userAgent == "" {
		userAgent = "tung"
	}
	return &Geocoder{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Search returns places matching address. Short addresses yield no results
// without a request.
func (g *Geocoder) Search(ctx context.Context, address string) ([]Place, error) {
	address = strings.TrimSpace(address)
	if len(address) < MinGeocodeQuery {
		return nil, nil
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("geocoder returned %s", resp.Status)
	}
	var places []Place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("decode geocoder response: %w", err)
	}
	return places, nil
}
