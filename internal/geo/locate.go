// Package geo resolves the viewer's position and turns typed addresses into
// coordinates.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tgienger/tung/internal/models"
)

// Locator reports the device's approximate position
type Locator interface {
	Locate(ctx context.Context) (models.Coordinates, error)
}

// Static always reports the same position
type Static models.Coordinates

func (s Static) Locate(context.Context) (models.Coordinates, error) {
	return models.Coordinates(s), nil
}

// IPLocator looks the position up from the public IP through an
// ip-api.com compatible endpoint
type IPLocator struct {
	URL    string
	Client *http.Client
}

// NewIPLocator returns a locator querying url
func NewIPLocator(url string, timeout time.Duration) *IPLocator {
	return &IPLocator{URL: strings.TrimSpace(url), Client: &http.Client{Timeout: timeout}}
}

type ipResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (l *IPLocator) Locate(ctx context.Context) (models.Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return models.Coordinates{}, err
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return models.Coordinates{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return models.Coordinates{}, fmt.Errorf("ip lookup returned %s", resp.Status)
	}
	var decoded ipResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return models.Coordinates{}, fmt.Errorf("decode ip lookup: %w", err)
	}
	if decoded.Status != "" && decoded.Status != "success" {
		return models.Coordinates{}, fmt.Errorf("ip lookup failed: %s", decoded.Message)
	}
	return models.Coordinates{Latitude: decoded.Lat, Longitude: decoded.Lon}, nil
}

// Resolve asks loc for a position, giving up after timeout. It never
// fails: on any error the fallback is returned with located=false.
func Resolve(ctx context.Context, loc Locator, timeout time.Duration, fallback models.Coordinates, log *zap.Logger) (models.Coordinates, bool) {
	if loc == nil {
		return fallback, false
	}
	if log == nil {
		log = zap.NewNop()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	c, err := loc.Locate(ctx)
	if err != nil {
		log.Info("geolocation unavailable, using fallback", zap.Error(err))
		return fallback, false
	}
	return c, true
}
