package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/eparkir/setoran/internal/apperr"
)

// DefaultNominatimURL is the public OpenStreetMap reverse-geocoding service.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

const userAgent = "Setoran-Collector/1.0"

// Nominatim reverse-geocodes coordinates against a Nominatim instance.
type Nominatim struct {
	client  *http.Client
	baseURL string
}

// NewNominatim creates a geocoder client. An empty baseURL selects the
// public OpenStreetMap service.
func NewNominatim(baseURL string, timeout time.Duration) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Nominatim{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 2,
			},
		},
		baseURL: baseURL,
	}
}

type nominatimResponse struct {
	Address *Address `json:"address"`
}

// ReverseGeocode resolves coordinates to an address at street zoom.
func (n *Nominatim) ReverseGeocode(ctx context.Context, pos Coordinates) (Address, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(pos.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(pos.Longitude, 'f', -1, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return Address{}, apperr.Wrap(apperr.ErrGeoUnavailable, "failed to build geocode request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Address{}, apperr.Wrap(apperr.ErrGeoTimeout, "geocoding timed out", err)
		}
		return Address{}, apperr.Wrap(apperr.ErrGeoUnavailable, "failed to reach the map service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Address{}, apperr.New(apperr.ErrGeoUnavailable,
			fmt.Sprintf("map service returned status %d", resp.StatusCode))
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Address{}, apperr.Wrap(apperr.ErrGeoUnavailable, "unreadable geocode response", err)
	}
	if body.Address == nil {
		return Address{}, apperr.New(apperr.ErrGeoUnavailable, "geocode response has no address data")
	}

	return *body.Address, nil
}

// PositionSource yields the current device position. The platform layer
// provides the implementation; the pipeline only consumes its output shape.
type PositionSource interface {
	CurrentPosition(ctx context.Context) (Coordinates, error)
}

// DeviceLocator combines a platform position source with a geocoder into
// the Locator the detector consumes.
type DeviceLocator struct {
	Position PositionSource
	Geocoder interface {
		ReverseGeocode(ctx context.Context, pos Coordinates) (Address, error)
	}
}

// CurrentPosition implements Locator.
func (d DeviceLocator) CurrentPosition(ctx context.Context) (Coordinates, error) {
	return d.Position.CurrentPosition(ctx)
}

// ReverseGeocode implements Locator.
func (d DeviceLocator) ReverseGeocode(ctx context.Context, pos Coordinates) (Address, error) {
	return d.Geocoder.ReverseGeocode(ctx, pos)
}
