// Package geo obtains device coordinates and reverse-geocoded addresses and
// reduces them to a canonical street selection.
package geo

import (
	"context"

	"github.com/eparkir/setoran/internal/apperr"
	"github.com/eparkir/setoran/internal/logging"
	"github.com/eparkir/setoran/internal/match"
)

// Coordinates is a device position fix.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Address holds the free-text sub-fields a reverse geocoder may return.
// Which fields are populated varies by map coverage.
type Address struct {
	Road         string `json:"road"`
	Street       string `json:"street"`
	Residential  string `json:"residential"`
	LivingStreet string `json:"living_street"`
	Pedestrian   string `json:"pedestrian"`
	Highway      string `json:"highway"`
	Suburb       string `json:"suburb"`
	Village      string `json:"village"`
	Town         string `json:"town"`
}

// StreetName returns the best-guess street name, most specific field first.
func (a Address) StreetName() string {
	for _, candidate := range []string{
		a.Road, a.Street, a.Residential, a.LivingStreet,
		a.Pedestrian, a.Highway, a.Suburb, a.Village, a.Town,
	} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// Locator obtains the device position and resolves it to an address.
// Implementations fail with GEO_PERMISSION_DENIED, GEO_UNAVAILABLE or
// GEO_TIMEOUT codes.
type Locator interface {
	CurrentPosition(ctx context.Context) (Coordinates, error)
	ReverseGeocode(ctx context.Context, pos Coordinates) (Address, error)
}

// Detection is the outcome of one street detection attempt.
type Detection struct {
	RawAddress string
	Street     string
	Found      bool
}

// Detector resolves the collector's location to a canonical street name.
type Detector struct {
	locator Locator
}

// NewDetector creates a Detector over the given locator.
func NewDetector(locator Locator) *Detector {
	return &Detector{locator: locator}
}

// DetectStreet locates the device, reverse-geocodes the position and fuzzy
// matches the detected street against the canonical list. The list is
// read-only input for this one call, never cached.
func (d *Detector) DetectStreet(ctx context.Context, streets []string) (Detection, error) {
	pos, err := d.locator.CurrentPosition(ctx)
	if err != nil {
		return Detection{}, err
	}

	addr, err := d.locator.ReverseGeocode(ctx, pos)
	if err != nil {
		return Detection{}, err
	}

	raw := addr.StreetName()
	if raw == "" {
		return Detection{}, apperr.New(apperr.ErrGeoNoStreet, "street is not registered on the map")
	}

	street, found := match.FindClosest(raw, streets)

	logging.Info("Street detection finished", logging.Fields{
		"raw":     raw,
		"matched": street,
		"found":   found,
	})

	return Detection{RawAddress: raw, Street: street, Found: found}, nil
}
