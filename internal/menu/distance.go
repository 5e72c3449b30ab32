package menu

import (
	"context"
	"math"
	"strings"

	"sjsage522/makkaratutka/logger"
)

// earthRadiusKm is the IUGG mean earth radius
const earthRadiusKm = 6371.0088

// Geocoder resolves a free-form address to coordinates. A nil result with a
// nil error means the address was not found.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*Coordinates, error)
}

// GeocoderFunc adapts a function to the Geocoder interface
type GeocoderFunc func(ctx context.Context, query string) (*Coordinates, error)

// Geocode implements Geocoder
func (f GeocoderFunc) Geocode(ctx context.Context, query string) (*Coordinates, error) {
	return f(ctx, query)
}

// BuildGeocodeQuery returns "<address>, <city>", using the restaurant name in
// place of an empty address.
func BuildGeocodeQuery(addressText, fallbackName, cityLabel string) string {
	place := strings.TrimSpace(addressText)
	if place == "" {
		place = fallbackName
	}
	return place + ", " + cityLabel
}

// ResolveDistanceKm geocodes the restaurant and returns its distance from
// user. The second return value is false when the distance is unknown:
// no user location, no geocoding hit, or any geocoder failure.
func ResolveDistanceKm(ctx context.Context, addressText, fallbackName, cityLabel string, user *Coordinates, geocoder Geocoder) (distance float64, ok bool) {
	if user == nil || geocoder == nil {
		return 0, false
	}

	query := BuildGeocodeQuery(addressText, fallbackName, cityLabel)

	defer func() {
		if r := recover(); r != nil {
			logger.ForGeocoder().Warn().
				Str("query", query).
				Interface("panic", r).
				Msg("Geocoder panicked, distance unknown")
			distance, ok = 0, false
		}
	}()

	target, err := geocoder.Geocode(ctx, query)
	if err != nil {
		logger.ForGeocoder().Debug().Err(err).Str("query", query).Msg("Geocoding failed, distance unknown")
		return 0, false
	}
	if target == nil {
		return 0, false
	}

	return HaversineKm(*user, *target), true
}

// HaversineKm returns the great-circle distance between two points
func HaversineKm(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}
