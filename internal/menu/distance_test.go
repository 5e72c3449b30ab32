package menu

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var jyvaskyla = Coordinates{Lat: 62.2426, Lon: 25.7473}

// north returns the point km kilometres due north of c
func north(c Coordinates, km float64) Coordinates {
	return Coordinates{Lat: c.Lat + km/earthRadiusKm*180/math.Pi, Lon: c.Lon}
}

// mapGeocoder resolves queries from a fixed table and counts calls
type mapGeocoder struct {
	points map[string]Coordinates
	calls  []string
}

func (g *mapGeocoder) Geocode(_ context.Context, query string) (*Coordinates, error) {
	g.calls = append(g.calls, query)
	if p, ok := g.points[query]; ok {
		return &p, nil
	}
	return nil, nil
}

func TestHaversineKm(t *testing.T) {
	assert.InDelta(t, 0, HaversineKm(jyvaskyla, jyvaskyla), 1e-9)
	assert.InDelta(t, 5.0, HaversineKm(jyvaskyla, north(jyvaskyla, 5)), 1e-6)

	helsinki := Coordinates{Lat: 60.1699, Lon: 24.9384}
	assert.InDelta(t, 234, HaversineKm(jyvaskyla, helsinki), 3)
}

func TestBuildGeocodeQuery(t *testing.T) {
	assert.Equal(t, "Kauppakatu 1, Jyväskylä", BuildGeocodeQuery("Kauppakatu 1", "Kahvila Testi", "Jyväskylä"))
	assert.Equal(t, "Kahvila Testi, Jyväskylä", BuildGeocodeQuery("", "Kahvila Testi", "Jyväskylä"))
	assert.Equal(t, "Kahvila Testi, Jyväskylä", BuildGeocodeQuery("   ", "Kahvila Testi", "Jyväskylä"))
}

func TestResolveDistanceKm(t *testing.T) {
	ctx := context.Background()
	g := &mapGeocoder{points: map[string]Coordinates{
		"Kahvila Testi, Jyväskylä": north(jyvaskyla, 5),
	}}

	d, ok := ResolveDistanceKm(ctx, "", "Kahvila Testi", "Jyväskylä", &jyvaskyla, g)
	assert.True(t, ok)
	assert.InDelta(t, 5.0, d, 1e-6)

	_, ok = ResolveDistanceKm(ctx, "Tuntematon tie 9", "Kahvila Testi", "Jyväskylä", &jyvaskyla, g)
	assert.False(t, ok)
	assert.Equal(t, []string{"Kahvila Testi, Jyväskylä", "Tuntematon tie 9, Jyväskylä"}, g.calls)
}

func TestResolveDistanceKmWithoutUserLocation(t *testing.T) {
	g := &mapGeocoder{}

	_, ok := ResolveDistanceKm(context.Background(), "Kauppakatu 1", "Kahvila Testi", "Jyväskylä", nil, g)
	assert.False(t, ok)
	assert.Empty(t, g.calls, "geocoder must not be called without a user location")
}

func TestResolveDistanceKmSwallowsFailures(t *testing.T) {
	ctx := context.Background()

	failing := GeocoderFunc(func(context.Context, string) (*Coordinates, error) {
		return nil, errors.New("service unavailable")
	})
	_, ok := ResolveDistanceKm(ctx, "Kauppakatu 1", "Kahvila Testi", "Jyväskylä", &jyvaskyla, failing)
	assert.False(t, ok)

	panicking := GeocoderFunc(func(context.Context, string) (*Coordinates, error) {
		panic("malformed response")
	})
	assert.NotPanics(t, func() {
		_, ok = ResolveDistanceKm(ctx, "Kauppakatu 1", "Kahvila Testi", "Jyväskylä", &jyvaskyla, panicking)
	})
	assert.False(t, ok)
}
