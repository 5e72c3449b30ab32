package geocode

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/makkaratutka/internal/menu"
	"sjsage522/makkaratutka/services/cache"
)

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttl     time.Duration
	failing bool
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil, errors.New("memcache: connection refused")
	}
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, cache.ErrMiss
}

func (m *mockCache) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("memcache: connection refused")
	}
	m.data[key] = value
	m.ttl = expiration
	return nil
}

func (m *mockCache) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type countingGeocoder struct {
	calls  int
	result *menu.Coordinates
	err    error
}

func (g *countingGeocoder) Geocode(ctx context.Context, query string) (*menu.Coordinates, error) {
	g.calls++
	return g.result, g.err
}

func TestCachedGeocoderHit(t *testing.T) {
	next := &countingGeocoder{result: &menu.Coordinates{Lat: 62.24, Lon: 25.75}}
	mc := newMockCache()
	g := NewCachedGeocoder(next, mc, 24*time.Hour)

	first, err := g.Geocode(context.Background(), "Kauppakatu 1, Jyväskylä")
	require.NoError(t, err)
	second, err := g.Geocode(context.Background(), "Kauppakatu 1, Jyväskylä")
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, 24*time.Hour, mc.ttl)

	_, err = mc.Get(cache.Key("geocode", "Kauppakatu 1, Jyväskylä"))
	assert.NoError(t, err)
}

func TestCachedGeocoderCachesNotFound(t *testing.T) {
	next := &countingGeocoder{}
	g := NewCachedGeocoder(next, newMockCache(), time.Hour)

	for range 3 {
		coords, err := g.Geocode(context.Background(), "Olematon tie, Jyväskylä")
		require.NoError(t, err)
		assert.Nil(t, coords)
	}
	assert.Equal(t, 1, next.calls)
}

func TestCachedGeocoderDoesNotCacheErrors(t *testing.T) {
	next := &countingGeocoder{err: errors.New("timeout")}
	g := NewCachedGeocoder(next, newMockCache(), time.Hour)

	_, err := g.Geocode(context.Background(), "x")
	assert.Error(t, err)
	_, err = g.Geocode(context.Background(), "x")
	assert.Error(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedGeocoderDegradesOnCacheFailure(t *testing.T) {
	next := &countingGeocoder{result: &menu.Coordinates{Lat: 1, Lon: 2}}
	mc := newMockCache()
	mc.failing = true
	g := NewCachedGeocoder(next, mc, time.Hour)

	coords, err := g.Geocode(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, &menu.Coordinates{Lat: 1, Lon: 2}, coords)
}

func TestCachedGeocoderCorruptEntry(t *testing.T) {
	next := &countingGeocoder{result: &menu.Coordinates{Lat: 1, Lon: 2}}
	mc := newMockCache()
	mc.data[cache.Key("geocode", "x")] = []byte("not json")
	g := NewCachedGeocoder(next, mc, time.Hour)

	coords, err := g.Geocode(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, &menu.Coordinates{Lat: 1, Lon: 2}, coords)
	assert.Equal(t, 1, next.calls)
}

func TestCachedGeocoderWithoutCache(t *testing.T) {
	next := &countingGeocoder{result: &menu.Coordinates{Lat: 1, Lon: 2}}
	g := NewCachedGeocoder(next, nil, time.Hour)

	_, err := g.Geocode(context.Background(), "x")
	require.NoError(t, err)
	_, err = g.Geocode(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}
