package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"sjsage522/makkaratutka/internal/menu"
	"sjsage522/makkaratutka/logger"
	"sjsage522/makkaratutka/services/cache"
)

const cacheNamespace = "geocode"

// cachedPoint is the cached form of a lookup. Found is false for addresses
// the geocoder could not resolve, so misses are not repeated either.
type cachedPoint struct {
	Found bool    `json:"found"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// CachedGeocoder caches the results of another Geocoder
type CachedGeocoder struct {
	next     menu.Geocoder
	cacheSvc cache.CacheService
	ttl      time.Duration
	log      *logger.Logger
}

var _ menu.Geocoder = (*CachedGeocoder)(nil)

// NewCachedGeocoder wraps next. A nil cacheSvc disables caching.
func NewCachedGeocoder(next menu.Geocoder, cacheSvc cache.CacheService, ttl time.Duration) *CachedGeocoder {
	return &CachedGeocoder{
		next:     next,
		cacheSvc: cacheSvc,
		ttl:      ttl,
		log:      logger.ForCache(),
	}
}

// Geocode implements menu.Geocoder
func (g *CachedGeocoder) Geocode(ctx context.Context, query string) (*menu.Coordinates, error) {
	if g.cacheSvc == nil {
		return g.next.Geocode(ctx, query)
	}

	key := cache.Key(cacheNamespace, query)
	if point, ok := g.lookup(key); ok {
		if !point.Found {
			return nil, nil
		}
		return &menu.Coordinates{Lat: point.Lat, Lon: point.Lon}, nil
	}

	coords, err := g.next.Geocode(ctx, query)
	if err != nil {
		// errors are not cached, the next run retries
		return nil, err
	}

	point := cachedPoint{}
	if coords != nil {
		point = cachedPoint{Found: true, Lat: coords.Lat, Lon: coords.Lon}
	}
	g.store(key, point)
	return coords, nil
}

func (g *CachedGeocoder) lookup(key string) (cachedPoint, bool) {
	var point cachedPoint

	data, err := g.cacheSvc.Get(key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			g.log.Warn().Err(err).Str("key", key).Msg("Geocode cache read failed")
		}
		return point, false
	}
	if err := json.Unmarshal(data, &point); err != nil {
		g.log.Warn().Err(err).Str("key", key).Msg("Discarding corrupt geocode cache entry")
		return point, false
	}
	return point, true
}

func (g *CachedGeocoder) store(key string, point cachedPoint) {
	data, err := json.Marshal(point)
	if err != nil {
		return
	}
	if err := g.cacheSvc.Set(key, data, g.ttl); err != nil {
		g.log.Warn().Err(err).Str("key", key).Msg("Geocode cache write failed")
	}
}
