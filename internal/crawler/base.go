package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/makkaratutka/helpers"
	"sjsage522/makkaratutka/logger"
	apperrors "sjsage522/makkaratutka/pkg/errors"
	"sjsage522/makkaratutka/services/cache"
)

// BaseCrawler provides fetching with cache-backed rate limiting
type BaseCrawler struct {
	URL       string
	CacheKey  string
	CacheSvc  cache.CacheService
	BlockTime time.Duration
	log       *logger.Logger
}

// isBlocked reports whether a previous rate limit is still in effect
func (c *BaseCrawler) isBlocked() bool {
	if c.CacheSvc == nil || c.CacheKey == "" {
		return false
	}
	_, err := c.CacheSvc.Get(c.CacheKey)
	return err == nil
}

// block remembers a rate limit for BlockTime
func (c *BaseCrawler) block() {
	if c.CacheSvc == nil || c.CacheKey == "" {
		return
	}
	value := []byte(fmt.Sprintf("%d", int(c.BlockTime/time.Second)))
	if err := c.CacheSvc.Set(c.CacheKey, value, c.BlockTime); err != nil {
		c.log.Warn().Err(err).Str("cache_key", c.CacheKey).Msg("Failed to store rate limit marker")
	}
}

// fetchWithCache fetches URL statically unless the crawler is rate limited
func (c *BaseCrawler) fetchWithCache(ctx context.Context) (io.Reader, error) {
	if c.isBlocked() {
		return nil, apperrors.NewRateLimit(c.CacheKey, c.BlockTime)
	}

	body, err := helpers.FetchWithRandomHeaders(ctx, c.URL)
	if err != nil {
		var rateLimited *helpers.RateLimitedError
		if errors.As(err, &rateLimited) {
			c.block()
			return nil, apperrors.NewRateLimit(c.CacheKey, c.BlockTime)
		}
		return nil, apperrors.NewNetwork("crawler", "fetch "+c.URL, err)
	}

	return body, nil
}

// createDocument parses reader into a document whose Url is the page URL,
// so that relative restaurant links can be resolved.
func (c *BaseCrawler) createDocument(reader io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, apperrors.NewParsing("crawler", "HTML parse error", err)
	}
	if u, err := url.Parse(c.URL); err == nil {
		doc.Url = u
	}
	return doc, nil
}
