package crawler

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DocumentProvider produces parsed listing pages for the analyzer
type DocumentProvider interface {
	// FetchDocument returns the listing filtered to the day identified by
	// dayHash. An empty dayHash returns the default (today's) view.
	FetchDocument(ctx context.Context, dayHash string) (*goquery.Document, error)

	// AppliesDayFilter reports whether dayHash actually selects a day. When
	// false every hash yields the same default view.
	AppliesDayFilter() bool

	// GetName returns the provider's name for logging and identification
	GetName() string
}

// CrawlerConfig contains configuration for the listing crawler
type CrawlerConfig struct {
	// BaseURL is the listing site root, e.g. https://www.lounaat.info
	BaseURL string
	// City is the human readable city name; it is turned into a path slug
	City string
	// CacheKey marks the crawler as rate limited while present in the cache
	CacheKey string
	// BlockTime is how long, in seconds, to back off after a rate limit
	BlockTime int
	// RendererAddr is the headless browser service (browserless /content
	// API). Without it pages are fetched statically and the day filter and
	// "show more" interactions cannot be applied.
	RendererAddr string
	// RenderWait is how long the renderer waits for the injected script
	RenderWait time.Duration
}
