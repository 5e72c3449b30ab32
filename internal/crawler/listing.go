package crawler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/makkaratutka/helpers"
	"sjsage522/makkaratutka/logger"
	"sjsage522/makkaratutka/services/cache"
)

// ListingCrawler fetches the lunch listing of one city
type ListingCrawler struct {
	BaseCrawler
	City         string
	RendererAddr string
	RenderWait   time.Duration
	httpClient   *http.Client
	fetchFunc    func(ctx context.Context, dayHash string) (io.Reader, error)
}

var _ DocumentProvider = (*ListingCrawler)(nil)

// NewListingCrawler creates a crawler for cfg.City
func NewListingCrawler(cfg CrawlerConfig, cacheSvc cache.CacheService) *ListingCrawler {
	log := logger.ForCrawler(cfg.City)

	c := &ListingCrawler{
		BaseCrawler: BaseCrawler{
			URL:       ListingURL(cfg.BaseURL, cfg.City),
			CacheKey:  cfg.CacheKey,
			CacheSvc:  cacheSvc,
			BlockTime: time.Duration(cfg.BlockTime) * time.Second,
			log:       log,
		},
		City:         cfg.City,
		RendererAddr: cfg.RendererAddr,
		RenderWait:   cfg.RenderWait,
		httpClient:   &http.Client{Timeout: 90 * time.Second},
	}

	if c.RendererAddr != "" {
		log.Info().Str("renderer", c.RendererAddr).Msg("Using renderer for listing pages")
		c.fetchFunc = c.fetchRendered
	} else {
		log.Info().Msg("Using static fetch for listing pages")
		c.fetchFunc = c.fetchStatic
	}

	return c
}

// ListingURL returns the listing page of city under baseURL
func ListingURL(baseURL, city string) string {
	return strings.TrimRight(baseURL, "/") + "/" + helpers.CitySlug(city)
}

// GetName returns the crawler name
func (c *ListingCrawler) GetName() string {
	return "ListingCrawler"
}

// AppliesDayFilter reports whether pages are rendered, the only way the
// client side day filter can be applied
func (c *ListingCrawler) AppliesDayFilter() bool {
	return c.RendererAddr != ""
}

// FetchDocument fetches and parses the listing for dayHash
func (c *ListingCrawler) FetchDocument(ctx context.Context, dayHash string) (*goquery.Document, error) {
	body, err := c.fetchFunc(ctx, dayHash)
	if err != nil {
		return nil, err
	}
	return c.createDocument(body)
}

// fetchStatic ignores the day filter, which only exists client side
func (c *ListingCrawler) fetchStatic(ctx context.Context, dayHash string) (io.Reader, error) {
	if dayHash != "" {
		c.log.Debug().Str("day", dayHash).Msg("Static fetch cannot apply day filter, using default view")
	}
	return c.fetchWithCache(ctx)
}
