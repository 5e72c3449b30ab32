package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "sjsage522/makkaratutka/pkg/errors"
)

// renderScript runs inside the rendered page. It selects the day filter link
// for the requested hash and expands the listing by pressing "show more"
// twice while scrolling, which is how the site reveals all restaurants.
const renderScript = `(async () => {
  const sleep = (ms) => new Promise((r) => setTimeout(r, ms));
  const hash = %q;
  if (hash) {
    for (const link of document.querySelectorAll('.dayview-filter a')) {
      if (link.href.includes('#' + hash)) { link.click(); break; }
    }
    await sleep(2000);
  }
  for (let i = 0; i < 2; i++) {
    window.scrollTo(0, document.body.scrollHeight);
    await sleep(1500);
    const btn = document.querySelector('.button.showmore');
    if (btn) { btn.click(); }
    await sleep(2500);
  }
  window.scrollTo(0, document.body.scrollHeight);
})();`

// RenderStrategy represents one way of asking the renderer for content
type RenderStrategy struct {
	Name      string
	WaitUntil string
	Timeout   time.Duration
}

// renderStrategies are tried in order until one returns HTML
var renderStrategies = []RenderStrategy{
	// Network idle is best for the script-driven listing
	{Name: "networkidle-content", WaitUntil: "networkidle0", Timeout: 45 * time.Second},
	// Plain load is faster and still useful when the network never idles
	{Name: "basic-content", WaitUntil: "load", Timeout: 20 * time.Second},
}

// fetchRendered asks the renderer service for the listing after running the
// day filter and "show more" interactions.
func (c *ListingCrawler) fetchRendered(ctx context.Context, dayHash string) (io.Reader, error) {
	if c.isBlocked() {
		return nil, apperrors.NewRateLimit(c.CacheKey, c.BlockTime)
	}

	var lastErr error
	for i, strategy := range renderStrategies {
		c.log.Debug().
			Str("strategy", strategy.Name).
			Str("day", dayHash).
			Msgf("Trying render strategy %d/%d", i+1, len(renderStrategies))

		reader, err := c.executeStrategy(ctx, strategy, dayHash)
		if err == nil {
			c.log.Debug().Str("strategy", strategy.Name).Msg("Render strategy succeeded")
			return reader, nil
		}
		if apperrors.IsRateLimit(err) {
			return nil, err
		}
		lastErr = err

		c.log.Debug().Err(err).Str("strategy", strategy.Name).Msg("Render strategy failed")
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, apperrors.NewNetwork("renderer", "all render strategies failed for "+c.URL, lastErr)
}

// executeStrategy executes a single render request
func (c *ListingCrawler) executeStrategy(ctx context.Context, strategy RenderStrategy, dayHash string) (io.Reader, error) {
	payload := map[string]interface{}{
		"url": c.URL,
		"gotoOptions": map[string]interface{}{
			"waitUntil": strategy.WaitUntil,
			"timeout":   strategy.Timeout.Milliseconds(),
		},
		"addScriptTag": []map[string]string{
			{"content": fmt.Sprintf(renderScript, dayHash)},
		},
		"waitForTimeout": c.RenderWait.Milliseconds(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.RendererAddr, "/")+"/content", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "makkaratutka/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.block()
		return nil, apperrors.NewRateLimit(c.CacheKey, c.BlockTime)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return processRawResponse(body)
}

// processRawResponse checks that the renderer returned an HTML page
func processRawResponse(data []byte) (io.Reader, error) {
	if len(data) < 50 {
		return nil, fmt.Errorf("response too short: %d bytes", len(data))
	}

	lower := strings.ToLower(string(data))
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<body") {
		return bytes.NewReader(data), nil
	}

	return nil, fmt.Errorf("response doesn't appear to be valid HTML")
}
