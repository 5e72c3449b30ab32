package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"sjsage522/makkaratutka/helpers"
	"sjsage522/makkaratutka/internal/menu"
	"sjsage522/makkaratutka/logger"
	apperrors "sjsage522/makkaratutka/pkg/errors"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "makkaratutka/1.0"

	// Nominatim's usage policy allows one request per second
	defaultInterval = time.Second
)

// NominatimClient geocodes addresses with a Nominatim compatible API
type NominatimClient struct {
	BaseURL   string
	UserAgent string

	limiter *rate.Limiter
	log     *logger.Logger
}

var _ menu.Geocoder = (*NominatimClient)(nil)

// NewNominatimClient creates a client. Empty arguments select the public
// OpenStreetMap instance and the default User-Agent.
func NewNominatimClient(baseURL, userAgent string) *NominatimClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &NominatimClient{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: userAgent,
		limiter:   rate.NewLimiter(rate.Every(defaultInterval), 1),
		log:       logger.ForGeocoder(),
	}
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type reverseResult struct {
	Address struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
	} `json:"address"`
}

// Geocode returns the first match for query, or nil when nothing matched
func (c *NominatimClient) Geocode(ctx context.Context, query string) (*menu.Coordinates, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")
	params.Set("accept-language", "fi")

	data, err := c.get(ctx, "/search", params)
	if err != nil {
		return nil, apperrors.NewGeocoding("nominatim", "search "+query, err)
	}

	var results []searchResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, apperrors.NewParsing("nominatim", "decode search response", err)
	}
	if len(results) == 0 {
		c.log.Debug().Str("query", query).Msg("No geocoding match")
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, apperrors.NewParsing("nominatim", "invalid latitude", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, apperrors.NewParsing("nominatim", "invalid longitude", err)
	}

	c.log.Debug().
		Str("query", query).
		Str("match", results[0].DisplayName).
		Float64("lat", lat).
		Float64("lon", lon).
		Msg("Geocoded")
	return &menu.Coordinates{Lat: lat, Lon: lon}, nil
}

// ReverseCity returns the municipality name at point
func (c *NominatimClient) ReverseCity(ctx context.Context, point menu.Coordinates) (string, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(point.Lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(point.Lon, 'f', 6, 64))
	params.Set("format", "jsonv2")
	params.Set("zoom", "10")
	params.Set("accept-language", "fi")

	data, err := c.get(ctx, "/reverse", params)
	if err != nil {
		return "", apperrors.NewGeocoding("nominatim", "reverse lookup", err)
	}

	var result reverseResult
	if err := json.Unmarshal(data, &result); err != nil {
		return "", apperrors.NewParsing("nominatim", "decode reverse response", err)
	}

	for _, name := range []string{
		result.Address.City,
		result.Address.Town,
		result.Address.Village,
		result.Address.Municipality,
	} {
		if name != "" {
			return name, nil
		}
	}
	return "", apperrors.NewGeocoding("nominatim", fmt.Sprintf("no city at %.4f,%.4f", point.Lat, point.Lon), nil)
}

// SetInterval changes the minimum spacing between requests, zero disables it
func (c *NominatimClient) SetInterval(interval time.Duration) {
	if interval <= 0 {
		c.limiter.SetLimit(rate.Inf)
		return
	}
	c.limiter.SetLimit(rate.Every(interval))
}

func (c *NominatimClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return helpers.FetchJSON(ctx, c.BaseURL+path+"?"+params.Encode(), c.UserAgent)
}
