package menu

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/makkaratutka/logger"
	apperrors "sjsage522/makkaratutka/pkg/errors"
)

// Labels attached to results
const (
	LabelPossiblyToday = "Mahdollisesti tänään"
	LabelThisWeek      = "Tällä viikolla"
)

// Analyzer turns a listing document into ranked results
type Analyzer struct {
	geocoder Geocoder
	log      *logger.Logger
}

// NewAnalyzer creates an analyzer resolving distances with geocoder. A nil
// geocoder leaves every distance unknown.
func NewAnalyzer(geocoder Geocoder) *Analyzer {
	return &Analyzer{
		geocoder: geocoder,
		log:      logger.ForAnalyzer(),
	}
}

// Analyze returns the restaurants of doc serving the dish, nearest first
// with unknown distances last. An empty slice means nothing matched; an
// error is only returned for an unusable document or an unknown mode.
func (a *Analyzer) Analyze(ctx context.Context, doc *goquery.Document, actx AnalysisContext) ([]SausageResult, error) {
	if doc == nil || doc.Selection == nil || len(doc.Nodes) == 0 {
		return nil, apperrors.NewContract("analyzer", "document is nil or has no root node")
	}
	if actx.Mode != ModeToday && actx.Mode != ModeWeekDay {
		return nil, apperrors.NewContract("analyzer", fmt.Sprintf("unknown analysis mode %q", actx.Mode))
	}

	var pageWeekday string
	var hasPageWeekday bool
	if actx.Mode == ModeToday {
		pageWeekday, hasPageWeekday = ResolvePageWeekday(
			BlockText(doc.Find("title").First()),
			BlockText(doc.Find("h1")),
			BlockText(doc.Find("h2")),
		)
	}

	dayInfo := LabelThisWeek
	if actx.Mode == ModeWeekDay {
		dayInfo = DayInfo(doc)
	}

	results := []SausageResult{}
	for candidate := range ExtractCandidates(doc) {
		result, ok := a.analyzeCandidate(ctx, candidate, actx, pageWeekday, hasPageWeekday, dayInfo)
		if ok {
			results = append(results, result)
		}
	}

	SortByDistance(results)

	a.log.Debug().
		Str("mode", string(actx.Mode)).
		Int("results", len(results)).
		Msg("Document analyzed")

	return results, nil
}

// analyzeCandidate applies the filters to one entry. Panics are contained so
// that a single malformed entry cannot abort the document.
func (a *Analyzer) analyzeCandidate(ctx context.Context, c MenuCandidate, actx AnalysisContext, pageWeekday string, hasPageWeekday bool, dayInfo string) (result SausageResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Warn().
				Str("restaurant", c.RestaurantName).
				Str("panic", fmt.Sprint(r)).
				Msg("Skipping candidate")
			result, ok = SausageResult{}, false
		}
	}()

	if !ContainsDishKeyword(c.RawText) {
		return SausageResult{}, false
	}

	var distance *float64
	if d, resolved := ResolveDistanceKm(ctx, c.AddressText, c.RestaurantName, actx.CityLabel, actx.UserLocation, a.geocoder); resolved {
		if d > actx.MaxSearchRadiusKm {
			a.log.Debug().
				Str("restaurant", c.RestaurantName).
				Float64("distance_km", d).
				Msg("Outside search radius")
			return SausageResult{}, false
		}
		distance = &d
	}

	switch actx.Mode {
	case ModeToday:
		if !IsDishOnDay(c.RawText, actx.TodayLabel, pageWeekday, hasPageWeekday) {
			return SausageResult{}, false
		}
		return SausageResult{
			Restaurant:     c.RestaurantName,
			Link:           c.RestaurantLink,
			AdditionalInfo: LabelPossiblyToday,
			DistanceKm:     distance,
		}, true
	case ModeWeekDay:
		return SausageResult{
			Restaurant:     c.RestaurantName,
			Link:           c.RestaurantLink,
			AdditionalInfo: dayInfo,
			DistanceKm:     distance,
		}, true
	}
	return SausageResult{}, false
}

// DayInfo returns the day label shown by the listing's day filter
func DayInfo(doc *goquery.Document) string {
	if text := strings.TrimSpace(doc.Find(DayTextSelector).Text()); text != "" {
		return text
	}
	return LabelThisWeek
}

// SortByDistance orders results nearest first, unknown distances last,
// keeping the original order between equal distances.
func SortByDistance(results []SausageResult) {
	slices.SortStableFunc(results, func(a, b SausageResult) int {
		switch {
		case a.DistanceKm == nil && b.DistanceKm == nil:
			return 0
		case a.DistanceKm == nil:
			return 1
		case b.DistanceKm == nil:
			return -1
		case *a.DistanceKm < *b.DistanceKm:
			return -1
		case *a.DistanceKm > *b.DistanceKm:
			return 1
		}
		return 0
	})
}
