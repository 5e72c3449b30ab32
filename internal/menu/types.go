package menu

import (
	"fmt"
	"time"
)

// Mode selects how a listing document is analyzed
type Mode string

const (
	// ModeToday keeps only entries that appear to serve the dish today
	ModeToday Mode = "today"
	// ModeWeekDay keeps every matching entry of a day-filtered listing
	ModeWeekDay Mode = "week"
)

// ParseMode converts a configuration value into a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeToday:
		return ModeToday, nil
	case ModeWeekDay:
		return ModeWeekDay, nil
	}
	return "", fmt.Errorf("unknown search mode %q", s)
}

// Coordinates is a WGS84 point
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MenuCandidate is one listing entry found in a document
type MenuCandidate struct {
	RestaurantName string
	RestaurantLink string
	AddressText    string
	// RawText is the lower-cased, whitespace-collapsed text of the entry
	RawText string
}

// SausageResult is a restaurant serving the dish
type SausageResult struct {
	Restaurant     string   `json:"restaurant"`
	Link           string   `json:"link"`
	AdditionalInfo string   `json:"additional_info"`
	DistanceKm     *float64 `json:"distance_km,omitempty"`
}

// HasDistance reports whether the distance could be resolved
func (r SausageResult) HasDistance() bool {
	return r.DistanceKm != nil
}

// Describe renders the result as a single list entry
func (r SausageResult) Describe(mode Mode) string {
	distance := "Etäisyys tuntematon"
	if r.DistanceKm != nil {
		distance = fmt.Sprintf("%.1f km", *r.DistanceKm)
	}
	if mode == ModeToday {
		return fmt.Sprintf("%s\nMatka: %s", r.Restaurant, distance)
	}
	return fmt.Sprintf("%s: %s (%s)", r.AdditionalInfo, r.Restaurant, distance)
}

// AnalysisContext carries the caller supplied inputs of one analysis
type AnalysisContext struct {
	Mode Mode
	// TodayLabel is the localized, lower-cased weekday name, e.g. "maanantai"
	TodayLabel string
	// UserLocation is nil when the user's position is unknown
	UserLocation      *Coordinates
	CityLabel         string
	MaxSearchRadiusKm float64
}

// Clock supplies the current time
type Clock func() time.Time
