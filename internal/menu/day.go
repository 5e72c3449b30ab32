package menu

import (
	"strings"
	"time"
)

// weekdayNames holds lower-case weekday names per locale, indexed by time.Weekday
var weekdayNames = map[string][7]string{
	"fi": {"sunnuntai", "maanantai", "tiistai", "keskiviikko", "torstai", "perjantai", "lauantai"},
	"en": {"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"},
}

// weekdayAbbreviations maps a full weekday name to the token used in menu texts
var weekdayAbbreviations = map[string]string{
	"maanantai":   "ma ",
	"tiistai":     "ti ",
	"keskiviikko": "ke ",
	"torstai":     "to ",
	"perjantai":   "pe ",
	"lauantai":    "la ",
	"sunnuntai":   "su ",
}

// ResolveTodayLabel returns the lower-cased weekday name of now in the given
// locale. Unknown locales yield an empty label.
func ResolveTodayLabel(locale string, now Clock) string {
	names, ok := weekdayNames[strings.ToLower(locale)]
	if !ok {
		return ""
	}
	if now == nil {
		now = time.Now
	}
	return names[now().Weekday()]
}

// WeekdayAbbreviation returns the menu token of a Finnish weekday name
func WeekdayAbbreviation(label string) (string, bool) {
	abbr, ok := weekdayAbbreviations[strings.ToLower(label)]
	return abbr, ok
}

// ResolvePageWeekday finds the day a listing page refers to from its title
// and headings. The first token of WeekdayTokens contained in the text wins.
func ResolvePageWeekday(titleText, h1Text, h2Text string) (string, bool) {
	text := strings.ToLower(strings.Join([]string{titleText, h1Text, h2Text}, " "))
	for _, token := range WeekdayTokens {
		if strings.Contains(text, token) {
			return token, true
		}
	}
	return "", false
}

// IsDishOnDay decides whether an entry serves the dish on todayLabel.
//
// A page that is itself filtered to today counts any mention of the dish.
// An entry whose text never names today is treated as a single-day menu and
// accepted. Otherwise only the section from today's name up to the next
// weekday token is searched.
func IsDishOnDay(entryText, todayLabel, pageWeekday string, hasPageWeekday bool) bool {
	if hasPageWeekday {
		if abbr, ok := WeekdayAbbreviation(todayLabel); ok && abbr == pageWeekday && ContainsDishKeyword(entryText) {
			return true
		}
	}

	todayIndex := strings.Index(entryText, todayLabel)
	if todayIndex < 0 {
		return true
	}

	nextDayIndex := NextWeekdayBoundary(entryText, todayIndex+1)
	return ContainsDishKeyword(entryText[todayIndex:nextDayIndex])
}
