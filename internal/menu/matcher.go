package menu

import "strings"

// DishKeywords are the inflected forms of the dish names searched for
var DishKeywords = []string{"uunimakkara", "uunimakkaraa", "uunimakkarat", "uunilenkki", "uunilenkkiä"}

// WeekdayTokens are the weekday abbreviations that start a day section in
// a menu text. The trailing space keeps "ma " from matching "makkara".
var WeekdayTokens = []string{"ma ", "ti ", "ke ", "to ", "pe ", "la ", "su "}

// TokenMatch is an occurrence of a weekday token
type TokenMatch struct {
	Token string
	Index int
}

// ContainsDishKeyword reports whether the lower-cased text mentions the dish.
// Plain substring containment is used so that other inflections match too.
func ContainsDishKeyword(text string) bool {
	for _, word := range DishKeywords {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

// FindWeekdayTokens returns every occurrence of every weekday token. Matches
// are grouped by token in WeekdayTokens order, not sorted by position.
func FindWeekdayTokens(text string) []TokenMatch {
	var matches []TokenMatch
	for _, token := range WeekdayTokens {
		offset := 0
		for {
			i := strings.Index(text[offset:], token)
			if i < 0 {
				break
			}
			matches = append(matches, TokenMatch{Token: token, Index: offset + i})
			offset += i + 1
		}
	}
	return matches
}

// NextWeekdayBoundary returns the smallest index >= from at which any weekday
// token starts, or len(text) when there is none.
func NextWeekdayBoundary(text string, from int) int {
	next := len(text)
	if from >= len(text) {
		return next
	}
	for _, token := range WeekdayTokens {
		if i := strings.Index(text[from:], token); i >= 0 && from+i < next {
			next = from + i
		}
	}
	return next
}
