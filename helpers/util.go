package helpers

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CitySlug turns a city name into the path segment used by the listing site:
// lower case, diacritics folded, spaces replaced with dashes.
// "Jyväskylä" becomes "jyvaskyla".
func CitySlug(city string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, strings.TrimSpace(city))
	if err != nil {
		folded = city
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), "-")
}

// SplitList splits a comma separated configuration value, dropping blanks
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
