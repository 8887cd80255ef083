package intent

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// latinNearMeMarkers trigger the deterministic NEARBY override only on
// word boundaries, so a marker inside a longer token ("closestool",
// "nearbyville") does not count.
var latinNearMeMarkers = []string{
	"near me",
	"nearby",
	"around me",
	"close to me",
	"closest to me",
	"closest",
	"in my area",
	"walking distance",
	"cerca de mí",
	"cerca de mi",
	"près de moi",
	"pres de moi",
	"à proximité",
}

// nearMeMarkers in non-latin scripts. Substring matching stays here:
// Hebrew and Arabic glue prepositions onto the following word, so a
// boundary requirement would reject legitimate forms.
var nearMeMarkers = []string{
	// hebrew
	"לידי",
	"קרוב אלי",
	"בסביבה שלי",
	"באזור שלי",
	"בסביבתי",
	// arabic
	"بالقرب مني",
	"قريب مني",
	// russian
	"рядом со мной",
	"поблизости",
}

// HasNearMeMarker reports whether the query contains a near-me marker.
func HasNearMeMarker(query string) bool {
	q := strings.ToLower(query)
	for _, marker := range latinNearMeMarkers {
		if containsPhrase(q, marker) {
			return true
		}
	}
	for _, marker := range nearMeMarkers {
		if strings.Contains(q, marker) {
			return true
		}
	}
	return false
}

// containsPhrase reports whether phrase occurs in q with non-word runes
// (or string edges) on both sides.
func containsPhrase(q, phrase string) bool {
	for from := 0; from <= len(q)-len(phrase); {
		i := strings.Index(q[from:], phrase)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(phrase)
		before, _ := utf8.DecodeLastRuneInString(q[:start])
		after, _ := utf8.DecodeRuneInString(q[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		from = start + 1
	}
	return false
}

func isWordRune(r rune) bool {
	if r == utf8.RuneError {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
