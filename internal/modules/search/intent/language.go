package intent

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// normalizeLanguageTag canonicalizes a model-reported tag. Junk becomes
// the empty string rather than an error; language is a hint, not a gate.
func normalizeLanguageTag(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return ""
	}
	return tag.String()
}

// normalizeRegion validates and upper-cases a two-letter region code.
func normalizeRegion(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	region, err := language.ParseRegion(raw)
	if err != nil {
		return ""
	}
	return region.String()
}

// detectScriptLanguage guesses the query language from its dominant
// script. Latin text yields "" because script alone cannot separate
// latin-written languages.
func detectScriptLanguage(query string) string {
	counts := make(map[string]int)
	for _, r := range query {
		switch {
		case unicode.Is(unicode.Hebrew, r):
			counts["he"]++
		case unicode.Is(unicode.Arabic, r):
			counts["ar"]++
		case unicode.Is(unicode.Cyrillic, r):
			counts["ru"]++
		case unicode.Is(unicode.Greek, r):
			counts["el"]++
		case unicode.Is(unicode.Han, r):
			counts["zh"]++
		case unicode.Is(unicode.Hangul, r):
			counts["ko"]++
		case unicode.Is(unicode.Hiragana, r), unicode.Is(unicode.Katakana, r):
			counts["ja"]++
		case unicode.Is(unicode.Thai, r):
			counts["th"]++
		}
	}

	best, bestCount := "", 0
	for lang, n := range counts {
		if n > bestCount {
			best, bestCount = lang, n
		}
	}
	return best
}

// localLanguageRegions maps a language to the regions where it is the
// local language. A query written in the region's own language keeps its
// original category text for provider locality.
var localLanguageRegions = map[string][]string{
	"he": {"IL"},
	"ar": {"IL", "JO", "EG", "SA", "AE", "QA", "KW", "LB", "MA"},
	"ru": {"RU", "BY", "KZ"},
	"el": {"GR", "CY"},
	"tr": {"TR"},
	"th": {"TH"},
	"ko": {"KR"},
	"ja": {"JP"},
	"zh": {"CN", "TW", "HK", "SG"},
}

func languageMatchesRegion(lang, region string) bool {
	if lang == "" || region == "" {
		return false
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return false
	}
	base, _ := tag.Base()
	for _, r := range localLanguageRegions[base.String()] {
		if r == region {
			return true
		}
	}
	return false
}
