package places

import (
	"strings"
	"unicode"
)

// foodTypeTable maps keyword wording onto the provider's place-type
// taxonomy. Nearby searches accept types, not free text, so the
// category keyword has to be translated; first match wins.
var foodTypeTable = []struct {
	token string
	types []string
}{
	{"pizza", []string{"pizza_restaurant"}},
	{"פיצה", []string{"pizza_restaurant"}},
	{"sushi", []string{"sushi_restaurant", "japanese_restaurant"}},
	{"סושי", []string{"sushi_restaurant", "japanese_restaurant"}},
	{"hamburger", []string{"hamburger_restaurant"}},
	{"burger", []string{"hamburger_restaurant"}},
	{"המבורגר", []string{"hamburger_restaurant"}},
	{"coffee", []string{"cafe", "coffee_shop"}},
	{"cafe", []string{"cafe", "coffee_shop"}},
	{"קפה", []string{"cafe", "coffee_shop"}},
	{"bakery", []string{"bakery"}},
	{"מאפייה", []string{"bakery"}},
	{"bar", []string{"bar"}},
	{"pub", []string{"bar"}},
	{"ramen", []string{"ramen_restaurant"}},
	{"ראמן", []string{"ramen_restaurant"}},
	{"falafel", []string{"middle_eastern_restaurant"}},
	{"פלאפל", []string{"middle_eastern_restaurant"}},
	{"hummus", []string{"middle_eastern_restaurant"}},
	{"חומוס", []string{"middle_eastern_restaurant"}},
	{"shawarma", []string{"middle_eastern_restaurant"}},
	{"שווארמה", []string{"middle_eastern_restaurant"}},
	{"vegan", []string{"vegan_restaurant"}},
	{"טבעוני", []string{"vegan_restaurant"}},
	{"vegetarian", []string{"vegetarian_restaurant"}},
	{"צמחוני", []string{"vegetarian_restaurant"}},
	{"seafood", []string{"seafood_restaurant"}},
	{"fish", []string{"seafood_restaurant"}},
	{"דגים", []string{"seafood_restaurant"}},
	{"steak", []string{"steak_house"}},
	{"סטייק", []string{"steak_house"}},
	{"ice cream", []string{"ice_cream_shop"}},
	{"גלידה", []string{"ice_cream_shop"}},
	{"chinese", []string{"chinese_restaurant"}},
	{"סיני", []string{"chinese_restaurant"}},
	{"italian", []string{"italian_restaurant"}},
	{"איטלקי", []string{"italian_restaurant"}},
	{"thai", []string{"thai_restaurant"}},
	{"תאילנדי", []string{"thai_restaurant"}},
	{"indian", []string{"indian_restaurant"}},
	{"הודי", []string{"indian_restaurant"}},
	{"mexican", []string{"mexican_restaurant"}},
	{"מקסיקני", []string{"mexican_restaurant"}},
	{"japanese", []string{"japanese_restaurant"}},
	{"יפני", []string{"japanese_restaurant"}},
	{"korean", []string{"korean_restaurant"}},
	{"קוריאני", []string{"korean_restaurant"}},
}

// keywordTypes resolves a category keyword to provider place types,
// defaulting to the generic restaurant type.
func keywordTypes(keyword string) []string {
	k := strings.ToLower(strings.TrimSpace(keyword))
	if k == "" {
		return []string{"restaurant"}
	}
	for _, row := range foodTypeTable {
		if containsToken(k, row.token) {
			return row.types
		}
	}
	return []string{"restaurant"}
}

// containsToken matches whole words, with a prefix allowance on longer
// tokens so plural forms still hit. "bar" matching inside "barbecue"
// is the case this guards against.
func containsToken(keyword, token string) bool {
	if strings.Contains(token, " ") {
		return strings.Contains(keyword, token)
	}
	fields := strings.FieldsFunc(keyword, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, f := range fields {
		if f == token {
			return true
		}
		if len(token) >= 4 && strings.HasPrefix(f, token) {
			return true
		}
	}
	return false
}
