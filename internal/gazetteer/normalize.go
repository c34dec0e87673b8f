package gazetteer

import (
	"strings"
	"unicode"
)

// corporateSuffixes are trailing words dropped from company names so that
// "Apple Inc." and "Apple" share a key.
var corporateSuffixes = map[string]struct{}{
	"inc":          {},
	"incorporated": {},
	"corp":         {},
	"corporation":  {},
	"co":           {},
	"company":      {},
	"ltd":          {},
	"limited":      {},
	"plc":          {},
	"holdings":     {},
	"holding":      {},
	"group":        {},
	"sa":           {},
	"nv":           {},
	"ag":           {},
	"se":           {},
	"&":            {},
	"and":          {},
}

// displayAliases override the title-cased form searched for in article
// text. Keys are normalized names.
var displayAliases = map[string]string{
	"advanced micro devices": "AMD",
	"jpmorgan chase":         "JPMorgan Chase",
	"paypal":                 "PayPal",
	"exxon mobil":            "Exxon Mobil",
	"blackrock":              "BlackRock",
	"at&t":                   "AT&T",
	"mcdonald's":             "McDonald",
}

// extraTickers lists tickers a company key always contributes in addition
// to its gazetteer value. "meta" is an ordinary English word, so a match on
// it is only trusted to mean the company.
var extraTickers = map[string][]string{
	"meta": {"META"},
}

// NormalizeName lowercases a company name, removes punctuation that varies
// between sources and strips trailing corporate suffixes.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.NewReplacer(",", " ", ".", "", "(", " ", ")", " ").Replace(name)

	words := strings.Fields(name)
	words = trimLeading(words, "the")
	for len(words) > 1 {
		if _, ok := corporateSuffixes[words[len(words)-1]]; !ok {
			break
		}
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func trimLeading(words []string, w string) []string {
	if len(words) > 1 && words[0] == w {
		return words[1:]
	}
	return words
}

// DisplayName returns the form of a normalized key as it is expected to
// appear in running text.
func DisplayName(key string) string {
	if alias, ok := displayAliases[key]; ok {
		return alias
	}
	return TitleCase(key)
}

// ExtraTickers returns tickers contributed by key beyond its gazetteer
// value.
func ExtraTickers(key string) []string {
	return extraTickers[key]
}

// TitleCase upper-cases every letter that follows a non-letter and
// lower-cases the rest: "at&t" becomes "At&T", "3m" becomes "3M".
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
