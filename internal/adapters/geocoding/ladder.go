package geocoding

import (
	"strings"
	"unicode"
)

// step names one rung of the degrading-specificity ladder.
type step string

const (
	stepFull          step = "full-address"
	stepCity          step = "city"
	stepFirstTwoWords step = "first-two-words"
	stepFirstWord     step = "first-word"
	stepFallback      step = "fallback"
)

type attempt struct {
	step           step
	query          string
	limit          int
	addressDetails bool
}

// buildLadder returns the ordered queries tried for one address.
// Rungs whose search term would be empty are omitted.
func buildLadder(address, qualifier string) []attempt {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil
	}

	ladder := []attempt{{
		step:           stepFull,
		query:          qualify(address, qualifier),
		limit:          3,
		addressDetails: true,
	}}

	if city := extractCity(address); city != "" {
		ladder = append(ladder, attempt{step: stepCity, query: withQualifier(city, qualifier), limit: 1})
	}

	words := strings.Fields(address)
	if len(words) >= 2 {
		ladder = append(ladder, attempt{
			step:  stepFirstTwoWords,
			query: withQualifier(strings.Join(words[:2], " "), qualifier),
			limit: 1,
		})
	}
	if len(words) >= 1 {
		ladder = append(ladder, attempt{step: stepFirstWord, query: withQualifier(words[0], qualifier), limit: 1})
	}

	return ladder
}

// extractCity takes the last comma segment, or failing that the last word
// stripped of house numbers and punctuation.
func extractCity(address string) string {
	if strings.Contains(address, ",") {
		segments := strings.Split(address, ",")
		return strings.TrimSpace(segments[len(segments)-1])
	}

	words := strings.Fields(address)
	if len(words) == 0 {
		return ""
	}
	return strings.TrimFunc(words[len(words)-1], func(r rune) bool {
		return unicode.IsDigit(r) || unicode.IsPunct(r)
	})
}

// qualify appends the country only when the address does not mention it already.
func qualify(address, qualifier string) string {
	if qualifier == "" || strings.Contains(strings.ToLower(address), strings.ToLower(qualifier)) {
		return address
	}
	return address + ", " + qualifier
}

func withQualifier(term, qualifier string) string {
	if qualifier == "" {
		return term
	}
	return term + ", " + qualifier
}
