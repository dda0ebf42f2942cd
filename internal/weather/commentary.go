package weather

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Band is a coarse temperature range used to pick a commentary clause.
type Band string

const (
	BandFreezing Band = "freezing"
	BandCold     Band = "cold"
	BandCool     Band = "cool"
	BandWarm     Band = "warm"
	BandHot      Band = "hot"
)

// bandUpper holds the inclusive upper bound of each band, coldest first.
var bandUpper = []struct {
	upper int
	band  Band
}{
	{5, BandFreezing},
	{12, BandCold},
	{19, BandCool},
	{26, BandWarm},
	{math.MaxInt, BandHot},
}

var temperatureClauses = map[Band]string{
	BandFreezing: "It's freezing out there, so wrap up well before heading out.",
	BandCold:     "It's a cold day, so take a warm coat.",
	BandCool:     "It's pleasantly cool today.",
	BandWarm:     "It's warm and comfortable today.",
	BandHot:      "It's a hot one, so keep drinking water.",
}

var conditionClauses = map[Condition]string{
	ConditionClear:   "Clear skies are expected, a good day to hang the laundry outside.",
	ConditionCloudy:  "Clouds hang around for most of the day.",
	ConditionRain:    "Rain is expected, so don't forget an umbrella.",
	ConditionSnow:    "Snow is on the way, so mind icy roads.",
	ConditionUnknown: "The sky is hard to read today, so check again later.",
}

// BandFor returns the band containing the given temperature.
func BandFor(avg int) Band {
	for _, b := range bandUpper {
		if avg <= b.upper {
			return b.band
		}
	}
	return BandHot
}

// AverageTemp returns the rounded mean of max and min, or whichever one is
// set. ok is false when neither is known.
func AverageTemp(maxTemp, minTemp *int) (int, bool) {
	switch {
	case maxTemp != nil && minTemp != nil:
		return int(math.Round(float64(*maxTemp+*minTemp) / 2)), true
	case maxTemp != nil:
		return *maxTemp, true
	case minTemp != nil:
		return *minTemp, true
	default:
		return 0, false
	}
}

// RuleCommentary builds the deterministic commentary sentence for a snapshot:
// the temperature clause first, then the condition clause.
func RuleCommentary(cond Condition, maxTemp, minTemp *int) string {
	var parts []string
	if avg, ok := AverageTemp(maxTemp, minTemp); ok {
		parts = append(parts, temperatureClauses[BandFor(avg)])
	}
	clause, ok := conditionClauses[cond]
	if !ok {
		clause = conditionClauses[ConditionUnknown]
	}
	parts = append(parts, clause)
	return strings.Join(parts, " ")
}

// CommentaryPrompt is the request sent to the AI commentary relay.
func CommentaryPrompt(s WeatherSnapshot) string {
	temps := "unknown"
	switch {
	case s.MaxTemp != nil && s.MinTemp != nil:
		temps = fmt.Sprintf("high %d°C, low %d°C", *s.MaxTemp, *s.MinTemp)
	case s.MaxTemp != nil:
		temps = fmt.Sprintf("high %d°C", *s.MaxTemp)
	case s.MinTemp != nil:
		temps = fmt.Sprintf("low %d°C", *s.MinTemp)
	}
	return fmt.Sprintf(
		"Write one friendly sentence for a family home display about today's weather in %s, %s. Condition: %s. Temperatures: %s. End the sentence with punctuation.",
		s.Location.City, s.Location.Prefecture, s.Condition, temps,
	)
}

// MinAICommentaryRunes is the shortest visible AI sentence worth showing.
const MinAICommentaryRunes = 15

var terminalPunctuation = []string{".", "!", "?", "。", "！", "？"}

// AcceptAICommentary strips the relay label from raw and reports whether the
// remaining text is long enough and contains terminal punctuation.
func AcceptAICommentary(raw, label string) (string, bool) {
	visible := strings.TrimSpace(raw)
	if label != "" {
		visible = strings.TrimSpace(strings.TrimPrefix(visible, strings.TrimSpace(label)))
	}
	if utf8.RuneCountInString(visible) < MinAICommentaryRunes {
		return "", false
	}
	for _, p := range terminalPunctuation {
		if strings.Contains(visible, p) {
			return visible, true
		}
	}
	return "", false
}
