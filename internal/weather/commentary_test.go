package weather

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBandFor(t *testing.T) {
	assert.Equal(t, BandFreezing, BandFor(-4))
	assert.Equal(t, BandFreezing, BandFor(5))
	assert.Equal(t, BandCold, BandFor(8))
	assert.Equal(t, BandCool, BandFor(13))
	assert.Equal(t, BandWarm, BandFor(26))
	assert.Equal(t, BandHot, BandFor(35))
}

func TestAverageTemp(t *testing.T) {
	avg, ok := AverageTemp(Int(12), Int(5))
	assert.True(t, ok)
	assert.Equal(t, 9, avg) // 8.5 rounds half away from zero

	avg, ok = AverageTemp(nil, Int(3))
	assert.True(t, ok)
	assert.Equal(t, 3, avg)

	_, ok = AverageTemp(nil, nil)
	assert.False(t, ok)
}

func TestRuleCommentaryColdRain(t *testing.T) {
	got := RuleCommentary(ConditionRain, Int(10), Int(6))

	cold := temperatureClauses[BandCold]
	rain := conditionClauses[ConditionRain]
	assert.Contains(t, got, cold)
	assert.Contains(t, got, rain)
	assert.Less(t, strings.Index(got, cold), strings.Index(got, rain))
}

func TestRuleCommentaryWithoutTemperatures(t *testing.T) {
	got := RuleCommentary(ConditionClear, nil, nil)
	assert.Equal(t, conditionClauses[ConditionClear], got)
}

func TestAcceptAICommentary(t *testing.T) {
	const label = "[AI] "

	text, ok := AcceptAICommentary("[AI] Expect a crisp, sunny afternoon in Niigata.", label)
	assert.True(t, ok)
	assert.Equal(t, "Expect a crisp, sunny afternoon in Niigata.", text)

	_, ok = AcceptAICommentary("[AI] Sunny.", label)
	assert.False(t, ok, "too short once the label is stripped")

	_, ok = AcceptAICommentary("[AI] A long sentence without any ending", label)
	assert.False(t, ok, "no terminal punctuation")

	text, ok = AcceptAICommentary("今日は晴れて洗濯日和になりそうです。", "")
	assert.True(t, ok)
	assert.Equal(t, "今日は晴れて洗濯日和になりそうです。", text)
}
