package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasAny(t *testing.T) {
	assert.True(t, HasAny("Light RAIN showers", "rain"))
	assert.True(t, HasAny("晴れ時々くもり", "くもり", "曇"))
	assert.False(t, HasAny("晴れ", "雨", "rain"))
	assert.False(t, HasAny("anything", ""))
}

func TestParseInt(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"12", 12, true},
		{"１２", 12, true},
		{" -3 ", -3, true},
		{"7.6", 8, true},
		{"-2.5", -3, true},
		{"", 0, false},
		{"--", 0, false},
		{"inf", 0, false},
		{"-Inf", 0, false},
		{"NaN", 0, false},
		{"1e30", 0, false},
		{"1e1", 0, false},
		{"0x1p4", 0, false},
		{"99999999999", 0, false},
		{"10001", 0, false},
		{"10000", 10000, true},
	}
	for _, tc := range cases {
		got, ok := ParseInt(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.in)
		}
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "short", Truncate("short", 10))
	// "あ" is three bytes; cutting at 4 must not split the second rune.
	assert.Equal(t, "あ", Truncate("ああ", 4))
}
