package common

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var folder = cases.Fold()

// Normalize folds full-width forms, applies NFKC and case-folds s so that
// provider text can be compared regardless of script width or case.
func Normalize(s string) string {
	s = width.Narrow.String(s)
	s = norm.NFKC.String(s)
	return strings.TrimSpace(folder.String(s))
}

// HasAny returns true if s contains any of the substrings after normalization.
func HasAny(s string, subs ...string) bool {
	s = Normalize(s)
	for _, sub := range subs {
		if sub == "" {
			continue
		}
		if strings.Contains(s, Normalize(sub)) {
			return true
		}
	}
	return false
}

// maxMagnitude bounds the values ParseInt accepts. Provider readings are
// temperatures, percentages and weather codes, all well inside it.
const maxMagnitude = 10000

// ParseInt parses an integer that may be written with full-width digits or a
// trailing decimal part ("12", "１２", "12.0"). ok is false for anything else,
// including non-finite or exponent forms and values beyond maxMagnitude.
func ParseInt(s string) (int, bool) {
	s = Normalize(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n > maxMagnitude || n < -maxMagnitude {
			return 0, false
		}
		return n, true
	}
	if strings.ContainsAny(s, "enxp") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || math.Abs(f) > maxMagnitude {
		return 0, false
	}
	if f < 0 {
		return int(f - 0.5), true
	}
	return int(f + 0.5), true
}

// Truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
