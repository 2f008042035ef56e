package x12

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// strayTerminators are stripped from element values; exports sometimes leave
// a tilde behind even after segment splitting.
const strayTerminators = "~"

// FormatDate converts an X12 CCYYMMDD date to YYYY-MM-DD. Anything that is
// not exactly eight characters long is returned unchanged.
func FormatDate(s string) string {
	if utf8.RuneCountInString(s) != 8 {
		return s
	}
	r := []rune(s)
	return string(r[0:4]) + "-" + string(r[4:6]) + "-" + string(r[6:8])
}

// FormatTime converts an X12 HHMM[SS[D..]] time to HH:MM. Inputs shorter
// than four characters are returned unchanged.
func FormatTime(s string) string {
	if utf8.RuneCountInString(s) < 4 {
		return s
	}
	r := []rune(s)
	return string(r[0:2]) + ":" + string(r[2:4])
}

// CleanValue trims whitespace and removes stray terminator characters.
func CleanValue(s string) string {
	if s == "" {
		return ""
	}
	for _, t := range strayTerminators {
		s = strings.ReplaceAll(s, string(t), "")
	}
	return strings.TrimSpace(s)
}

// CleanCode strips a qualifier prefix such as "ABK:" from a composite code,
// returning the part after the last colon.
func CleanCode(s string) string {
	s = CleanValue(s)
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// SafeInt parses s as an integer. Empty, unparsable and zero values yield
// def.
func SafeInt(s string, def int) int {
	s = CleanValue(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n == 0 {
		return def
	}
	return n
}

// SafeFloat parses s as a decimal number, returning def for empty or
// unparsable input. NaN and infinities are rejected so results always
// encode as JSON.
func SafeFloat(s string, def float64) float64 {
	s = CleanValue(s)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}
