package utils

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// MillisecondThreshold splits numeric cursors into seconds and milliseconds.
// Values above it are read as milliseconds. Seconds beyond year 33658 or milliseconds
// before 2001-09-09 are therefore misread; no real cursor falls in either range.
const MillisecondThreshold = 1e12

var ErrInvalidTimestamp = errors.New("invalid timestamp: expected ISO-8601 (e.g. 2023-11-14T00:00:00Z) or a Unix timestamp in seconds or milliseconds")

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp turns a client cursor into an instant.
// The raw value is URL-decoded first. Numeric strings are Unix seconds, or Unix
// milliseconds above MillisecondThreshold, and must be positive. Anything else is
// parsed as ISO-8601; values without a zone are UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if decoded, err := url.QueryUnescape(s); err == nil {
		s = strings.TrimSpace(decoded)
	}
	if s == "" {
		return time.Time{}, ErrInvalidTimestamp
	}

	if isDecimal(s) {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, ErrInvalidTimestamp
		}
		return fromUnix(n)
	}

	if t, ok := parseISO(s); ok {
		return t.UTC(), nil
	}
	// a literal '+' in an offset decodes to a space when the client forgot to encode it
	if strings.Contains(s, " ") {
		if t, ok := parseISO(strings.ReplaceAll(s, " ", "+")); ok {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidTimestamp
}

func fromUnix(n float64) (time.Time, error) {
	// milliseconds must fit in an int64
	if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 || n >= math.MaxInt64 {
		return time.Time{}, ErrInvalidTimestamp
	}
	if n > MillisecondThreshold {
		ms := math.Trunc(n)
		frac := n - ms
		return time.UnixMilli(int64(ms)).Add(time.Duration(frac * float64(time.Millisecond))).UTC(), nil
	}
	sec := math.Trunc(n)
	frac := n - sec
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC(), nil
}

// isDecimal reports whether s is digits with an optional fractional part.
// Exponents, signs, hex and Inf/NaN spellings are not cursors.
func isDecimal(s string) bool {
	digits, dot := 0, false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot && digits > 0 && i < len(s)-1:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}

func parseISO(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
