package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// NormalizeHumanName trims leading/trailing whitespace and collapses internal whitespace runs.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
// The result is truncated to midnight UTC. Unparseable input yields nil.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// ParseInt normalizes a loosely typed value (JSON number or numeric string) to an integer.
// Blank, fractional, non-numeric and out-of-range (beyond int32) values yield nil.
func ParseInt(v any) *int {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int64:
		n = x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || x != math.Trunc(x) {
			return nil
		}
		if x < math.MinInt32 || x > math.MaxInt32 {
			return nil
		}
		n = int64(x)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	// Stored columns are 32-bit integers.
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil
	}
	out := int(n)
	return &out
}

// IsNumeric reports whether v is a finite number or a string that parses as one.
func IsNumeric(v any) bool {
	_, ok := ToFloat(v)
	return ok
}

// ToFloat coerces v to a finite float64.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
