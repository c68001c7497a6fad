// Package forms holds the field validators and per-entity schemas used by the
// intake wizard to gate step transitions and draft saves.
package forms

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BennettSmith/insurance-intake-api/internal/domain"
)

type Kind string

const (
	KindRequire   Kind = "REQUIRE"
	KindMinLength Kind = "MINLENGTH"
	KindMaxLength Kind = "MAXLENGTH"
	KindMin       Kind = "MIN"
	KindMax       Kind = "MAX"
	KindNumeric   Kind = "NUMERIC"
	KindMinAge    Kind = "MIN_AGE"
)

// Validator is a single rule applied to a field value.
// Val is the bound for length, range and age rules and is ignored otherwise.
type Validator struct {
	Kind Kind
	Val  float64
}

func Require() Validator         { return Validator{Kind: KindRequire} }
func MinLength(n int) Validator  { return Validator{Kind: KindMinLength, Val: float64(n)} }
func MaxLength(n int) Validator  { return Validator{Kind: KindMaxLength, Val: float64(n)} }
func Min(n float64) Validator    { return Validator{Kind: KindMin, Val: n} }
func Max(n float64) Validator    { return Validator{Kind: KindMax, Val: n} }
func Numeric() Validator         { return Validator{Kind: KindNumeric} }
func MinAge(years int) Validator { return Validator{Kind: KindMinAge, Val: float64(years)} }

// Validate runs validators in order against value using the current date and
// returns the first failure message, or "" when value passes every rule.
func Validate(value any, validators []Validator) string {
	return ValidateAt(time.Now(), value, validators)
}

// ValidateAt is Validate with an explicit reference date for age rules.
//
// Blank values (nil or whitespace-only strings) are judged only by REQUIRE and
// the length rules; numeric and range rules let them through so partially
// filled drafts can still be saved. Range rules ignore values that are not
// numbers at all, leaving those to NUMERIC.
func ValidateAt(today time.Time, value any, validators []Validator) string {
	for _, v := range validators {
		if msg := check(today, value, v); msg != "" {
			return msg
		}
	}
	return ""
}

func check(today time.Time, value any, v Validator) string {
	switch v.Kind {
	case KindRequire:
		if isBlank(value) {
			return "Field is required"
		}
	case KindMinLength:
		if runeLen(value) < int(v.Val) {
			return "Minimum length is " + formatBound(v.Val)
		}
	case KindMaxLength:
		if runeLen(value) > int(v.Val) {
			return "Maximum length is " + formatBound(v.Val)
		}
	case KindMin:
		if isBlank(value) {
			return ""
		}
		if f, ok := domain.ToFloat(value); ok && f < v.Val {
			return "Minimum value is " + formatBound(v.Val)
		}
	case KindMax:
		if isBlank(value) {
			return ""
		}
		if f, ok := domain.ToFloat(value); ok && f > v.Val {
			return "Maximum value is " + formatBound(v.Val)
		}
	case KindNumeric:
		if isBlank(value) {
			return ""
		}
		if !domain.IsNumeric(value) {
			return "Must be a number"
		}
	case KindMinAge:
		// Only string values are checked; anything else passes.
		s, ok := value.(string)
		if !ok {
			return ""
		}
		dob := domain.ParseDate(s)
		if dob == nil {
			return ""
		}
		if domain.Age(today, *dob) < int(v.Val) {
			return fmt.Sprintf("Age must be at least %s years.", formatBound(v.Val))
		}
	}
	return ""
}

func isBlank(value any) bool {
	if value == nil {
		return true
	}
	return strings.TrimSpace(stringOf(value)) == ""
}

func runeLen(value any) int {
	if value == nil {
		return 0
	}
	return len([]rune(strings.TrimSpace(stringOf(value))))
}

func stringOf(value any) string {
	switch x := value.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
