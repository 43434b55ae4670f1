package tabular

// coerce.go converts raw cell values to a field's declared kind before
// validation. Coercion is deliberately best-effort: values that cannot be
// converted are passed through in a form the schema validator will reject
// (NaN for numbers, the raw value for dates), so the validator produces the
// user-facing diagnostic instead of coercion failing mid-row.

import (
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// TwoDigitYearPivot defines how 2-digit years are interpreted. Years that
// would land more than this many years in the future are assumed to be in
// the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling.
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
		time.RFC3339,
	}
)

// coerceFunc converts a raw cell value according to one field kind.
type coerceFunc func(raw any, spec FieldSpec) any

// coercers dispatches from kind to coercion rule.
var coercers = map[Kind]coerceFunc{
	KindString: coerceString,
	KindNumber: coerceNumber,
	KindBool:   coerceBool,
	KindDate:   coerceDate,
	KindArray:  coerceArray,
	KindEnum:   coerceEnum,
}

// Coerce converts a raw cell value to the field's kind. Unknown kinds pass
// the value through untouched.
func Coerce(raw any, spec FieldSpec) any {
	fn, ok := coercers[spec.Kind]
	if !ok {
		return raw
	}
	return fn(raw, spec)
}

// coerceString stringifies and trims; missing values become the empty string.
func coerceString(raw any, _ FieldSpec) any {
	if raw == nil {
		return ""
	}
	return strings.TrimSpace(cast.ToString(raw))
}

// coerceNumber parses to float64. Empty or missing values become nil;
// non-numeric text becomes NaN, which validation rejects later.
func coerceNumber(raw any, _ FieldSpec) any {
	if raw == nil {
		return nil
	}
	if s, ok := raw.(string); ok {
		s = cleanNumeric(s)
		if s == "" {
			return nil
		}
		raw = s
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return math.NaN()
	}
	return f
}

// cleanNumeric strips currency symbols, thousands separators and accounting
// parentheses so user-formatted numbers parse.
func cleanNumeric(s string) string {
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if negative && s != "" {
		s = "-" + s
	}
	return s
}

// coerceBool is strict: only the literals true, "true", "1" and numeric 1
// coerce to true. Everything else, including yes/y, is false.
func coerceBool(raw any, _ FieldSpec) any {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		s := strings.TrimSpace(v)
		return s == "true" || s == "1"
	case float64:
		return v == 1
	case float32:
		return v == 1
	case int:
		return v == 1
	case int64:
		return v == 1
	default:
		return false
	}
}

// coerceDate parses strings against the known layouts. Missing or empty
// values become nil; unparseable input is returned untouched so validation
// reports it as an invalid date.
func coerceDate(raw any, _ FieldSpec) any {
	switch v := raw.(type) {
	case nil:
		return nil
	case time.Time:
		return v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		if t, ok := parseDate(s); ok {
			return t
		}
		return raw
	default:
		return raw
	}
}

// parseDate tries 4-digit year layouts first (unambiguous), then 2-digit
// year layouts with pivot adjustment.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// coerceArray passes arrays through, wraps scalars, and turns missing values
// into an empty array.
func coerceArray(raw any, _ FieldSpec) any {
	switch v := raw.(type) {
	case nil:
		return []any{}
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	default:
		return []any{raw}
	}
}

// coerceEnum returns the canonical option when the value matches one of the
// declared options, nil otherwise. Validation then rejects nil for required
// fields.
func coerceEnum(raw any, spec FieldSpec) any {
	if raw == nil {
		return nil
	}
	s := strings.TrimSpace(cast.ToString(raw))
	for _, option := range spec.EnumValues {
		if s == option {
			return option
		}
	}
	return nil
}
