package types

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
	"github.com/timberio/go-datemath"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Now is the reference time for relative date expressions such as "now-1y".
var Now = time.Now

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006",
}

// Stringify renders a cell value the way it is displayed and compared as text.
// nil renders as the empty string, arrays join their elements with ",".
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case *time.Time:
		if x == nil {
			return ""
		}
		return x.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	}

	if items, ok := AsSlice(v); ok {
		return strings.Join(lo.Map(items, func(item any, _ int) string { return Stringify(item) }), ",")
	}

	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt(), rv.CanUint():
		return fmt.Sprint(v)
	case rv.Kind() == reflect.Map || rv.Kind() == reflect.Struct:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
	return fmt.Sprint(v)
}

// IsBlank reports whether v is nil or renders as whitespace only.
func IsBlank(v any) bool {
	if v == nil {
		return true
	}
	if _, ok := AsSlice(v); ok {
		return false
	}
	return strings.TrimSpace(Stringify(v)) == ""
}

// Truthy follows the truthiness of loosely typed payload values:
// nil, false, 0, NaN and "" are false.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if n, ok := numeric(v); ok {
		return n != 0 && !math.IsNaN(n)
	}
	return true
}

// AsSlice returns the elements of a slice value. Strings and byte slices are
// not treated as arrays.
func AsSlice(v any) ([]any, bool) {
	switch x := v.(type) {
	case nil, string, []byte:
		return nil, false
	case []any:
		return x, true
	case []string:
		return lo.ToAnySlice(x), true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}

	rv := reflect.ValueOf(v)
	switch {
	case !rv.IsValid():
		return 0, false
	case rv.CanInt():
		return float64(rv.Int()), true
	case rv.CanUint():
		return float64(rv.Uint()), true
	case rv.CanFloat():
		return rv.Float(), true
	}
	return 0, false
}

// IsNumber reports whether v is a Go numeric value.
func IsNumber(v any) bool {
	_, ok := numeric(v)
	return ok
}

// ToNumber coerces v to a finite number. Blank strings, nil, arrays and
// unparseable text are not numbers.
func ToNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}

	if n, ok := numeric(v); ok && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return n, true
	}
	return 0, false
}

// IsDateLike reports whether v is a time or an ISO-ish date string,
// i.e. one containing "-", "/" or "T".
func IsDateLike(v any) bool {
	switch x := v.(type) {
	case time.Time:
		return true
	case *time.Time:
		return x != nil
	case string:
		return strings.ContainsAny(x, "-/T")
	}
	return false
}

// ToDateMs parses v into epoch milliseconds.
func ToDateMs(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case time.Time:
		return float64(x.UnixMilli()), true
	case *time.Time:
		if x == nil {
			return 0, false
		}
		return float64(x.UnixMilli()), true
	}

	t, ok := ParseTime(Stringify(v))
	if !ok {
		return 0, false
	}
	return float64(t.UnixMilli()), true
}

// ParseTime parses absolute dates (RFC3339, ISO dates, common human formats)
// and relative expressions starting with "now" (e.g. "now-1y", "now/M").
// Dates without a zone are read as UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}

	if strings.HasPrefix(s, "now") {
		if t, err := datemath.ParseAndEvaluate(s, datemath.WithNow(Now())); err == nil {
			return t, true
		}
		return time.Time{}, false
	}

	if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// GroupLabel normalizes a grouping value into its display label.
// Blank values get the fallback; objects use label, name or id.
func GroupLabel(v any, fallback string) string {
	if m, ok := v.(map[string]any); ok {
		for _, key := range []string{"label", "name", "id"} {
			if Truthy(m[key]) {
				return Stringify(m[key])
			}
		}
		return Stringify(m)
	}
	if IsBlank(v) {
		return fallback
	}
	return Stringify(v)
}
