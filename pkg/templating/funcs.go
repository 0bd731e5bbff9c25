package templating

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// repeat returns the integers 0 to count-1, for ranging a fixed number of times.
func repeat(count int) []int {
	if count < 0 {
		return []int{}
	}
	s := make([]int, count)
	for i := range s {
		s[i] = i
	}
	return s
}

// list returns its arguments as a slice.
func list(args ...any) []any {
	return args
}

// dict builds a map from alternating keys and values. It is mostly used to
// hand several values to a partial, or to build attributes for image and svg.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.New("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key must be a string, got %T", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

// fallback returns value unless it is unset, in which case def is returned.
func fallback(def, value any) any {
	if isSet(value) {
		return value
	}
	return def
}

// isSet reports whether val is something other than its zero value.
func isSet(val any) bool {
	v := reflect.ValueOf(val)
	if !v.IsValid() {
		return false
	}
	return !v.IsZero()
}

func join(sep string, items []string) string {
	return strings.Join(items, sep)
}

func add(a, b int) int { return a + b }

func sub(a, b int) int { return a - b }

// div is integer division that yields 0 for a zero divisor.
func div(a, b int) int {
	if b == 0 {
		return 0
	}
	return a / b
}

func mod(a, b int) int {
	if b == 0 {
		return 0
	}
	return a % b
}
