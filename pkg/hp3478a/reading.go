package hp3478a

import (
	"fmt"
	"strconv"
	"strings"
)

// OverloadValue is what the meter returns when the input exceeds the range
const OverloadValue = 9.99999e9

// ParseReading converts a reading such as "+1.23456E+0". An overload returns
// the value together with ErrOverload.
func ParseReading(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty reading")
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid reading %q: %w", s, err)
	}
	if value >= OverloadValue {
		return value, ErrOverload
	}
	return value, nil
}

// JoinReadings formats each value with verb and joins them with ", "
func JoinReadings(values []float64, verb string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf(verb, v)
	}
	return strings.Join(parts, ", ")
}

// FormatReadings renders values as "[a, b, c]"
func FormatReadings(values []float64, verb string) string {
	return "[" + JoinReadings(values, verb) + "]"
}
