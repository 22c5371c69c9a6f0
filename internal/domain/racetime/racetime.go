// Package racetime converts formatted swim times into seconds.
//
// Two textual forms are accepted: "M:SS.hh" and "SS.hh". The hundredths
// field must carry exactly two digits so that "21.7" is rejected instead of
// being read as 21.07.
package racetime

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	secondsPerMinute   = 60
	hundredthsPerSec   = 0.01
	hundredthsDigits   = 2
	minuteSeparator    = ":"
	fractionSeparator  = "."
	maxMinuteSegments  = 2
	fractionComponents = 2
)

// Parse returns the number of seconds encoded by s.
func Parse(s string) (float64, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrMalformedTime)
	}

	minutesPart, secondsPart := "0", s
	if strings.Contains(s, minuteSeparator) {
		parts := strings.Split(s, minuteSeparator)
		if len(parts) != maxMinuteSegments {
			return 0, fmt.Errorf("%w: %q has %d minute separators", ErrMalformedTime, raw, len(parts)-1)
		}
		minutesPart, secondsPart = parts[0], parts[1]
	}

	fraction := strings.Split(secondsPart, fractionSeparator)
	if len(fraction) != fractionComponents {
		return 0, fmt.Errorf("%w: %q must be SS.hh or M:SS.hh", ErrMalformedTime, raw)
	}
	if len(fraction[1]) != hundredthsDigits {
		return 0, fmt.Errorf("%w: %q must carry two hundredths digits", ErrMalformedTime, raw)
	}

	minutes, err := digits(minutesPart)
	if err != nil {
		return 0, fmt.Errorf("%w: minutes in %q: %v", ErrMalformedTime, raw, err)
	}
	seconds, err := digits(fraction[0])
	if err != nil {
		return 0, fmt.Errorf("%w: seconds in %q: %v", ErrMalformedTime, raw, err)
	}
	hundredths, err := digits(fraction[1])
	if err != nil {
		return 0, fmt.Errorf("%w: hundredths in %q: %v", ErrMalformedTime, raw, err)
	}

	return float64(minutes*secondsPerMinute) + float64(seconds) + hundredthsPerSec*float64(hundredths), nil
}

// FromValue accepts either a pre-parsed number of seconds or a formatted
// string and returns seconds.
func FromValue(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		return Parse(t)
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupported, v)
	}
}

// Format renders seconds back to the canonical "M:SS.hh" / "SS.hh" form.
func Format(seconds float64) string {
	total := int64(seconds*100 + 0.5)
	minutes := total / (secondsPerMinute * 100)
	rest := total % (secondsPerMinute * 100)
	if minutes == 0 {
		return fmt.Sprintf("%d.%02d", rest/100, rest%100)
	}
	return fmt.Sprintf("%d:%02d.%02d", minutes, rest/100, rest%100)
}

// digits parses a non-empty run of ASCII digits. Signs and spaces are rejected.
func digits(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty component")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-numeric component %q", s)
		}
	}
	return strconv.Atoi(s)
}
