package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// LeadingNumber returns the first number found in a spec string such as
// "309 HP", "22.3 km/l" or "$85,000".
func LeadingNumber(s string) (float64, bool) {
	match := numberPattern.FindString(s)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Seats returns the largest seat count in values like "7" or "7/8".
func Seats(s string) int {
	best := 0
	for _, part := range strings.Split(s, "/") {
		if v, ok := LeadingNumber(part); ok && int(v) > best {
			best = int(v)
		}
	}
	return best
}

func Price(s string) (float64, bool) {
	return LeadingNumber(s)
}
