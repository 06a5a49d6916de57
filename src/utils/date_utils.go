package utils

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are tried in order when coercing input dates. ISO layouts
// come first; day-first layouts act as the fallback for files written with
// European date formats. Unpadded layouts also accept padded values.
var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2-1-2006",
	"2/1/2006",
}

// ParseFlexibleDate parses a date string against the supported layouts.
func ParseFlexibleDate(dateStr string) (time.Time, error) {
	s := strings.TrimSpace(dateStr)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", dateStr)
}
