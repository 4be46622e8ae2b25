package tui

import (
	"time"
	"unicode/utf8"
)

// visitTimeLayouts are the timestamp shapes the backend uses on visits.
var visitTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// formatVisitTime renders a backend timestamp as "02 Jan 2006 15:04", or
// returns it unchanged when it matches no known layout.
func formatVisitTime(s string) string {
	for _, layout := range visitTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if layout == "2006-01-02" {
				return t.Format("02 Jan 2006")
			}
			return t.Format("02 Jan 2006 15:04")
		}
	}
	return s
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}
