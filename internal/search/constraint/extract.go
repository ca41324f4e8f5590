// internal/search/constraint/extract.go
package constraint

import (
	"regexp"
	"strings"
	"time"
)

// Constraint is the day and time requirement implied by a free-text query.
type Constraint struct {
	Day  Day       `json:"day"`
	Time TimeOfDay `json:"time"`
}

// IsEmpty reports whether neither dimension is set.
func (c Constraint) IsEmpty() bool {
	return !c.Day.IsSet() && !c.Time.IsSet()
}

// dayPriority is the scan order. Specific names come before the category tokens so
// "monday" never lands in the weekday category.
var dayPriority = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// Query time patterns, tried in order; the first that matches wins.
var (
	colonTimePattern   = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm)?\b`)
	compactTimePattern = regexp.MustCompile(`\b(\d{1,2})(\d{2})\s*(am|pm)\b`)
	hourTimePattern    = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`)
)

// Extract parses a query into its day and time constraints. Either may be unset.
func Extract(query string) Constraint {
	text := strings.ToLower(query)
	return Constraint{
		Day:  extractDay(text),
		Time: extractTime(text),
	}
}

func extractDay(text string) Day {
	for _, wd := range dayPriority {
		if strings.Contains(text, weekdayName(wd)) {
			return SpecificDay(wd)
		}
	}
	if strings.Contains(text, "weekend") {
		return WeekendDay()
	}
	if strings.Contains(text, "weekday") {
		return WeekdayDay()
	}
	return Day{}
}

func extractTime(text string) TimeOfDay {
	for _, m := range colonTimePattern.FindAllStringSubmatch(text, -1) {
		if minutes, ok := ClockMinutes(m[1], m[2], m[3]); ok {
			return At(minutes)
		}
	}
	for _, m := range compactTimePattern.FindAllStringSubmatch(text, -1) {
		if minutes, ok := ClockMinutes(m[1], m[2], m[3]); ok {
			return At(minutes)
		}
	}
	for _, m := range hourTimePattern.FindAllStringSubmatch(text, -1) {
		if minutes, ok := ClockMinutes(m[1], "", m[2]); ok {
			return At(minutes)
		}
	}
	return TimeOfDay{}
}
