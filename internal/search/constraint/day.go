// internal/search/constraint/day.go
package constraint

import (
	"fmt"
	"strings"
	"time"
)

// DayKind tags which variant a Day holds.
type DayKind int

const (
	DayUnset DayKind = iota
	DaySpecific
	DayWeekendCategory
	DayWeekdayCategory
)

func (k DayKind) String() string {
	switch k {
	case DaySpecific:
		return "specific"
	case DayWeekendCategory:
		return "weekend"
	case DayWeekdayCategory:
		return "weekday"
	default:
		return "unset"
	}
}

// Day is a day-of-week requirement. The zero value is unset.
type Day struct {
	kind    DayKind
	weekday time.Weekday
}

func SpecificDay(wd time.Weekday) Day {
	return Day{kind: DaySpecific, weekday: wd}
}

// WeekendDay returns the weekend category. Saturday is its canonical representative.
func WeekendDay() Day {
	return Day{kind: DayWeekendCategory, weekday: time.Saturday}
}

// WeekdayDay returns the Monday-Friday category. Monday is its canonical representative.
func WeekdayDay() Day {
	return Day{kind: DayWeekdayCategory, weekday: time.Monday}
}

func (d Day) IsSet() bool { return d.kind != DayUnset }

func (d Day) Kind() DayKind { return d.kind }

func (d Day) IsCategory() bool {
	return d.kind == DayWeekendCategory || d.kind == DayWeekdayCategory
}

// Canonical returns the representative weekday. Meaningless when unset.
func (d Day) Canonical() time.Weekday { return d.weekday }

// Members lists the weekdays this constraint accepts, in calendar order.
func (d Day) Members() []time.Weekday {
	switch d.kind {
	case DaySpecific:
		return []time.Weekday{d.weekday}
	case DayWeekendCategory:
		return []time.Weekday{time.Saturday, time.Sunday}
	case DayWeekdayCategory:
		return []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	default:
		return nil
	}
}

// Includes reports category membership, or equality for a specific day.
func (d Day) Includes(wd time.Weekday) bool {
	for _, m := range d.Members() {
		if m == wd {
			return true
		}
	}
	return false
}

func (d Day) String() string {
	switch d.kind {
	case DaySpecific:
		return weekdayName(d.weekday)
	case DayWeekendCategory:
		return "weekend"
	case DayWeekdayCategory:
		return "weekdays"
	default:
		return ""
	}
}

func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(text []byte) error {
	parsed, err := ParseDay(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDay is the inverse of Day.String. The empty string yields an unset Day.
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "":
		return Day{}, nil
	case "weekend", "weekends":
		return WeekendDay(), nil
	case "weekday", "weekdays":
		return WeekdayDay(), nil
	}
	for _, wd := range dayPriority {
		if s == weekdayName(wd) {
			return SpecificDay(wd), nil
		}
	}
	return Day{}, fmt.Errorf("unknown day %q", s)
}

func weekdayName(wd time.Weekday) string {
	return strings.ToLower(wd.String())
}

// WeekdayAbbrev returns the three-letter lower-case abbreviation ("mon", "sat", ...).
func WeekdayAbbrev(wd time.Weekday) string {
	return weekdayName(wd)[:3]
}
