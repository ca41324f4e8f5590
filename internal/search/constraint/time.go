// internal/search/constraint/time.go
package constraint

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// TimeOfDay is a wall-clock instant in minutes since midnight. The zero value is unset.
type TimeOfDay struct {
	minutes int
	set     bool
}

// At returns a set TimeOfDay. Minutes outside 0-1439 wrap around the day.
func At(minutes int) TimeOfDay {
	minutes %= minutesPerDay
	if minutes < 0 {
		minutes += minutesPerDay
	}
	return TimeOfDay{minutes: minutes, set: true}
}

func (t TimeOfDay) IsSet() bool { return t.set }

func (t TimeOfDay) Minutes() int { return t.minutes }

func (t TimeOfDay) String() string {
	if !t.set {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", t.minutes/60, t.minutes%60)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		*t = TimeOfDay{}
		return nil
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return fmt.Errorf("expected HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return fmt.Errorf("invalid minute in %q", s)
	}
	*t = At(h*60 + m)
	return nil
}

// ClockMinutes converts captured hour, minute and meridiem tokens to minutes since
// midnight: the hour is taken modulo 12 and 12 hours are added for "pm". An empty
// minute means :00. Hours above 12 are only accepted without a meridiem, so
// "15pm" is not a time. Without that check it would read as 3pm.
func ClockMinutes(hour, minute, meridiem string) (int, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m := 0
	if minute != "" {
		m, err = strconv.Atoi(minute)
		if err != nil || m < 0 || m > 59 {
			return 0, false
		}
	}
	meridiem = strings.ToLower(meridiem)
	if meridiem != "" && h > 12 {
		return 0, false
	}

	total := (h%12)*60 + m
	if meridiem == "pm" {
		total += 12 * 60
	}
	return total, true
}
