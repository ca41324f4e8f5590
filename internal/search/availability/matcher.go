// internal/search/availability/matcher.go
package availability

import (
	"regexp"
	"strings"
	"time"

	"expert-search/internal/models"
	"expert-search/internal/search/constraint"
)

// ToleranceMinutes is the slack allowed between a requested time and a time mentioned
// in availability text. The boundary is inclusive.
const ToleranceMinutes = 30

var flexibleTokens = []string{"flexible", "tbd"}

// Availability text patterns. Every occurrence of each is considered.
var (
	colonMentionPattern   = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm)?\b`)
	compactMentionPattern = regexp.MustCompile(`\b(\d{1,2})(\d{2})?\s*(am|pm)\b`)
	afterMentionPattern   = regexp.MustCompile(`\bafter\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
)

// MatchResult pairs a candidate with its pass/fail verdict.
type MatchResult struct {
	Candidate models.Candidate `json:"candidate"`
	Matched   bool             `json:"matched"`
}

// Matches reports whether free-text availability satisfies the constraint.
func Matches(availability string, c constraint.Constraint) bool {
	text := strings.ToLower(availability)

	// Flexibility stands in for a missing dimension, never for both.
	if isFlexible(text) && (!c.Day.IsSet() || !c.Time.IsSet()) {
		return true
	}

	if c.Day.IsSet() && !matchesDay(text, c.Day) {
		return false
	}
	if c.Time.IsSet() && !matchesTime(text, c.Time.Minutes()) {
		return false
	}
	return true
}

// Filter keeps the candidates whose availability matches, preserving order.
func Filter(candidates []models.Candidate, c constraint.Constraint) []models.Candidate {
	out := make([]models.Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if Matches(cand.Availability, c) {
			out = append(out, cand)
		}
	}
	return out
}

// Evaluate returns a verdict for every candidate, preserving order.
func Evaluate(candidates []models.Candidate, c constraint.Constraint) []MatchResult {
	results := make([]MatchResult, len(candidates))
	for i, cand := range candidates {
		results[i] = MatchResult{Candidate: cand, Matched: Matches(cand.Availability, c)}
	}
	return results
}

func isFlexible(text string) bool {
	for _, tok := range flexibleTokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

func matchesDay(text string, day constraint.Day) bool {
	for _, wd := range day.Members() {
		if mentionsWeekday(text, wd) {
			return true
		}
	}
	switch day.Kind() {
	case constraint.DayWeekendCategory:
		return strings.Contains(text, "weekend")
	case constraint.DayWeekdayCategory:
		return strings.Contains(text, "weekday")
	}
	return false
}

func mentionsWeekday(text string, wd time.Weekday) bool {
	// The full name contains the abbreviation, so one lookup covers both.
	return strings.Contains(text, constraint.WeekdayAbbrev(wd))
}

func matchesTime(text string, requested int) bool {
	for _, m := range colonMentionPattern.FindAllStringSubmatch(text, -1) {
		if found, ok := constraint.ClockMinutes(m[1], m[2], m[3]); ok && withinTolerance(found, requested) {
			return true
		}
	}
	for _, m := range compactMentionPattern.FindAllStringSubmatch(text, -1) {
		if found, ok := constraint.ClockMinutes(m[1], m[2], m[3]); ok && withinTolerance(found, requested) {
			return true
		}
	}
	for _, m := range afterMentionPattern.FindAllStringSubmatch(text, -1) {
		if found, ok := constraint.ClockMinutes(m[1], m[2], m[3]); ok && requested >= found {
			return true
		}
	}
	return false
}

func withinTolerance(found, requested int) bool {
	diff := found - requested
	if diff < 0 {
		diff = -diff
	}
	return diff <= ToleranceMinutes
}
