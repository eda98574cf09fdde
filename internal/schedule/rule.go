package schedule

import (
	"fmt"
	"strings"
	"time"
)

// WeekdaySet is a bitmask of allowed weekdays (bit n = time.Weekday(n)).
type WeekdaySet uint8

const EveryDay WeekdaySet = 0x7f

// MonToFri covers the five working days.
const MonToFri WeekdaySet = 1<<time.Monday | 1<<time.Tuesday | 1<<time.Wednesday |
	1<<time.Thursday | 1<<time.Friday

func (s WeekdaySet) Has(d time.Weekday) bool { return s&(1<<uint(d)) != 0 }

func (s WeekdaySet) IsEmpty() bool { return s&EveryDay == 0 }

func (s WeekdaySet) String() string {
	if s&EveryDay == EveryDay {
		return "daily"
	}
	names := []string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}
	var parts []string
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			parts = append(parts, names[d])
		}
	}
	return strings.Join(parts, ",")
}

// Rule selects recurring calendar instants: an allowed-weekday set plus a
// single civil time of day, evaluated in a fixed-offset location.
type Rule struct {
	Days   WeekdaySet
	Hour   int
	Minute int
}

func (r Rule) String() string {
	return fmt.Sprintf("%s %02d:%02d", r.Days, r.Hour, r.Minute)
}

// Next returns the soonest instant strictly after now whose weekday is in
// the allowed set and whose civil time in loc matches the rule.
//
// Strictly after: when now already matches the rule up to the minute, the
// result is the following occurrence, never the current one. This is what
// prevents a duplicate fire when the engine recomputes at the fire instant.
func (r Rule) Next(now time.Time, loc *time.Location) time.Time {
	if r.Days.IsEmpty() {
		return time.Time{}
	}
	local := now.In(loc)
	day0 := time.Date(local.Year(), local.Month(), local.Day(), r.Hour, r.Minute, 0, 0, loc)
	// A non-empty weekday set always matches within the next 7 days.
	for i := 0; i <= 7; i++ {
		c := day0.AddDate(0, 0, i)
		if !r.Days.Has(c.Weekday()) {
			continue
		}
		if c.After(local) {
			return c
		}
	}
	return time.Time{}
}
