package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
	"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
	"sat": time.Saturday,
}

// ParseDays parses the narrow weekday grammar used by the job table:
//
//	"daily" | "*"            every day
//	"mon"                    single day
//	"mon-fri"                inclusive range (may wrap, e.g. "sat-sun")
//	"mon,wed,fri"            comma list of days and ranges
func ParseDays(raw string) (WeekdaySet, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, fmt.Errorf("days: empty")
	}
	if s == "daily" || s == "*" {
		return EveryDay, nil
	}

	var set WeekdaySet
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if from, to, ok := strings.Cut(part, "-"); ok {
			a, okA := weekdayNames[strings.TrimSpace(from)]
			b, okB := weekdayNames[strings.TrimSpace(to)]
			if !okA || !okB {
				return 0, fmt.Errorf("days: invalid range %q", part)
			}
			for d := a; ; d = (d + 1) % 7 {
				set |= 1 << uint(d)
				if d == b {
					break
				}
			}
			continue
		}
		d, ok := weekdayNames[part]
		if !ok {
			return 0, fmt.Errorf("days: unknown weekday %q", part)
		}
		set |= 1 << uint(d)
	}
	return set, nil
}

// ParseAt parses a "HH:MM" civil time of day.
func ParseAt(raw string) (hour, minute int, err error) {
	s := strings.TrimSpace(raw)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("at: expected HH:MM, got %q", raw)
	}
	hour, err = strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("at: invalid hour in %q", raw)
	}
	minute, err = strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("at: invalid minute in %q", raw)
	}
	return hour, minute, nil
}
