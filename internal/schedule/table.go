package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/organicjin/reminder-bot/internal/config"
)

// Fanout selects who a job's message goes to.
type Fanout int

const (
	// FanoutAll broadcasts to every registered subscriber.
	FanoutAll Fanout = iota
	// FanoutSingle sends to the one statically configured recipient.
	FanoutSingle
)

func (f Fanout) String() string {
	if f == FanoutSingle {
		return "single"
	}
	return "all"
}

// Job is one schedule table entry. Immutable after startup.
type Job struct {
	ID      string
	Rule    Rule
	Message string
	Fanout  Fanout
}

// Table is the full fixed job set plus the civil timezone its rules are
// evaluated in.
type Table struct {
	Location *time.Location
	Jobs     []Job
}

const defaultUTCOffsetHours = 9 // KST

// Default returns the built-in job table: the reminder set the deployment
// has always shipped, evaluated in KST.
func Default() Table {
	return Table{
		Location: fixedOffset(defaultUTCOffsetHours),
		Jobs: []Job{
			{
				ID:   "daily_english",
				Rule: Rule{Days: EveryDay, Hour: 9, Minute: 30},
				Message: "🗣 English conversation time!\n" +
					"How about starting today's phrase practice?\n" +
					"A little every day adds up to a big change 💪",
			},
			{
				ID:   "daily_health",
				Rule: Rule{Days: EveryDay, Hour: 19, Minute: 0},
				Message: "💚 Health check-in time!\n" +
					"What did you eat today? How do you feel? Did you sleep well?\n" +
					"30 seconds is enough — take a moment for yourself 🌿",
			},
			{
				ID:   "daily_reading",
				Rule: Rule{Days: EveryDay, Hour: 22, Minute: 0},
				Message: "📚 Reading time!\n" +
					"How about just 10 minutes with a book today?\n" +
					"Your reading partner is waiting 🕯",
			},
			{
				ID:   "weekly_review",
				Rule: Rule{Days: 1 << time.Sunday, Hour: 19, Minute: 0},
				Message: "📝 Weekly review time!\n" +
					"How was your week? Wins, regrets, and next week's plan.\n" +
					"Let's look back on this week together 🌙",
			},
		},
	}
}

// FromConfig builds the table from config, falling back to the built-in
// jobs when the config lists none. The table is validated here once; it is
// not editable at runtime.
func FromConfig(sc config.ScheduleConfig) (Table, error) {
	offset := defaultUTCOffsetHours
	if sc.UTCOffsetHours != nil {
		offset = *sc.UTCOffsetHours
		if offset < -12 || offset > 14 {
			return Table{}, fmt.Errorf("schedule.utc_offset_hours: out of range: %d", offset)
		}
	}
	t := Default()
	t.Location = fixedOffset(offset)
	if len(sc.Jobs) == 0 {
		return t, nil
	}

	jobs := make([]Job, 0, len(sc.Jobs))
	seen := map[string]bool{}
	for i, jc := range sc.Jobs {
		id := strings.TrimSpace(jc.ID)
		if id == "" {
			return Table{}, fmt.Errorf("schedule.jobs[%d]: id is required", i)
		}
		if seen[id] {
			return Table{}, fmt.Errorf("schedule.jobs[%d]: duplicate id %q", i, id)
		}
		seen[id] = true

		days, err := ParseDays(jc.Days)
		if err != nil {
			return Table{}, fmt.Errorf("schedule.jobs[%d] (%s): %w", i, id, err)
		}
		hour, minute, err := ParseAt(jc.At)
		if err != nil {
			return Table{}, fmt.Errorf("schedule.jobs[%d] (%s): %w", i, id, err)
		}
		if strings.TrimSpace(jc.Message) == "" {
			return Table{}, fmt.Errorf("schedule.jobs[%d] (%s): message is required", i, id)
		}

		fanout := FanoutAll
		switch strings.TrimSpace(jc.Fanout) {
		case "", "all":
		case "single":
			fanout = FanoutSingle
		default:
			return Table{}, fmt.Errorf("schedule.jobs[%d] (%s): fanout must be \"all\" or \"single\"", i, id)
		}

		jobs = append(jobs, Job{
			ID:      id,
			Rule:    Rule{Days: days, Hour: hour, Minute: minute},
			Message: jc.Message,
			Fanout:  fanout,
		})
	}
	t.Jobs = jobs
	return t, nil
}

// Summary renders the human-readable schedule list used by /status replies.
func (t Table) Summary() string {
	var b strings.Builder
	for _, j := range t.Jobs {
		fmt.Fprintf(&b, "• %s — %s\n", j.Rule, firstLine(j.Message))
	}
	return strings.TrimRight(b.String(), "\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func fixedOffset(hours int) *time.Location {
	name := fmt.Sprintf("UTC%+d", hours)
	if hours == defaultUTCOffsetHours {
		name = "KST"
	}
	return time.FixedZone(name, hours*3600)
}
