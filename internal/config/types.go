package config

// Config is the on-disk configuration.
//
// The file may be JSON or YAML (YAML is coerced to JSON before strict
// decoding). All durations are Go duration strings (e.g. "10s", "1m").
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`

	// Mode selects the deployment variant:
	//   - "multi":  fan-out to every registered subscriber (default)
	//   - "single": one statically configured recipient, no registry writes
	Mode string `json:"mode,omitempty"`

	// RecipientID is the statically configured recipient for single mode.
	// Ignored in multi mode. 0 means unset.
	RecipientID int64 `json:"recipient_id,omitempty"`

	Registry RegistryConfig `json:"registry"`
	Schedule ScheduleConfig `json:"schedule,omitempty"`
	Metrics  MetricsConfig  `json:"metrics,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// RegistryConfig controls the subscriber registry's durable store.
//
// Driver values:
//   - "file" (default): sorted JSON array, atomic replace on save
//   - "sqlite": SQLite database file
//   - "redis": Redis set
type RegistryConfig struct {
	Driver string `json:"driver,omitempty"`
	Path   string `json:"path,omitempty"`

	// BusyTimeout applies to the sqlite driver only.
	BusyTimeout string `json:"busy_timeout,omitempty"`

	// Redis driver settings.
	RedisAddr     string `json:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty"`
	RedisKey      string `json:"redis_key,omitempty"`
}

// ScheduleConfig optionally replaces the built-in job table.
//
// UTCOffsetHours fixes the civil timezone the hour/minute fields are
// evaluated in. There is no DST handling: the offset is constant.
type ScheduleConfig struct {
	UTCOffsetHours *int        `json:"utc_offset_hours,omitempty"`
	Jobs           []JobConfig `json:"jobs,omitempty"`
}

// JobConfig is one schedule table entry.
//
// Days accepts "daily", a single weekday ("sun"), a range ("mon-fri") or a
// comma list ("mon,wed,fri"). At is "HH:MM" civil time in the fixed offset.
// Fanout is "all" (registry broadcast) or "single" (configured recipient).
type JobConfig struct {
	ID      string `json:"id"`
	Days    string `json:"days"`
	At      string `json:"at"`
	Message string `json:"message"`
	Fanout  string `json:"fanout,omitempty"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default: "127.0.0.1:9090"
}

const (
	ModeMulti  = "multi"
	ModeSingle = "single"
)
