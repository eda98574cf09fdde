package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// envOverrides are environment variables applied on top of the file config.
// The token override matches the variable the deployment has always used.
type envOverrides struct {
	TelegramToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	RecipientID   int64  `envconfig:"REMINDER_CHAT_ID"`
}

// ApplyEnv merges environment overrides into cfg.
// Env values win over file values when set.
func ApplyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return err
	}
	if tok := strings.TrimSpace(env.TelegramToken); tok != "" {
		cfg.Telegram.Token = tok
	}
	if env.RecipientID != 0 {
		cfg.RecipientID = env.RecipientID
	}
	return nil
}
