package transport

import "context"

// Update is an inbound event from the messaging channel.
// Only plain text messages are consumed by this bot.
type Update struct {
	Message *Message
}

type Message struct {
	ID           int
	ChatID       int64
	FromID       int64
	FromUsername string
	Text         string
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Sender is the minimal outbound capability the dispatcher needs.
// Failures are opaque: callers log them, never interpret them.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string, opt *SendOptions) error
}

// Adapter is the full messaging-channel client: a Sender plus the
// inbound long-poll lifecycle.
type Adapter interface {
	Sender

	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error
}
