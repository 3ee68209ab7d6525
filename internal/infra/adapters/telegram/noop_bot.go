package telegram

import (
	"context"

	"github.com/rs/zerolog"
)

var _ MessageSender = (*NoopBotAdapter)(nil)

// NoopBotAdapter stands in when no bot token is configured. It logs messages
// instead of sending them.
type NoopBotAdapter struct {
	log *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	return &NoopBotAdapter{log: logger}
}

func (b *NoopBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Msg("[noop-telegram] message")
	return nil
}

// StartPolling blocks until ctx ends; there are no updates to receive.
func (b *NoopBotAdapter) StartPolling(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (b *NoopBotAdapter) StopPolling() {}
