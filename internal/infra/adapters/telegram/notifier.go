package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"conference-checkin/internal/domain/ports/adapter"
	"conference-checkin/internal/infra/worker"
)

// MessageSender is implemented by both bot adapters.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

var _ adapter.StaffNotifier = (*StaffNotifier)(nil)

// StaffNotifier posts check-in notices to the staff chat from the worker pool,
// so a slow Telegram API never delays a redemption.
type StaffNotifier struct {
	sender MessageSender
	chatID int64
	pool   *worker.Pool
	log    *zerolog.Logger
}

func NewStaffNotifier(sender MessageSender, chatID int64, pool *worker.Pool, logger *zerolog.Logger) *StaffNotifier {
	return &StaffNotifier{sender: sender, chatID: chatID, pool: pool, log: logger}
}

// Notify queues text; it fails only when the queue is full.
func (n *StaffNotifier) Notify(ctx context.Context, text string) error {
	if n.chatID == 0 {
		return nil
	}
	chatID := n.chatID
	return n.pool.Submit(func(ctx context.Context) error {
		return n.sender.SendMessage(ctx, chatID, text)
	})
}
