package telegram

import (
	"context"
	"strings"

	"conference-checkin/internal/infra/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":  r.handleHelpCommand,
		"help":   r.handleHelpCommand,
		"redeem": r.staffOnly(r.handleRedeemCommand),
	}
}

// staffOnly rejects users outside bot.staff_ids (when the list is set).
func (r *RealTelegramBotAdapter) staffOnly(next commandHandler) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		if !r.isStaff(message.From.ID) {
			metrics.IncTelegramUpdate("rejected")
			r.log.Info().Int64("tg_id", message.From.ID).Msg("non-staff check-in attempt")
			return r.SendMessage(ctx, message.Chat.ID, r.tr.T("bot_not_staff"))
		}
		return next(ctx, message)
	}
}

func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.SendMessage(ctx, message.Chat.ID, r.tr.T("bot_help"))
}

// handleRedeemCommand handles "/redeem CODE".
func (r *RealTelegramBotAdapter) handleRedeemCommand(ctx context.Context, message *tgbotapi.Message) error {
	code := strings.TrimSpace(message.CommandArguments())
	if code == "" {
		return r.SendMessage(ctx, message.Chat.ID, r.tr.T("bot_usage_redeem"))
	}
	return r.replyResult(ctx, message.Chat.ID, r.redeem.Redeem(ctx, code))
}
