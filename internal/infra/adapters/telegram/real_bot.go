package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"conference-checkin/internal/config"
	"conference-checkin/internal/domain"
	"conference-checkin/internal/domain/model"
	"conference-checkin/internal/domain/ports/adapter"
	"conference-checkin/internal/infra/adapters/capture"
	"conference-checkin/internal/infra/i18n"
	"conference-checkin/internal/infra/logging"
	"conference-checkin/internal/infra/metrics"
	red "conference-checkin/internal/infra/redis"
	"conference-checkin/internal/usecase"
)

const (
	maxPhotoBytes     = 10 << 20
	photoFetchTimeout = 30 * time.Second
)

var errPhotoTooLarge = errors.New("photo too large")

// botAPI is the slice of *tgbotapi.BotAPI the adapter needs.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Limiter throttles staff chats; *redis.RateLimiter satisfies it.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RealTelegramBotAdapter lets staff check participants in from Telegram: a text
// message is a typed code, a photo is scanned for a QR code.
type RealTelegramBotAdapter struct {
	bot     botAPI
	cfg     *config.BotConfig
	redeem  usecase.RedemptionUseCase
	decoder adapter.Decoder
	tr      *i18n.Translator
	limiter Limiter
	log     *zerolog.Logger

	// fetch downloads a Telegram file by its direct URL.
	fetch func(ctx context.Context, url string) ([]byte, error)

	staffIDs      map[int64]struct{}
	updateWorkers int
	rateLimit     int
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(
	cfg *config.BotConfig,
	redeem usecase.RedemptionUseCase,
	decoder adapter.Decoder,
	tr *i18n.Translator,
	limiter Limiter,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if redeem == nil {
		return nil, errors.New("redemption use case is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	return newAdapter(bot, cfg, redeem, decoder, tr, limiter, logger), nil
}

func newAdapter(bot botAPI, cfg *config.BotConfig, redeem usecase.RedemptionUseCase, decoder adapter.Decoder, tr *i18n.Translator, limiter Limiter, logger *zerolog.Logger) *RealTelegramBotAdapter {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	staff := make(map[int64]struct{}, len(cfg.StaffIDs))
	for _, id := range cfg.StaffIDs {
		staff[id] = struct{}{}
	}
	botLog := logger.With().Str("component", "TelegramBot").Logger()
	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		redeem:        redeem,
		decoder:       decoder,
		tr:            tr,
		limiter:       limiter,
		log:           &botLog,
		fetch:         newPhotoFetcher().fetch,
		staffIDs:      staff,
		updateWorkers: workers,
		rateLimit:     30,
	}
}

func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	if err := r.SetMenuCommands(ctx); err != nil {
		r.log.Warn().Err(err).Msg("failed to set bot commands")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up, ok := <-updateChan:
					if !ok {
						return
					}
					if err := r.handleUpdate(ctx, up); err != nil {
						r.log.Error().Err(err).Int("worker", id).Msg("update handling failed")
					}
				}
			}
		}(i)
	}

	stop := func() error {
		r.bot.StopReceivingUpdates()
		close(updateChan)
		wg.Wait()
		return ctx.Err()
	}
	for {
		select {
		case <-ctx.Done():
			return stop()
		case up := <-updates:
			select {
			case updateChan <- up:
			case <-ctx.Done():
				return stop()
			}
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SetMenuCommands publishes the command list shown in Telegram clients.
func (r *RealTelegramBotAdapter) SetMenuCommands(ctx context.Context) error {
	cmds := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Start"},
		tgbotapi.BotCommand{Command: "help", Description: "Help"},
		tgbotapi.BotCommand{Command: "redeem", Description: "PART001"},
	)
	_, err := r.bot.Request(cmds)
	return err
}

func (r *RealTelegramBotAdapter) isStaff(userID int64) bool {
	if len(r.staffIDs) == 0 {
		return true
	}
	_, ok := r.staffIDs[userID]
	return ok
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}
	ctx = usecase.WithChannel(logging.WithChatID(ctx, msg.Chat.ID), "telegram")

	if r.limiter != nil {
		key := red.ClientKey("telegram", strconv.FormatInt(msg.From.ID, 10))
		allowed, err := r.limiter.Allow(ctx, key, r.rateLimit, time.Minute)
		if err != nil {
			logging.With(ctx, r.log).Warn().Err(err).Msg("rate limit check failed")
		} else if !allowed {
			metrics.IncRateLimited("telegram")
			return r.SendMessage(ctx, msg.Chat.ID, r.tr.T("rate_limited"))
		}
	}

	if msg.IsCommand() {
		metrics.IncTelegramUpdate("command")
		if h, ok := r.commandRoutes()[msg.Command()]; ok {
			return h(ctx, msg)
		}
		return r.SendMessage(ctx, msg.Chat.ID, r.tr.T("bot_help"))
	}

	if len(msg.Photo) > 0 {
		metrics.IncTelegramUpdate("photo")
		return r.staffOnly(r.handlePhoto)(ctx, msg)
	}

	if code := strings.TrimSpace(msg.Text); code != "" {
		metrics.IncTelegramUpdate("code")
		return r.staffOnly(func(ctx context.Context, m *tgbotapi.Message) error {
			return r.replyResult(ctx, m.Chat.ID, r.redeem.Redeem(ctx, code))
		})(ctx, msg)
	}
	return nil
}

// handlePhoto decodes the largest rendition of the photo and redeems its QR payload.
func (r *RealTelegramBotAdapter) handlePhoto(ctx context.Context, msg *tgbotapi.Message) error {
	best := msg.Photo[0]
	for _, p := range msg.Photo[1:] {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}

	url, err := r.bot.GetFileDirectURL(best.FileID)
	if err != nil {
		return fmt.Errorf("photo url: %w", err)
	}
	data, err := r.fetch(ctx, url)
	if errors.Is(err, errPhotoTooLarge) {
		return r.SendMessage(ctx, msg.Chat.ID, r.tr.T("bot_photo_too_large"))
	}
	if err != nil {
		return fmt.Errorf("photo download: %w", err)
	}
	frame, err := capture.DecodeFrame(data)
	if err != nil {
		return r.SendMessage(ctx, msg.Chat.ID, r.tr.T("bot_no_qr"))
	}
	payload, err := r.decoder.Decode(frame)
	if err != nil {
		if !errors.Is(err, domain.ErrNoPayload) {
			logging.With(ctx, r.log).Debug().Err(err).Msg("photo decode failed")
		}
		return r.SendMessage(ctx, msg.Chat.ID, r.tr.T("bot_no_qr"))
	}
	return r.replyResult(ctx, msg.Chat.ID, r.redeem.Redeem(ctx, payload))
}

func (r *RealTelegramBotAdapter) replyResult(ctx context.Context, chatID int64, res *model.RedemptionResult) error {
	text := res.Message
	if res.ParticipantName != "" {
		text += "\n" + r.tr.T("bot_participant", res.ParticipantName, res.ParticipantEmail)
	}
	return r.SendMessage(ctx, chatID, text)
}

// photoFetcher downloads Telegram files, refusing anything over limit bytes.
type photoFetcher struct {
	client *http.Client
	limit  int64
}

func newPhotoFetcher() photoFetcher {
	return photoFetcher{client: &http.Client{Timeout: photoFetchTimeout}, limit: maxPhotoBytes}
}

func (f photoFetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.limit {
		return nil, fmt.Errorf("%w: over %d bytes", errPhotoTooLarge, f.limit)
	}
	return data, nil
}
