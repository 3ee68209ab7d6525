package usecase

import (
	"context"
	"errors"
	"time"

	"conference-checkin/internal/domain"
	"conference-checkin/internal/domain/model"
	"conference-checkin/internal/domain/ports/adapter"
	"conference-checkin/internal/domain/ports/repository"
	"conference-checkin/internal/infra/i18n"
	"conference-checkin/internal/infra/logging"
	"conference-checkin/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ RedemptionUseCase = (*redemptionUC)(nil)

// RedemptionUseCase validates a code and consumes its ticket at most once.
// Every outcome, including infrastructure failures, comes back as a result.
type RedemptionUseCase interface {
	Redeem(ctx context.Context, code string) *model.RedemptionResult
}

type redemptionUC struct {
	tickets    repository.TicketRepository
	attendance repository.AttendanceRepository
	locker     repository.Locker
	tm         repository.TransactionManager
	tr         *i18n.Translator
	notifier   adapter.StaffNotifier
	events     adapter.EventPublisher
	lockTTL    time.Duration
	now        func() time.Time
	log        *zerolog.Logger
}

type RedemptionOption func(*redemptionUC)

// WithClock overrides the clock used for attendance timestamps.
func WithClock(now func() time.Time) RedemptionOption {
	return func(u *redemptionUC) { u.now = now }
}

func WithLockTTL(ttl time.Duration) RedemptionOption {
	return func(u *redemptionUC) {
		if ttl > 0 {
			u.lockTTL = ttl
		}
	}
}

// WithStaffNotifier announces every successful check-in.
func WithStaffNotifier(n adapter.StaffNotifier) RedemptionOption {
	return func(u *redemptionUC) { u.notifier = n }
}

// WithEventPublisher emits a CheckinEvent for every successful check-in.
func WithEventPublisher(p adapter.EventPublisher) RedemptionOption {
	return func(u *redemptionUC) { u.events = p }
}

func NewRedemptionUseCase(
	tickets repository.TicketRepository,
	attendance repository.AttendanceRepository,
	locker repository.Locker,
	tm repository.TransactionManager,
	tr *i18n.Translator,
	logger *zerolog.Logger,
	opts ...RedemptionOption,
) *redemptionUC {
	u := &redemptionUC{
		tickets:    tickets,
		attendance: attendance,
		locker:     locker,
		tm:         tm,
		tr:         tr,
		lockTTL:    5 * time.Second,
		now:        func() time.Time { return time.Now().UTC() },
		log:        logger,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

func ticketLockKey(code string) string { return "checkin:lock:ticket:" + code }

func (u *redemptionUC) Redeem(ctx context.Context, code string) *model.RedemptionResult {
	defer logging.TraceDuration(u.log, "RedemptionUC.Redeem")()
	start := time.Now()

	res := u.redeem(ctx, code)

	metrics.ObserveRedemption(string(res.Reason), ChannelFrom(ctx), float64(time.Since(start).Milliseconds()))
	if res.Success && u.notifier != nil {
		if err := u.notifier.Notify(ctx, u.tr.T("staff_checkin_notice", res.ParticipantName, res.ParticipantEmail)); err != nil {
			logging.With(ctx, u.log).Warn().Err(err).Msg("staff notification not delivered")
		}
	}
	if res.Success && u.events != nil {
		ev := model.CheckinEvent{
			TicketID:        res.TicketID,
			Code:            code,
			ParticipantName: res.ParticipantName,
			Email:           res.ParticipantEmail,
			AttendanceID:    res.AttendanceID,
			Channel:         ChannelFrom(ctx),
			RedeemedAt:      *res.RedeemedAt,
		}
		// The check-in is committed; the caller going away must not drop the event.
		if err := u.events.PublishCheckin(context.WithoutCancel(ctx), ev); err != nil {
			logging.With(ctx, u.log).Warn().Err(err).Msg("check-in event not published")
		}
	}
	return res
}

func (u *redemptionUC) redeem(ctx context.Context, code string) *model.RedemptionResult {
	log := logging.With(ctx, u.log)
	if code == "" {
		return u.invalid()
	}

	if u.locker != nil {
		key := ticketLockKey(code)
		token, err := u.locker.TryLock(ctx, key, u.lockTTL)
		if err != nil {
			log.Error().Err(err).Str("code", code).Msg("ticket lock")
			return u.internal()
		}
		defer func() {
			if err := u.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
				log.Warn().Err(err).Str("code", code).Msg("ticket unlock")
			}
		}()
	}

	var res *model.RedemptionResult
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		t, err := u.tickets.FindByCode(ctx, tx, code)
		if errors.Is(err, domain.ErrNotFound) {
			res = u.invalid()
			return nil
		}
		if err != nil {
			return err
		}
		if t.Used {
			res = u.alreadyUsed(t)
			return nil
		}

		// Lost CAS means another redeemer got there first.
		won, err := u.tickets.MarkUsed(ctx, tx, t.ID)
		if err != nil {
			return err
		}
		if !won {
			res = u.alreadyUsed(t)
			return nil
		}

		now := u.now()
		rec := &model.AttendanceRecord{
			ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
			TicketID:  t.ID,
			Timestamp: now,
		}
		if err := u.attendance.Append(ctx, tx, rec); err != nil {
			return err
		}

		res = (&model.RedemptionResult{
			Success:      true,
			Message:      u.tr.T("redeem_success"),
			AttendanceID: rec.ID,
			RedeemedAt:   &now,
		}).WithParticipant(t)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("code", logging.Redact(code, false)).Msg("redeem failed")
		return u.internal()
	}

	log.Info().
		Bool("success", res.Success).
		Str("reason", string(res.Reason)).
		Str("ticket_id", res.TicketID).
		Msg("redeem")
	return res
}

func (u *redemptionUC) invalid() *model.RedemptionResult {
	return &model.RedemptionResult{Reason: model.ReasonInvalidCode, Message: u.tr.T("redeem_invalid_code")}
}

func (u *redemptionUC) alreadyUsed(t *model.Ticket) *model.RedemptionResult {
	return (&model.RedemptionResult{Reason: model.ReasonAlreadyUsed, Message: u.tr.T("redeem_already_used")}).WithParticipant(t)
}

func (u *redemptionUC) internal() *model.RedemptionResult {
	return &model.RedemptionResult{Reason: model.ReasonInternalError, Message: u.tr.T("redeem_internal_error")}
}

type channelKey struct{}

// WithChannel tags ctx with the surface a redemption came from (http, scan, telegram, cli).
func WithChannel(ctx context.Context, channel string) context.Context {
	return context.WithValue(ctx, channelKey{}, channel)
}

func ChannelFrom(ctx context.Context) string {
	if v, ok := ctx.Value(channelKey{}).(string); ok {
		return v
	}
	return "unknown"
}
