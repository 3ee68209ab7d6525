package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"conference-checkin/internal/domain"
	"conference-checkin/internal/domain/model"
	"conference-checkin/internal/domain/ports/adapter"
	"conference-checkin/internal/domain/ports/repository"
	"conference-checkin/internal/infra/logging"
	"conference-checkin/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ TicketUseCase = (*ticketUC)(nil)

const (
	addTicketAttempts = 5
	defaultQRSize     = 256
	maxQRSize         = 1024
)

// TicketUseCase provisions and inspects tickets. It never redeems.
type TicketUseCase interface {
	AddTicket(ctx context.Context, name, email string) (*model.Ticket, error)
	RemoveTicket(ctx context.Context, id string) (bool, error)
	GetTicket(ctx context.Context, id string) (*model.Ticket, error)
	ListTickets(ctx context.Context) ([]*model.Ticket, error)
	ListAttendance(ctx context.Context) ([]*model.AttendanceRecord, error)
	TicketQR(ctx context.Context, id string, size int) ([]byte, error)
	SeedDemo(ctx context.Context) (int, error)
}

type ticketUC struct {
	tickets    repository.TicketRepository
	attendance repository.AttendanceRepository
	tm         repository.TransactionManager
	qr         adapter.QREncoder
	newCode    func() string
	log        *zerolog.Logger
}

func NewTicketUseCase(
	tickets repository.TicketRepository,
	attendance repository.AttendanceRepository,
	tm repository.TransactionManager,
	qr adapter.QREncoder,
	logger *zerolog.Logger,
) *ticketUC {
	return &ticketUC{
		tickets:    tickets,
		attendance: attendance,
		tm:         tm,
		qr:         qr,
		newCode:    randomCode,
		log:        logger,
	}
}

// randomCode yields PART1000..PART9999.
func randomCode() string {
	return fmt.Sprintf("PART%d", 1000+rand.IntN(9000))
}

func (u *ticketUC) AddTicket(ctx context.Context, name, email string) (*model.Ticket, error) {
	defer logging.TraceDuration(u.log, "TicketUC.AddTicket")()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("participant name: %w", domain.ErrInvalidArgument)
	}
	email = strings.TrimSpace(email)

	for attempt := 1; attempt <= addTicketAttempts; attempt++ {
		t, err := model.NewTicket("", u.newCode(), name, email)
		if err != nil {
			return nil, err
		}
		err = u.tickets.Create(ctx, repository.NoTX, t)
		if err == nil {
			metrics.IncTicketAdmin("added")
			logging.With(ctx, u.log).Info().Str("ticket_id", t.ID).Str("code", t.Code).Msg("ticket added")
			return t, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
		u.log.Debug().Int("attempt", attempt).Str("code", t.Code).Msg("ticket code taken, retrying")
	}
	return nil, fmt.Errorf("no free ticket code after %d attempts: %w", addTicketAttempts, domain.ErrAlreadyExists)
}

func (u *ticketUC) RemoveTicket(ctx context.Context, id string) (bool, error) {
	defer logging.TraceDuration(u.log, "TicketUC.RemoveTicket")()
	ok, err := u.tickets.Delete(ctx, repository.NoTX, id)
	if err != nil {
		return false, err
	}
	if ok {
		metrics.IncTicketAdmin("removed")
		logging.With(ctx, u.log).Info().Str("ticket_id", id).Msg("ticket removed")
	}
	return ok, nil
}

func (u *ticketUC) GetTicket(ctx context.Context, id string) (*model.Ticket, error) {
	defer logging.TraceDuration(u.log, "TicketUC.GetTicket")()
	return u.tickets.FindByID(ctx, repository.NoTX, id)
}

func (u *ticketUC) ListTickets(ctx context.Context) ([]*model.Ticket, error) {
	defer logging.TraceDuration(u.log, "TicketUC.ListTickets")()
	return u.tickets.List(ctx, repository.NoTX)
}

func (u *ticketUC) ListAttendance(ctx context.Context) ([]*model.AttendanceRecord, error) {
	defer logging.TraceDuration(u.log, "TicketUC.ListAttendance")()
	return u.attendance.List(ctx, repository.NoTX)
}

// TicketQR renders the ticket code as a PNG. size <= 0 picks the default.
func (u *ticketUC) TicketQR(ctx context.Context, id string, size int) ([]byte, error) {
	defer logging.TraceDuration(u.log, "TicketUC.TicketQR")()
	if size <= 0 {
		size = defaultQRSize
	}
	if size > maxQRSize {
		return nil, fmt.Errorf("qr size %d above %d: %w", size, maxQRSize, domain.ErrInvalidArgument)
	}
	t, err := u.tickets.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	return u.qr.EncodePNG(t.Code, size)
}

type demoTicket struct {
	id, code, name, email string
	used                  bool
}

var demoTickets = []demoTicket{
	{"1", "PART001", "Juan Pérez", "juan.perez@ejemplo.com", false},
	{"2", "PART002", "María García", "maria.garcia@ejemplo.com", false},
	{"3", "PART003", "Carlos Rodríguez", "carlos.rodriguez@ejemplo.com", true},
	{"4", "PART004", "Ana Martínez", "ana.martinez@ejemplo.com", false},
	{"5", "PART005", "Luis Sánchez", "luis.sanchez@ejemplo.com", false},
}

// SeedDemo inserts the demo tickets that are missing and reports how many it added.
// PART003 is seeded as already redeemed together with its attendance record.
func (u *ticketUC) SeedDemo(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "TicketUC.SeedDemo")()

	added := 0
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		for _, d := range demoTickets {
			_, err := u.tickets.FindByCode(ctx, tx, d.code)
			if err == nil {
				continue
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return err
			}

			t, err := model.NewTicket(d.id, d.code, d.name, d.email)
			if err != nil {
				return err
			}
			t.Used = d.used
			if err := u.tickets.Create(ctx, tx, t); err != nil {
				return fmt.Errorf("seed %s: %w", d.code, err)
			}
			if d.used {
				now := time.Now().UTC()
				rec := &model.AttendanceRecord{
					ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
					TicketID:  t.ID,
					Timestamp: now,
				}
				if err := u.attendance.Append(ctx, tx, rec); err != nil {
					return fmt.Errorf("seed attendance %s: %w", d.code, err)
				}
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	u.log.Info().Int("added", added).Msg("demo tickets seeded")
	return added, nil
}
