// Package memory is the single-process store: tickets and attendance live in
// maps owned by an explicitly constructed Store.
package memory

import (
	"context"
	"sort"
	"sync"

	"conference-checkin/internal/domain"
	"conference-checkin/internal/domain/model"
	"conference-checkin/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
)

// Store owns both collections. Repositories returned by Tickets/Attendance
// share its lock.
type Store struct {
	mu         sync.RWMutex
	tickets    map[string]*model.Ticket // by id
	byCode     map[string]string        // code -> id
	attendance []*model.AttendanceRecord

	txMu sync.Mutex
}

func NewStore() *Store {
	return &Store{
		tickets: make(map[string]*model.Ticket),
		byCode:  make(map[string]string),
	}
}

func (s *Store) Tickets() repository.TicketRepository        { return (*ticketRepo)(s) }
func (s *Store) Attendance() repository.AttendanceRepository { return (*attendanceRepo)(s) }
func (s *Store) TxManager() repository.TransactionManager    { return (*txManager)(s) }

// ---- tickets ----

var _ repository.TicketRepository = (*ticketRepo)(nil)

type ticketRepo Store

func (r *ticketRepo) Create(ctx context.Context, tx repository.Tx, t *model.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[t.ID]; ok {
		return domain.ErrAlreadyExists
	}
	if _, ok := r.byCode[t.Code]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *t
	r.tickets[t.ID] = &cp
	r.byCode[t.Code] = t.ID
	return nil
}

func (r *ticketRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byCode[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r.tickets[id]
	return &cp, nil
}

func (r *ticketRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// MarkUsed is the compare-and-swap on the used flag.
func (r *ticketRepo) MarkUsed(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok || t.Used {
		return false, nil
	}
	t.Used = true
	return true, nil
}

func (r *ticketRepo) Delete(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return false, nil
	}
	delete(r.byCode, t.Code)
	delete(r.tickets, id)
	return true, nil
}

func (r *ticketRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Ticket, 0, len(r.tickets))
	for _, t := range r.tickets {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Code < out[j].Code
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ---- attendance ----

var _ repository.AttendanceRepository = (*attendanceRepo)(nil)

type attendanceRepo Store

func (r *attendanceRepo) Append(ctx context.Context, tx repository.Tx, rec *model.AttendanceRecord) error {
	if rec.ID == "" || rec.TicketID == "" {
		return domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.attendance = append(r.attendance, &cp)
	return nil
}

func (r *attendanceRepo) CountByTicket(ctx context.Context, tx repository.Tx, ticketID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, a := range r.attendance {
		if a.TicketID == ticketID {
			n++
		}
	}
	return n, nil
}

func (r *attendanceRepo) List(ctx context.Context, tx repository.Tx) ([]*model.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.AttendanceRecord, 0, len(r.attendance))
	for _, a := range r.attendance {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

// ---- transactions ----

var _ repository.TransactionManager = (*txManager)(nil)

type txManager Store

type memTx struct{}

// WithTx serializes transactional callbacks. There is no rollback: callers
// order their writes so the fallible step comes first.
func (m *txManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.txMu.Lock()
	defer m.txMu.Unlock()
	// ctx may have ended while waiting for the previous transaction.
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, memTx{})
}
