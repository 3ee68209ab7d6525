//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing/fstest"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"conference-checkin/internal/domain"
	"conference-checkin/internal/domain/model"
	"conference-checkin/internal/domain/ports/adapter"
	"conference-checkin/internal/domain/ports/repository"
	"conference-checkin/internal/infra/i18n"
)

// =============================
// Repositories
// =============================

// ---- Mock TicketRepository ----

type MockTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*model.Ticket // by id

	CreateFunc     func(ctx context.Context, tx repository.Tx, t *model.Ticket) error
	FindByCodeFunc func(ctx context.Context, tx repository.Tx, code string) (*model.Ticket, error)
	MarkUsedFunc   func(ctx context.Context, tx repository.Tx, id string) (bool, error)
	DeleteFunc     func(ctx context.Context, tx repository.Tx, id string) (bool, error)
}

var _ repository.TicketRepository = (*MockTicketRepo)(nil)

func NewMockTicketRepo(seed ...*model.Ticket) *MockTicketRepo {
	m := &MockTicketRepo{tickets: make(map[string]*model.Ticket)}
	for _, t := range seed {
		cp := *t
		m.tickets[t.ID] = &cp
	}
	return m
}

func (m *MockTicketRepo) Create(ctx context.Context, tx repository.Tx, t *model.Ticket) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.tickets {
		if ex.ID == t.ID || ex.Code == t.Code {
			return domain.ErrAlreadyExists
		}
	}
	cp := *t
	m.tickets[t.ID] = &cp
	return nil
}

func (m *MockTicketRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Ticket, error) {
	if m.FindByCodeFunc != nil {
		return m.FindByCodeFunc(ctx, tx, code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.Code == code {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockTicketRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MockTicketRepo) MarkUsed(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	if m.MarkUsedFunc != nil {
		return m.MarkUsedFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok || t.Used {
		return false, nil
	}
	t.Used = true
	return true, nil
}

func (m *MockTicketRepo) Delete(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[id]; !ok {
		return false, nil
	}
	delete(m.tickets, id)
	return true, nil
}

func (m *MockTicketRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Ticket, 0, len(m.tickets))
	for _, t := range m.tickets {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *MockTicketRepo) get(id string) *model.Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tickets[id]
}

// ---- Mock AttendanceRepository ----

type MockAttendanceRepo struct {
	mu      sync.Mutex
	Records []*model.AttendanceRecord

	AppendFunc func(ctx context.Context, tx repository.Tx, rec *model.AttendanceRecord) error
}

var _ repository.AttendanceRepository = (*MockAttendanceRepo)(nil)

func NewMockAttendanceRepo() *MockAttendanceRepo { return &MockAttendanceRepo{} }

func (m *MockAttendanceRepo) Append(ctx context.Context, tx repository.Tx, rec *model.AttendanceRecord) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, tx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.Records = append(m.Records, &cp)
	return nil
}

func (m *MockAttendanceRepo) CountByTicket(ctx context.Context, tx repository.Tx, ticketID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.Records {
		if r.TicketID == ticketID {
			n++
		}
	}
	return n, nil
}

func (m *MockAttendanceRepo) List(ctx context.Context, tx repository.Tx) ([]*model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.AttendanceRecord(nil), m.Records...), nil
}

func (m *MockAttendanceRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Records)
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately without a real transaction unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, nil)
}

// ---- Mock Locker ----

type MockLocker struct {
	mu       sync.Mutex
	Locked   []string
	Unlocked []string

	TryLockFunc func(ctx context.Context, key string, ttl time.Duration) (string, error)
}

var _ repository.Locker = (*MockLocker)(nil)

func (m *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if m.TryLockFunc != nil {
		return m.TryLockFunc(ctx, key, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Locked = append(m.Locked, key)
	return "tok-" + key, nil
}

func (m *MockLocker) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Unlocked = append(m.Unlocked, key)
	return nil
}

// =============================
// Adapters
// =============================

type MockNotifier struct {
	mu   sync.Mutex
	Sent []string
	Err  error
}

var _ adapter.StaffNotifier = (*MockNotifier)(nil)

func (m *MockNotifier) Notify(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, text)
	return m.Err
}

type MockEventPublisher struct {
	mu     sync.Mutex
	Events []model.CheckinEvent
	Err    error
}

var _ adapter.EventPublisher = (*MockEventPublisher)(nil)

func (m *MockEventPublisher) PublishCheckin(ctx context.Context, ev model.CheckinEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
	return m.Err
}

type MockQREncoder struct {
	Content string
	Size    int
}

var _ adapter.QREncoder = (*MockQREncoder)(nil)

func (m *MockQREncoder) EncodePNG(content string, size int) ([]byte, error) {
	m.Content, m.Size = content, size
	return []byte("\x89PNG" + content), nil
}

// MockRemoteCamera grants a device as soon as a frame is pushed.
type MockRemoteCamera struct {
	mu     sync.Mutex
	frames []model.Frame
	err    error
	ready  chan struct{}
	once   sync.Once
	closed int
}

var (
	_ adapter.RemoteCamera  = (*MockRemoteCamera)(nil)
	_ adapter.CaptureDevice = (*MockRemoteCamera)(nil)
)

func NewMockRemoteCamera() *MockRemoteCamera {
	return &MockRemoteCamera{ready: make(chan struct{})}
}

func (c *MockRemoteCamera) Open(ctx context.Context) (adapter.CaptureDevice, error) {
	select {
	case <-c.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c, nil
}

func (c *MockRemoteCamera) PushImage(data []byte) error {
	if len(data) == 0 {
		return errors.New("empty image")
	}
	c.mu.Lock()
	// The "image" bytes are the QR payload, decoded by payloadDecoder.
	c.frames = append(c.frames, model.Frame{Pix: data, Width: 1, Height: 1})
	c.mu.Unlock()
	c.once.Do(func() { close(c.ready) })
	return nil
}

func (c *MockRemoteCamera) Fail(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	c.once.Do(func() { close(c.ready) })
}

func (c *MockRemoteCamera) NextFrame(ctx context.Context) (model.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return model.Frame{}, domain.ErrNoFrame
	}
	f := c.frames[0]
	c.frames = c.frames[1:]
	return f, nil
}

func (c *MockRemoteCamera) Close() error {
	c.mu.Lock()
	c.closed++
	c.mu.Unlock()
	return nil
}

func (c *MockRemoteCamera) closedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// payloadDecoder treats frame bytes as the QR payload; "-" means no code.
type payloadDecoder struct{}

func (payloadDecoder) Decode(f model.Frame) (string, error) {
	if string(f.Pix) == "-" {
		return "", domain.ErrNoPayload
	}
	return string(f.Pix), nil
}

// =============================
// Utilities
// =============================

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// newTestTranslator builds a translator from an in-memory locale so tests do
// not depend on the shipped wording.
func newTestTranslator() *i18n.Translator {
	testFS := fstest.MapFS{
		"locales/es.yaml": {
			Data: []byte(`
redeem_success: "ok"
redeem_invalid_code: "invalid"
redeem_already_used: "used"
redeem_internal_error: "internal"
capture_denied: "denied"
capture_unavailable: "unavailable"
capture_lost: "lost"
staff_checkin_notice: "checked in: %s (%s)"
`),
		},
	}
	translator, _ := i18n.NewTranslator(testFS, "es")
	return translator
}

func ticket(id, code, name string, used bool) *model.Ticket {
	return &model.Ticket{
		ID:              id,
		Code:            code,
		ParticipantName: name,
		Email:           model.DefaultEmail(name),
		Used:            used,
		CreatedAt:       time.Now().UTC(),
	}
}
