package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"conference-checkin/internal/domain"
	"conference-checkin/internal/domain/model"
	"conference-checkin/internal/domain/ports/adapter"
	"conference-checkin/internal/infra/i18n"
	"conference-checkin/internal/infra/logging"
	"conference-checkin/internal/infra/metrics"
	"conference-checkin/internal/scanner"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ ScanUseCase = (*scanUC)(nil)

// ScanUseCase keeps server-side scan sessions fed with snapshots pushed by kiosks.
type ScanUseCase interface {
	Open(ctx context.Context) (model.ScanStatus, error)
	PushFrame(ctx context.Context, id string, image []byte) error
	ReportCaptureError(ctx context.Context, id, kind string) error
	Status(ctx context.Context, id string) (model.ScanStatus, error)
	Cancel(ctx context.Context, id string) (model.ScanStatus, error)
	EvictExpired(ctx context.Context) (int, error)
	Shutdown()
}

type ScanOptions struct {
	FrameInterval time.Duration
	MaxSessions   int
	SessionTTL    time.Duration
}

type scanEntry struct {
	session  *scanner.Session
	camera   adapter.RemoteCamera
	lastSeen time.Time
}

type scanUC struct {
	newCamera func() adapter.RemoteCamera
	decoder   adapter.Decoder
	redeemer  RedemptionUseCase
	tr        *i18n.Translator
	opts      ScanOptions
	log       *zerolog.Logger
	now       func() time.Time

	// Sessions outlive the request that opened them.
	base     context.Context
	stopBase context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*scanEntry
}

func NewScanUseCase(
	newCamera func() adapter.RemoteCamera,
	decoder adapter.Decoder,
	redeemer RedemptionUseCase,
	tr *i18n.Translator,
	opts ScanOptions,
	logger *zerolog.Logger,
) *scanUC {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 32
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 10 * time.Minute
	}
	base, stop := context.WithCancel(WithChannel(context.Background(), "scan"))
	return &scanUC{
		newCamera: newCamera,
		decoder:   decoder,
		redeemer:  redeemer,
		tr:        tr,
		opts:      opts,
		log:       logger,
		now:       time.Now,
		base:      base,
		stopBase:  stop,
		sessions:  make(map[string]*scanEntry),
	}
}

func (u *scanUC) Open(ctx context.Context) (model.ScanStatus, error) {
	defer logging.TraceDuration(u.log, "ScanUC.Open")()

	u.mu.Lock()
	if len(u.sessions) >= u.opts.MaxSessions {
		u.dropTerminalLocked()
	}
	if len(u.sessions) >= u.opts.MaxSessions {
		u.mu.Unlock()
		return model.ScanStatus{}, domain.ErrTooManySessions
	}
	id := uuid.NewString()
	cam := u.newCamera()
	sess := scanner.NewSession(id, cam, u.decoder, u.redeemer, u.tr, u.log,
		scanner.WithFrameInterval(u.opts.FrameInterval))
	u.sessions[id] = &scanEntry{session: sess, camera: cam, lastSeen: u.now()}
	u.mu.Unlock()

	runCtx := u.base
	if tid, ok := logging.TraceID(ctx); ok {
		runCtx = logging.WithTraceID(runCtx, tid)
	}
	if err := sess.Start(runCtx); err != nil {
		u.remove(id)
		return model.ScanStatus{}, err
	}
	u.reportActive()
	logging.With(ctx, u.log).Info().Str("session_id", id).Msg("scan session opened")
	return sess.Status(), nil
}

func (u *scanUC) PushFrame(ctx context.Context, id string, image []byte) error {
	e, err := u.touch(id)
	if err != nil {
		return err
	}
	if err := e.camera.PushImage(image); err != nil {
		return fmt.Errorf("frame: %w: %w", domain.ErrInvalidArgument, err)
	}
	return nil
}

// ReportCaptureError accepts "denied" or "unavailable".
func (u *scanUC) ReportCaptureError(ctx context.Context, id, kind string) error {
	var cause error
	switch kind {
	case "denied":
		cause = domain.ErrCaptureDenied
	case "unavailable":
		cause = domain.ErrCaptureUnavailable
	default:
		return fmt.Errorf("capture error kind %q: %w", kind, domain.ErrInvalidArgument)
	}
	e, err := u.touch(id)
	if err != nil {
		return err
	}
	e.camera.Fail(cause)
	return nil
}

func (u *scanUC) Status(ctx context.Context, id string) (model.ScanStatus, error) {
	e, err := u.touch(id)
	if err != nil {
		return model.ScanStatus{}, err
	}
	return e.session.Status(), nil
}

// Cancel stops the session and forgets it.
func (u *scanUC) Cancel(ctx context.Context, id string) (model.ScanStatus, error) {
	defer logging.TraceDuration(u.log, "ScanUC.Cancel")()
	e, err := u.touch(id)
	if err != nil {
		return model.ScanStatus{}, err
	}
	e.session.Cancel()
	u.remove(id)
	u.reportActive()
	return e.session.Status(), nil
}

// EvictExpired forgets sessions nobody touched for SessionTTL, cancelling any
// that still hold a device.
func (u *scanUC) EvictExpired(ctx context.Context) (int, error) {
	cutoff := u.now().Add(-u.opts.SessionTTL)

	u.mu.Lock()
	var stale []*scanEntry
	for id, e := range u.sessions {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e)
			delete(u.sessions, id)
		}
	}
	u.mu.Unlock()

	for _, e := range stale {
		e.session.Cancel()
	}
	u.reportActive()
	return len(stale), nil
}

// Shutdown cancels every session and waits for devices to be released.
func (u *scanUC) Shutdown() {
	u.mu.Lock()
	all := make([]*scanEntry, 0, len(u.sessions))
	for id, e := range u.sessions {
		all = append(all, e)
		delete(u.sessions, id)
	}
	u.mu.Unlock()

	for _, e := range all {
		e.session.Cancel()
	}
	u.stopBase()
	metrics.SetActiveScanSessions(0)
}

func (u *scanUC) touch(id string) (*scanEntry, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	e, ok := u.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	e.lastSeen = u.now()
	return e, nil
}

func (u *scanUC) remove(id string) {
	u.mu.Lock()
	delete(u.sessions, id)
	u.mu.Unlock()
}

// dropTerminalLocked requires u.mu.
func (u *scanUC) dropTerminalLocked() {
	for id, e := range u.sessions {
		if !e.session.Status().State.Active() {
			delete(u.sessions, id)
		}
	}
}

func (u *scanUC) reportActive() {
	u.mu.Lock()
	n := 0
	for _, e := range u.sessions {
		if e.session.Status().State.Active() {
			n++
		}
	}
	u.mu.Unlock()
	metrics.SetActiveScanSessions(n)
}
