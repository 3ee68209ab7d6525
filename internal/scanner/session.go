// Package scanner drives one capture device until a QR payload is read,
// then hands the payload to a redeemer.
package scanner

import (
	"context"
	"errors"
	"sync"
	"time"

	"conference-checkin/internal/domain"
	"conference-checkin/internal/domain/model"
	"conference-checkin/internal/domain/ports/adapter"
	"conference-checkin/internal/infra/i18n"
	"conference-checkin/internal/infra/logging"
	"conference-checkin/internal/infra/metrics"

	"github.com/rs/zerolog"
)

const DefaultFrameInterval = 100 * time.Millisecond

// Redeemer consumes a decoded or typed code.
type Redeemer interface {
	Redeem(ctx context.Context, code string) *model.RedemptionResult
}

// Session is a restartable scan attempt:
// IDLE -> REQUESTING_CAPTURE -> SCANNING -> DECODED | CANCELLED | CAPTURE_FAILED.
type Session struct {
	id       string
	camera   adapter.Camera
	decoder  adapter.Decoder
	redeemer Redeemer
	tr       *i18n.Translator
	interval time.Duration
	log      *zerolog.Logger
	now      func() time.Time

	mu          sync.Mutex
	gen         uint64
	state       model.ScanState
	lastOutcome model.ScanState
	failure     string
	payload     string
	result      *model.RedemptionResult
	frames      int
	updatedAt   time.Time
	cancel      context.CancelFunc
	done        chan struct{}
}

type Option func(*Session)

func WithFrameInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func NewSession(id string, camera adapter.Camera, decoder adapter.Decoder, redeemer Redeemer, tr *i18n.Translator, logger *zerolog.Logger, opts ...Option) *Session {
	s := &Session{
		id:       id,
		camera:   camera,
		decoder:  decoder,
		redeemer: redeemer,
		tr:       tr,
		interval: DefaultFrameInterval,
		log:      logger,
		now:      time.Now,
		state:    model.ScanIdle,
	}
	for _, o := range opts {
		o(s)
	}
	s.updatedAt = s.now()
	closed := make(chan struct{})
	close(closed)
	s.done = closed
	return s
}

func (s *Session) ID() string { return s.id }

// Start requests the camera and begins sampling on its own goroutine.
// It fails with domain.ErrScanInProgress while an attempt is still running.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Active() {
		s.mu.Unlock()
		return domain.ErrScanInProgress
	}
	s.gen++
	gen := s.gen
	runCtx, cancel := context.WithCancel(logging.WithSessID(ctx, s.id))
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.state = model.ScanRequestingCapture
	s.failure = ""
	s.payload = ""
	s.result = nil
	s.frames = 0
	s.updatedAt = s.now()
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		s.run(runCtx, gen)
	}()
	return nil
}

// Wait blocks until the current attempt has released its device, or ctx ends.
func (s *Session) Wait(ctx context.Context) (model.ScanStatus, error) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	select {
	case <-done:
		return s.Status(), nil
	case <-ctx.Done():
		return s.Status(), ctx.Err()
	}
}

// Cancel stops a running attempt, waits for the device to be released and
// settles in IDLE. It is a no-op when nothing is running.
func (s *Session) Cancel() {
	s.mu.Lock()
	if !s.state.Active() {
		s.mu.Unlock()
		return
	}
	gen := s.gen
	s.setState(model.ScanCancelled)
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	metrics.IncScanOutcome("cancelled")
	s.log.Debug().Str("session_id", s.id).Msg("scan cancelled")

	s.mu.Lock()
	if s.gen == gen && s.state == model.ScanCancelled {
		s.setState(model.ScanIdle)
	}
	s.mu.Unlock()
}

// Manual redeems a typed code without touching the capture states.
func (s *Session) Manual(ctx context.Context, code string) *model.RedemptionResult {
	res := s.redeemer.Redeem(ctx, code)
	s.mu.Lock()
	s.payload = code
	s.result = res
	s.updatedAt = s.now()
	s.mu.Unlock()
	return res
}

func (s *Session) Status() model.ScanStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.ScanStatus{
		SessionID:     s.id,
		State:         s.state,
		LastOutcome:   s.lastOutcome,
		FailureReason: s.failure,
		Payload:       s.payload,
		Result:        s.result,
		FramesSampled: s.frames,
		UpdatedAt:     s.updatedAt,
	}
}

func (s *Session) run(ctx context.Context, gen uint64) {
	log := logging.With(ctx, s.log)

	// Context teardown without Cancel still leaves the session restartable.
	defer func() {
		s.mu.Lock()
		if s.gen == gen && s.state.Active() {
			s.lastOutcome = model.ScanCancelled
			s.setState(model.ScanIdle)
		}
		s.mu.Unlock()
	}()

	dev, err := s.camera.Open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		key := "capture_unavailable"
		if errors.Is(err, domain.ErrCaptureDenied) {
			key = "capture_denied"
		}
		log.Warn().Err(err).Msg("camera open failed")
		s.fail(gen, s.tr.T(key))
		return
	}
	released := false
	release := func() {
		if released {
			return
		}
		released = true
		if err := dev.Close(); err != nil {
			log.Warn().Err(err).Msg("release capture device")
		}
	}
	defer release()

	if !s.advance(gen, model.ScanRequestingCapture, model.ScanScanning) {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		payload, err := s.sample(ctx, gen, dev)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Msg("frame read failed")
			s.fail(gen, s.tr.T("capture_lost"))
			return
		case payload != "":
			if !s.advance(gen, model.ScanScanning, model.ScanDecoded) {
				return
			}
			release()
			s.finish(ctx, gen, payload)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// sample reads one frame and tries to decode it. An empty payload with a nil
// error means "keep scanning".
func (s *Session) sample(ctx context.Context, gen uint64, dev adapter.CaptureDevice) (string, error) {
	frame, err := dev.NextFrame(ctx)
	if errors.Is(err, domain.ErrNoFrame) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.gen == gen {
		s.frames++
	}
	s.mu.Unlock()
	metrics.IncFramesSampled()

	payload, err := s.decoder.Decode(frame)
	if err != nil {
		if !errors.Is(err, domain.ErrNoPayload) {
			metrics.IncDecodeFailure()
			s.log.Debug().Err(err).Str("session_id", s.id).Msg("decode failed, continuing")
		}
		return "", nil
	}
	return payload, nil
}

func (s *Session) finish(ctx context.Context, gen uint64, payload string) {
	metrics.IncScanOutcome("decoded")
	s.mu.Lock()
	if s.gen == gen {
		s.payload = payload
	}
	s.mu.Unlock()

	// A decoded payload is always redeemed, even if the caller stops waiting.
	res := s.redeemer.Redeem(context.WithoutCancel(ctx), payload)

	s.mu.Lock()
	if s.gen == gen {
		s.result = res
		s.updatedAt = s.now()
	}
	s.mu.Unlock()
	logging.With(ctx, s.log).Info().Bool("success", res.Success).Str("reason", string(res.Reason)).Msg("scan redeemed")
}

func (s *Session) fail(gen uint64, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || !s.state.Active() {
		return
	}
	s.failure = reason
	s.setState(model.ScanCaptureFailed)
	metrics.IncScanOutcome("capture_failed")
}

func (s *Session) advance(gen uint64, from, to model.ScanState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.state != from {
		return false
	}
	s.setState(to)
	return true
}

// setState requires s.mu.
func (s *Session) setState(st model.ScanState) {
	s.state = st
	switch st {
	case model.ScanDecoded, model.ScanCancelled, model.ScanCaptureFailed:
		s.lastOutcome = st
	}
	s.updatedAt = s.now()
}
