//go:build !integration

package scanner_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"conference-checkin/internal/domain"
	"conference-checkin/internal/domain/model"
	"conference-checkin/internal/domain/ports/adapter"
	"conference-checkin/internal/infra/i18n"
	"conference-checkin/internal/scanner"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeDevice struct {
	mu     sync.Mutex
	next   func(n int) (model.Frame, error)
	reads  int
	closed atomic.Int32
}

func (d *fakeDevice) NextFrame(ctx context.Context) (model.Frame, error) {
	d.mu.Lock()
	d.reads++
	n := d.reads
	d.mu.Unlock()
	return d.next(n)
}

func (d *fakeDevice) Close() error {
	d.closed.Add(1)
	return nil
}

type fakeCamera struct {
	dev     *fakeDevice
	openErr error
	block   bool
}

func (c *fakeCamera) Open(ctx context.Context) (adapter.CaptureDevice, error) {
	if c.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if c.openErr != nil {
		return nil, c.openErr
	}
	return c.dev, nil
}

type decoderFunc func(model.Frame) (string, error)

func (f decoderFunc) Decode(fr model.Frame) (string, error) { return f(fr) }

type fakeRedeemer struct {
	mu    sync.Mutex
	codes []string
}

func (r *fakeRedeemer) Redeem(ctx context.Context, code string) *model.RedemptionResult {
	r.mu.Lock()
	r.codes = append(r.codes, code)
	r.mu.Unlock()
	if code == "PART001" {
		return &model.RedemptionResult{Success: true, ParticipantName: "Juan Pérez"}
	}
	return &model.RedemptionResult{Reason: model.ReasonInvalidCode}
}

func (r *fakeRedeemer) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.codes...)
}

var frame = model.Frame{Pix: make([]byte, 4), Width: 1, Height: 1}

func alwaysFrame(int) (model.Frame, error) { return frame, nil }

func newSession(cam adapter.Camera, dec adapter.Decoder, r scanner.Redeemer) *scanner.Session {
	logger := zerolog.New(io.Discard)
	return scanner.NewSession("s-1", cam, dec, r, i18n.MustDefault("es"), &logger,
		scanner.WithFrameInterval(time.Millisecond))
}

func waitDone(t *testing.T, s *scanner.Session) model.ScanStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := s.Wait(ctx)
	require.NoError(t, err)
	return st
}

// ---- tests ----

func TestSession_DecodeRedeemsAndReleasesDevice(t *testing.T) {
	dev := &fakeDevice{next: alwaysFrame}
	red := &fakeRedeemer{}
	dec := decoderFunc(func(model.Frame) (string, error) { return "PART001", nil })
	s := newSession(&fakeCamera{dev: dev}, dec, red)

	require.NoError(t, s.Start(context.Background()))
	st := waitDone(t, s)

	assert.Equal(t, model.ScanDecoded, st.State)
	assert.Equal(t, model.ScanDecoded, st.LastOutcome)
	assert.Equal(t, "PART001", st.Payload)
	require.NotNil(t, st.Result)
	assert.True(t, st.Result.Success)
	assert.Equal(t, []string{"PART001"}, red.calls())
	assert.Equal(t, int32(1), dev.closed.Load(), "device must be released exactly once")
}

func TestSession_KeepsScanningOnEmptyAndFailedFrames(t *testing.T) {
	dev := &fakeDevice{next: func(n int) (model.Frame, error) {
		if n <= 2 {
			return model.Frame{}, domain.ErrNoFrame
		}
		return frame, nil
	}}
	var decodes atomic.Int32
	dec := decoderFunc(func(model.Frame) (string, error) {
		switch decodes.Add(1) {
		case 1:
			return "", domain.ErrNoPayload
		case 2:
			return "", errors.New("checksum mismatch")
		default:
			return "PART002", nil
		}
	})
	red := &fakeRedeemer{}
	s := newSession(&fakeCamera{dev: dev}, dec, red)

	require.NoError(t, s.Start(context.Background()))
	st := waitDone(t, s)

	assert.Equal(t, model.ScanDecoded, st.State)
	assert.Equal(t, 3, st.FramesSampled)
	assert.Equal(t, []string{"PART002"}, red.calls())
	assert.Equal(t, model.ReasonInvalidCode, st.Result.Reason)
}

func TestSession_OpenFailures(t *testing.T) {
	tr := i18n.MustDefault("es")
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"denied", domain.ErrCaptureDenied, tr.T("capture_denied")},
		{"unavailable", domain.ErrCaptureUnavailable, tr.T("capture_unavailable")},
		{"other", errors.New("driver crashed"), tr.T("capture_unavailable")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			red := &fakeRedeemer{}
			s := newSession(&fakeCamera{openErr: tc.err}, decoderFunc(func(model.Frame) (string, error) { return "x", nil }), red)

			require.NoError(t, s.Start(context.Background()))
			st := waitDone(t, s)

			assert.Equal(t, model.ScanCaptureFailed, st.State)
			assert.Equal(t, tc.want, st.FailureReason)
			assert.Empty(t, red.calls())
		})
	}
}

func TestSession_ReadErrorFailsAndReleases(t *testing.T) {
	dev := &fakeDevice{next: func(int) (model.Frame, error) { return model.Frame{}, errors.New("usb unplugged") }}
	s := newSession(&fakeCamera{dev: dev}, decoderFunc(func(model.Frame) (string, error) { return "", domain.ErrNoPayload }), &fakeRedeemer{})

	require.NoError(t, s.Start(context.Background()))
	st := waitDone(t, s)

	assert.Equal(t, model.ScanCaptureFailed, st.State)
	assert.Equal(t, i18n.MustDefault("es").T("capture_lost"), st.FailureReason)
	assert.Equal(t, int32(1), dev.closed.Load())
}

func TestSession_CancelWhileScanning(t *testing.T) {
	dev := &fakeDevice{next: alwaysFrame}
	red := &fakeRedeemer{}
	s := newSession(&fakeCamera{dev: dev}, decoderFunc(func(model.Frame) (string, error) { return "", domain.ErrNoPayload }), red)

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return s.Status().State == model.ScanScanning }, time.Second, time.Millisecond)

	assert.ErrorIs(t, s.Start(context.Background()), domain.ErrScanInProgress)

	s.Cancel()
	st := s.Status()
	assert.Equal(t, model.ScanIdle, st.State)
	assert.Equal(t, model.ScanCancelled, st.LastOutcome)
	assert.Equal(t, int32(1), dev.closed.Load())
	assert.Empty(t, red.calls())
}

func TestSession_CancelWhileRequestingCapture(t *testing.T) {
	s := newSession(&fakeCamera{block: true}, decoderFunc(func(model.Frame) (string, error) { return "", nil }), &fakeRedeemer{})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, model.ScanRequestingCapture, s.Status().State)

	s.Cancel()
	assert.Equal(t, model.ScanIdle, s.Status().State)
	assert.Equal(t, model.ScanCancelled, s.Status().LastOutcome)
}

func TestSession_ContextTeardownReleasesDevice(t *testing.T) {
	dev := &fakeDevice{next: alwaysFrame}
	s := newSession(&fakeCamera{dev: dev}, decoderFunc(func(model.Frame) (string, error) { return "", domain.ErrNoPayload }), &fakeRedeemer{})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	require.Eventually(t, func() bool { return s.Status().State == model.ScanScanning }, time.Second, time.Millisecond)
	cancel()

	st := waitDone(t, s)
	assert.Equal(t, model.ScanIdle, st.State)
	assert.Equal(t, int32(1), dev.closed.Load())
}

func TestSession_RestartAfterTerminalStates(t *testing.T) {
	s := newSession(&fakeCamera{openErr: domain.ErrCaptureDenied}, decoderFunc(func(model.Frame) (string, error) { return "PART001", nil }), &fakeRedeemer{})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, model.ScanCaptureFailed, waitDone(t, s).State)

	// No automatic retry, but a new Start is accepted.
	require.NoError(t, s.Start(context.Background()))
	st := waitDone(t, s)
	assert.Equal(t, model.ScanCaptureFailed, st.State)
}

func TestSession_ManualBypassesCapture(t *testing.T) {
	red := &fakeRedeemer{}
	s := newSession(&fakeCamera{openErr: domain.ErrCaptureUnavailable}, decoderFunc(func(model.Frame) (string, error) { return "", nil }), red)

	res := s.Manual(context.Background(), "PART001")

	assert.True(t, res.Success)
	st := s.Status()
	assert.Equal(t, model.ScanIdle, st.State)
	assert.Equal(t, "PART001", st.Payload)
	assert.Equal(t, []string{"PART001"}, red.calls())
}
