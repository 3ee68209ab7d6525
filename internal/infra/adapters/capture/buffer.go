package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"conference-checkin/internal/domain"
	"conference-checkin/internal/domain/model"
	"conference-checkin/internal/domain/ports/adapter"
)

var (
	_ adapter.RemoteCamera  = (*FrameBuffer)(nil)
	_ adapter.CaptureDevice = (*bufferDevice)(nil)
)

var errDeviceClosed = errors.New("capture device closed")

// FrameBuffer holds the latest snapshot pushed by a remote client. Open grants
// the device once the first frame arrives and fails when the client reports an
// error or stays silent for the capture timeout.
type FrameBuffer struct {
	timeout time.Duration

	mu        sync.Mutex
	latest    *model.Frame
	err       error
	ready     chan struct{}
	readyOnce sync.Once
}

func NewFrameBuffer(timeout time.Duration) *FrameBuffer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FrameBuffer{timeout: timeout, ready: make(chan struct{})}
}

func (b *FrameBuffer) Open(ctx context.Context) (adapter.CaptureDevice, error) {
	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case <-b.ready:
	case <-timer.C:
		return nil, domain.ErrCaptureUnavailable
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil && b.latest == nil {
		return nil, b.err
	}
	return &bufferDevice{buf: b}, nil
}

func (b *FrameBuffer) PushImage(data []byte) error {
	f, err := DecodeFrame(data)
	if err != nil {
		return err
	}
	b.Push(f)
	return nil
}

// Push replaces the latest frame.
func (b *FrameBuffer) Push(f model.Frame) {
	b.mu.Lock()
	b.latest = &f
	b.mu.Unlock()
	b.readyOnce.Do(func() { close(b.ready) })
}

func (b *FrameBuffer) Fail(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
	b.readyOnce.Do(func() { close(b.ready) })
}

type bufferDevice struct {
	buf    *FrameBuffer
	mu     sync.Mutex
	closed bool
}

// NextFrame hands out each pushed frame once.
func (d *bufferDevice) NextFrame(ctx context.Context) (model.Frame, error) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return model.Frame{}, errDeviceClosed
	}

	b := d.buf
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return model.Frame{}, b.err
	}
	if b.latest == nil {
		return model.Frame{}, domain.ErrNoFrame
	}
	f := *b.latest
	b.latest = nil
	return f, nil
}

func (d *bufferDevice) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}
