package adapter

import (
	"context"

	"conference-checkin/internal/domain/model"
)

// Camera hands out a capture device. Open fails with domain.ErrCaptureDenied or
// domain.ErrCaptureUnavailable when no device can be acquired.
type Camera interface {
	Open(ctx context.Context) (CaptureDevice, error)
}

// CaptureDevice yields the most recent frame. NextFrame returns domain.ErrNoFrame
// while the device is not ready yet. Close must be safe to call more than once.
type CaptureDevice interface {
	NextFrame(ctx context.Context) (model.Frame, error)
	Close() error
}

// Decoder extracts a QR payload from a frame. It returns domain.ErrNoPayload when
// the frame holds no readable code; any other error is a transient decode failure.
type Decoder interface {
	Decode(frame model.Frame) (string, error)
}

// RemoteCamera is a Camera whose frames are pushed by a remote client (a kiosk
// browser posting snapshots). Open waits for the first frame or a reported error.
type RemoteCamera interface {
	Camera
	// PushImage decodes a PNG or JPEG snapshot and makes it the latest frame.
	PushImage(data []byte) error
	// Fail reports that the client could not acquire its camera.
	Fail(err error)
}
