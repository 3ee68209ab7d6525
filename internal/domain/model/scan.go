package model

import "time"

// Frame is one captured video frame in RGBA layout (4 bytes per pixel, row-major).
type Frame struct {
	Pix    []byte
	Width  int
	Height int
}

func (f Frame) Valid() bool {
	return f.Width > 0 && f.Height > 0 && len(f.Pix) >= f.Width*f.Height*4
}

type ScanState string

const (
	ScanIdle              ScanState = "IDLE"
	ScanRequestingCapture ScanState = "REQUESTING_CAPTURE"
	ScanScanning          ScanState = "SCANNING"
	ScanDecoded           ScanState = "DECODED"
	ScanCancelled         ScanState = "CANCELLED"
	ScanCaptureFailed     ScanState = "CAPTURE_FAILED"
)

// Active reports whether a capture device may be held in this state.
func (s ScanState) Active() bool {
	return s == ScanRequestingCapture || s == ScanScanning
}

// ScanStatus is a point-in-time view of a scan session.
type ScanStatus struct {
	SessionID     string            `json:"session_id"`
	State         ScanState         `json:"state"`
	LastOutcome   ScanState         `json:"last_outcome,omitempty"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Payload       string            `json:"payload,omitempty"`
	Result        *RedemptionResult `json:"result,omitempty"`
	FramesSampled int               `json:"frames_sampled"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
