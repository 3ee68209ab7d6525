package qrimage

import (
	"conference-checkin/internal/domain/ports/adapter"

	"github.com/skip2/go-qrcode"
)

var _ adapter.QREncoder = (*Encoder)(nil)

// Encoder renders ticket codes as PNG QR images.
type Encoder struct {
	Level qrcode.RecoveryLevel
}

func NewEncoder() *Encoder { return &Encoder{Level: qrcode.Medium} }

func (e *Encoder) EncodePNG(content string, size int) ([]byte, error) {
	return qrcode.Encode(content, e.Level, size)
}
