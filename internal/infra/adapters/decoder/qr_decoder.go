package decoder

import (
	"errors"
	"fmt"
	"image"

	"conference-checkin/internal/domain"
	"conference-checkin/internal/domain/model"
	"conference-checkin/internal/domain/ports/adapter"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

var _ adapter.Decoder = (*QRDecoder)(nil)

// QRDecoder reads QR codes from RGBA frames with gozxing.
type QRDecoder struct {
	hints map[gozxing.DecodeHintType]interface{}
}

func NewQRDecoder() *QRDecoder {
	return &QRDecoder{hints: map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}}
}

func (d *QRDecoder) Decode(frame model.Frame) (string, error) {
	if !frame.Valid() {
		return "", fmt.Errorf("frame %dx%d with %d bytes: %w", frame.Width, frame.Height, len(frame.Pix), domain.ErrInvalidArgument)
	}
	img := &image.RGBA{
		Pix:    frame.Pix,
		Stride: frame.Width * 4,
		Rect:   image.Rect(0, 0, frame.Width, frame.Height),
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("binarize frame: %w", err)
	}

	// QRCodeReader keeps per-call state; one per decode.
	res, err := qrcode.NewQRCodeReader().Decode(bmp, d.hints)
	if err != nil {
		var nf gozxing.NotFoundException
		if errors.As(err, &nf) {
			return "", domain.ErrNoPayload
		}
		return "", fmt.Errorf("qr decode: %w", err)
	}
	if res.GetText() == "" {
		return "", domain.ErrNoPayload
	}
	return res.GetText(), nil
}
