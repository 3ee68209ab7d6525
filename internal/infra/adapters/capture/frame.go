package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	"conference-checkin/internal/domain/model"
)

// FrameFromImage copies img into an RGBA frame.
func FrameFromImage(img image.Image) model.Frame {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) || rgba.Stride != b.Dx()*4 {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return model.Frame{Pix: rgba.Pix, Width: b.Dx(), Height: b.Dy()}
}

// DecodeFrame parses a PNG or JPEG snapshot.
func DecodeFrame(data []byte) (model.Frame, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return model.Frame{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return FrameFromImage(img), nil
}
