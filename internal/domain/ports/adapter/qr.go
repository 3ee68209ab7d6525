package adapter

// QREncoder renders content as a square PNG QR code of size pixels.
type QREncoder interface {
	EncodePNG(content string, size int) ([]byte, error)
}
