// Package qr renders short URLs as QR code images. Encoding is
// delegated entirely to the go-qrcode library; nothing here knows
// about matrix layout or error correction.
package qr

import "github.com/skip2/go-qrcode"

// Renderer turns a URL into image bytes.
type Renderer interface {
	Render(url string) ([]byte, error)
}

// PNGRenderer renders square PNG images of a fixed pixel size.
type PNGRenderer struct {
	Size int
}

func NewPNGRenderer() *PNGRenderer {
	return &PNGRenderer{Size: 512}
}

func (r *PNGRenderer) Render(url string) ([]byte, error) {
	return qrcode.Encode(url, qrcode.Medium, r.Size)
}
