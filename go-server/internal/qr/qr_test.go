package qr

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNGRenderer_Render(t *testing.T) {
	r := NewPNGRenderer()

	data, err := r.Render("http://localhost:8080/promo1")

	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 512, img.Bounds().Dx())
	assert.Equal(t, 512, img.Bounds().Dy())
}

func TestPNGRenderer_CustomSize(t *testing.T) {
	r := &PNGRenderer{Size: 128}

	data, err := r.Render("https://example.com/a/rather/longer/path?with=query&params=1")

	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
}
