package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	encodedExtension   = ".jpg"
	encodedContentType = "image/jpeg"
)

// Encoded is the result of a compression pass.
type Encoded struct {
	Data        []byte
	Filename    string
	Width       int
	Height      int
	Size        int64
	ContentType string
}

// Codec re-encodes image bytes into a bounded JPEG.
type Codec interface {
	Compress(src []byte, filename string, quality, maxWidth, maxHeight int) (*Encoded, error)
}

// ImagingCodec implements Codec with disintegration/imaging.
type ImagingCodec struct{}

func NewImagingCodec() *ImagingCodec {
	return &ImagingCodec{}
}

// Compress decodes src (honouring EXIF orientation), flattens any
// transparency onto white, scales it down to fit maxWidth x maxHeight and
// encodes it as JPEG at the given quality. Images already inside the bounds
// are never upscaled.
func (c *ImagingCodec) Compress(src []byte, filename string, quality, maxWidth, maxHeight int) (*Encoded, error) {
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &CodecError{Filename: filename, Err: err}
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &CodecError{Filename: filename, Err: fmt.Errorf("invalid image dimensions: %dx%d", b.Dx(), b.Dy())}
	}

	rgb := flatten(img)

	newWidth, newHeight := FitWithin(b.Dx(), b.Dy(), maxWidth, maxHeight)
	var out image.Image = rgb
	if newWidth != b.Dx() || newHeight != b.Dy() {
		out = imaging.Resize(rgb, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, &CodecError{Filename: filename, Err: fmt.Errorf("jpeg encoding failed: %w", err)}
	}

	return &Encoded{
		Data:        buf.Bytes(),
		Filename:    JPEGFilename(filename),
		Width:       newWidth,
		Height:      newHeight,
		Size:        int64(buf.Len()),
		ContentType: encodedContentType,
	}, nil
}

// FitWithin scales (w, h) down by a single factor so both sides fit the
// bounds. Sizes already inside the bounds come back unchanged.
func FitWithin(w, h, maxWidth, maxHeight int) (int, int) {
	if w <= maxWidth && h <= maxHeight {
		return w, h
	}
	ratio := math.Min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	nw := int(math.Floor(float64(w) * ratio))
	nh := int(math.Floor(float64(h) * ratio))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

// flatten composites img onto an opaque white canvas. The result never
// carries an alpha channel or a palette.
func flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Over)
	return canvas
}

// JPEGFilename replaces the extension of name with .jpg.
func JPEGFilename(name string) string {
	base := filepath.Base(name)
	if base == "." || base == "/" || base == "" {
		base = "image"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + encodedExtension
}
