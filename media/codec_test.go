package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func makeTestImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := y*img.Stride + x*4
			img.Pix[off] = uint8(x * 255 / w)
			img.Pix[off+1] = uint8(y * 255 / h)
			img.Pix[off+2] = uint8((x + y) % 256)
			img.Pix[off+3] = 0xff
		}
	}
	return img
}

func makeSolidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestCompressDownscalesKeepingAspect(t *testing.T) {
	src := encodePNG(t, makeTestImage(3000, 1500))

	enc, err := NewImagingCodec().Compress(src, "wide.png", 88, 2400, 2400)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if enc.Width != 2400 || enc.Height != 1200 {
		t.Fatalf("size = %dx%d, want 2400x1200", enc.Width, enc.Height)
	}
	if enc.Filename != "wide.jpg" {
		t.Errorf("Filename = %q, want wide.jpg", enc.Filename)
	}
	if enc.ContentType != "image/jpeg" || enc.Size != int64(len(enc.Data)) {
		t.Errorf("unexpected content type %q / size %d", enc.ContentType, enc.Size)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(enc.Data))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if format != "jpeg" || cfg.Width != 2400 || cfg.Height != 1200 {
		t.Errorf("decoded %s %dx%d", format, cfg.Width, cfg.Height)
	}
}

func TestCompressNeverUpscales(t *testing.T) {
	src := encodePNG(t, makeTestImage(120, 80))

	enc, err := NewImagingCodec().Compress(src, "small.PNG", 85, 1920, 1920)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if enc.Width != 120 || enc.Height != 80 {
		t.Fatalf("size = %dx%d, want 120x80", enc.Width, enc.Height)
	}
}

func TestCompressFlattensAlphaOntoWhite(t *testing.T) {
	transparent := makeSolidImage(32, 32, color.NRGBA{R: 255, A: 0})
	src := encodePNG(t, transparent)

	enc, err := NewImagingCodec().Compress(src, "logo.png", 90, 1920, 1920)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	out, err := jpeg.Decode(bytes.NewReader(enc.Data))
	if err != nil {
		t.Fatalf("jpeg.Decode: %v", err)
	}
	if _, ok := out.(*image.YCbCr); !ok {
		t.Errorf("decoded type %T, want opaque *image.YCbCr", out)
	}
	r, g, b, a := out.At(16, 16).RGBA()
	if a != 0xffff {
		t.Errorf("alpha = %d, want opaque", a)
	}
	if r>>8 < 245 || g>>8 < 245 || b>>8 < 245 {
		t.Errorf("pixel = (%d,%d,%d), want white", r>>8, g>>8, b>>8)
	}
}

func TestCompressPalettedImage(t *testing.T) {
	pal := image.NewPaletted(image.Rect(0, 0, 10, 10), color.Palette{color.Transparent, color.Black})
	pal.SetColorIndex(0, 0, 1)
	src := encodePNG(t, pal)

	enc, err := NewImagingCodec().Compress(src, "pal.png", 85, 1920, 1920)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	out, err := jpeg.Decode(bytes.NewReader(enc.Data))
	if err != nil {
		t.Fatalf("jpeg.Decode: %v", err)
	}
	if r, _, _, _ := out.At(9, 9).RGBA(); r>>8 < 245 {
		t.Errorf("transparent palette entry should become white, got r=%d", r>>8)
	}
}

func TestCompressRejectsGarbage(t *testing.T) {
	_, err := NewImagingCodec().Compress([]byte("definitely not an image"), "fake.jpg", 85, 1920, 1920)
	var codecErr *CodecError
	if !errors.As(err, &codecErr) {
		t.Fatalf("err = %v, want *CodecError", err)
	}
	if codecErr.Filename != "fake.jpg" {
		t.Errorf("Filename = %q", codecErr.Filename)
	}
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, maxW, maxH int
		wantW, wantH     int
	}{
		{4000, 3000, 2400, 2400, 2400, 1800},
		{3000, 4000, 2400, 2400, 1800, 2400},
		{1920, 1080, 1920, 1920, 1920, 1080},
		{800, 600, 1920, 1920, 800, 600},
		{10000, 1, 2400, 2400, 2400, 1},
		{1, 10000, 1920, 1920, 1, 1920},
		{5000, 5000, 1920, 1080, 1080, 1080},
	}
	for _, tt := range tests {
		gotW, gotH := FitWithin(tt.w, tt.h, tt.maxW, tt.maxH)
		if gotW != tt.wantW || gotH != tt.wantH {
			t.Errorf("FitWithin(%d,%d,%d,%d) = %dx%d, want %dx%d",
				tt.w, tt.h, tt.maxW, tt.maxH, gotW, gotH, tt.wantW, tt.wantH)
		}
		if gotW > tt.maxW || gotH > tt.maxH {
			t.Errorf("FitWithin(%d,%d) exceeds bounds: %dx%d", tt.w, tt.h, gotW, gotH)
		}
	}
}

func TestJPEGFilename(t *testing.T) {
	cases := map[string]string{
		"photo.png":     "photo.jpg",
		"photo.JPEG":    "photo.jpg",
		"a.b.webp":      "a.b.jpg",
		"dir/shot.webp": "shot.jpg",
		"noext":         "noext.jpg",
	}
	for in, want := range cases {
		if got := JPEGFilename(in); got != want {
			t.Errorf("JPEGFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
