// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"
)

// createTestImage creates a simple test image with the given dimensions.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
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

func TestIsAllowedType(t *testing.T) {
	tests := []struct {
		mimeType string
		want     bool
	}{
		{MimeTypeJPEG, true},
		{MimeTypePNG, true},
		{MimeTypeGIF, true},
		{MimeTypeWebP, true},
		{"image/tiff", false},
		{"application/pdf", false},
		{"text/html", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			if got := IsAllowedType(tt.mimeType); got != tt.want {
				t.Errorf("IsAllowedType(%q) = %v, want %v", tt.mimeType, got, tt.want)
			}
		})
	}
}

func TestExtension(t *testing.T) {
	if Extension(MimeTypeJPEG) != ".jpg" || Extension(MimeTypeWebP) != ".webp" || Extension("text/plain") != "" {
		t.Error("unexpected extension mapping")
	}
}

func TestProcess_PNGDownscaled(t *testing.T) {
	p := NewProcessor(50)
	res, err := p.Process(encodePNG(t, createTestImage(200, 100)))
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if res.MimeType != MimeTypePNG {
		t.Errorf("MimeType = %s", res.MimeType)
	}
	if res.Width != 50 || res.Height != 25 {
		t.Errorf("dimensions = %dx%d, want 50x25", res.Width, res.Height)
	}
	if DetectMimeType(res.Data) != MimeTypePNG {
		t.Error("output is not PNG")
	}
}

func TestProcess_JPEGSmallKeepsSize(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, createTestImage(40, 30), nil); err != nil {
		t.Fatal(err)
	}
	res, err := NewProcessor(0).Process(buf.Bytes())
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if res.Width != 40 || res.Height != 30 || res.MimeType != MimeTypeJPEG {
		t.Errorf("result = %dx%d %s", res.Width, res.Height, res.MimeType)
	}
}

func TestProcess_GIFKeptAsIs(t *testing.T) {
	var buf bytes.Buffer
	if err := gif.Encode(&buf, createTestImage(10, 10), nil); err != nil {
		t.Fatal(err)
	}
	in := buf.Bytes()
	res, err := NewProcessor(0).Process(in)
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if !bytes.Equal(res.Data, in) {
		t.Error("GIF bytes should be stored unchanged")
	}
}

func TestProcess_Rejects(t *testing.T) {
	p := NewProcessor(0)

	if _, err := p.Process([]byte("<html><body>not an image</body></html>")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("html error = %v, want ErrUnsupportedFormat", err)
	}

	// Valid PNG signature, corrupt body.
	corrupt := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	if _, err := p.Process(corrupt); err == nil {
		t.Error("corrupt PNG should fail to decode")
	}
}

func TestApplyOrientation(t *testing.T) {
	img := createTestImage(40, 20)
	tests := []struct {
		orientation int
		wantW       int
		wantH       int
	}{
		{1, 40, 20},
		{3, 40, 20},
		{6, 20, 40},
		{8, 20, 40},
		{5, 20, 40},
		{7, 20, 40},
	}
	for _, tt := range tests {
		b := applyOrientation(img, tt.orientation).Bounds()
		if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
			t.Errorf("orientation %d: %dx%d, want %dx%d", tt.orientation, b.Dx(), b.Dy(), tt.wantW, tt.wantH)
		}
	}
}
