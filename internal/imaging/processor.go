// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging validates and normalizes uploaded images.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// Supported image MIME types.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
)

// DefaultMaxDimension bounds the longest side of a normalized image.
const DefaultMaxDimension = 2400

// ErrUnsupportedFormat is returned for content that is not an allowed image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Result describes a processed image.
type Result struct {
	Data     []byte
	Width    int
	Height   int
	MimeType string
}

// Processor normalizes uploaded images using pure Go libraries.
type Processor struct {
	maxDimension int
	quality      int
}

// NewProcessor creates an image processor. A maxDimension <= 0 uses DefaultMaxDimension.
func NewProcessor(maxDimension int) *Processor {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Processor{maxDimension: maxDimension, quality: 90}
}

// Process decodes data and returns the bytes to store.
// JPEG and PNG images are re-encoded with EXIF orientation applied and scaled
// down to fit maxDimension. GIF and WebP are verified to decode and kept as-is,
// since re-encoding would drop GIF animation and there is no pure Go WebP encoder.
func (p *Processor) Process(data []byte) (*Result, error) {
	mimeType := DetectMimeType(data)
	if !IsAllowedType(mimeType) {
		return nil, ErrUnsupportedFormat
	}

	switch mimeType {
	case MimeTypeGIF, MimeTypeWebP:
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		return &Result{Data: data, Width: cfg.Width, Height: cfg.Height, MimeType: mimeType}, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if mimeType == MimeTypeJPEG {
		img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))
	}

	bounds := img.Bounds()
	if bounds.Dx() > p.maxDimension || bounds.Dy() > p.maxDimension {
		img = imaging.Fit(img, p.maxDimension, p.maxDimension, imaging.Lanczos)
	}

	out, err := p.encode(img, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	b := img.Bounds()
	return &Result{Data: out, Width: b.Dx(), Height: b.Dy(), MimeType: mimeType}, nil
}

// DetectMimeType sniffs the MIME type of data.
func DetectMimeType(data []byte) string {
	contentType := http.DetectContentType(data)
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return contentType
}

// IsAllowedType reports whether mimeType may be uploaded.
// TIFF is never accepted (CVE-2023-36308 in disintegration/imaging).
func IsAllowedType(mimeType string) bool {
	switch mimeType {
	case MimeTypeJPEG, MimeTypePNG, MimeTypeGIF, MimeTypeWebP:
		return true
	default:
		return false
	}
}

// Extension returns the file extension (with dot) for an allowed MIME type.
func Extension(mimeType string) string {
	switch mimeType {
	case MimeTypeJPEG:
		return ".jpg"
	case MimeTypePNG:
		return ".png"
	case MimeTypeGIF:
		return ".gif"
	case MimeTypeWebP:
		return ".webp"
	default:
		return ""
	}
}

func (p *Processor) encode(img image.Image, mimeType string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch mimeType {
	case MimeTypePNG:
		err = png.Encode(&buf, img)
	case MimeTypeGIF:
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.quality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// readExifOrientation reads the EXIF orientation tag.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}

	return orientation
}

// applyOrientation rotates or flips img so it displays upright.
// EXIF values: 2 flip H, 3 rotate 180, 4 flip V, 5 transpose, 6 rotate 90 CW,
// 7 transverse, 8 rotate 90 CCW.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
