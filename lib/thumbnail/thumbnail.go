// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package thumbnail renders the square preview images attached to
// review announcements. Input is JPEG or PNG; output is always PNG.
package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// Info describes a decodable image without decoding its pixels.
type Info struct {
	// Format is the registered decoder name, "jpeg" or "png".
	Format string
	Width  int
	Height int
}

// Inspect reads the image header and returns its format and pixel
// dimensions. It fails on data that is not a decodable JPEG or PNG.
func Inspect(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("thumbnail: decode image header: %w", err)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// Render decodes data and scales it to a size x size PNG. Aspect ratio
// is not preserved; review thumbnails are square by convention, like
// the emotes they preview.
func Render(data []byte, size int) ([]byte, error) {
	if size < 1 {
		return nil, fmt.Errorf("thumbnail: size must be positive, got %d", size)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("thumbnail: decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("thumbnail: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
