// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package bitmap holds 8-bit RGB pixel buffers for the preview frame and histograms.
package bitmap

import (
	"image"
	"image/color"
)

// An 8-bit RGB bitmap, row-major with three bytes per pixel
type RGB struct {
	Width  int
	Height int
	Stride int // Bytes per row
	Pix    []uint8
}

// Creates a zeroed bitmap
func New(width, height int) *RGB {
	return &RGB{
		Width:  width,
		Height: height,
		Stride: 3 * width,
		Pix:    make([]uint8, 3*width*height),
	}
}

// Returns a bitmap of the given dimensions. Reuses b if the dimensions match,
// otherwise allocates a new zeroed one. The second result is true on reallocation
func Ensure(b *RGB, width, height int) (*RGB, bool) {
	if b != nil && b.Width == width && b.Height == height {
		return b, false
	}
	return New(width, height), true
}

// Zeroes all pixels
func (b *RGB) Clear() {
	for i := range b.Pix {
		b.Pix[i] = 0
	}
}

// Returns the bytes of row y. The slice aliases the bitmap
func (b *RGB) Row(y int) []uint8 {
	return b.Pix[y*b.Stride : y*b.Stride+3*b.Width]
}

// Byte offset of pixel x, y
func (b *RGB) Offset(x, y int) int {
	return y*b.Stride + 3*x
}

// Returns the pixel at x, y
func (b *RGB) At(x, y int) (r, g, bl uint8) {
	o := b.Offset(x, y)
	return b.Pix[o], b.Pix[o+1], b.Pix[o+2]
}

// Sets the pixel at x, y
func (b *RGB) Set(x, y int, r, g, bl uint8) {
	o := b.Offset(x, y)
	b.Pix[o], b.Pix[o+1], b.Pix[o+2] = r, g, bl
}

// Returns a deep copy
func (b *RGB) Clone() *RGB {
	c := *b
	c.Pix = append([]uint8(nil), b.Pix...)
	return &c
}

// Reports whether both bitmaps have identical dimensions and pixels
func (b *RGB) Equal(o *RGB) bool {
	if b.Width != o.Width || b.Height != o.Height {
		return false
	}
	for y := 0; y < b.Height; y++ {
		br, or := b.Row(y), o.Row(y)
		for i := range br {
			if br[i] != or[i] {
				return false
			}
		}
	}
	return true
}

// Converts to a Go image for encoding
func (b *RGB) ToRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		row := b.Row(y)
		for x := 0; x < b.Width; x++ {
			img.SetRGBA(x, y, color.RGBA{row[3*x], row[3*x+1], row[3*x+2], 255})
		}
	}
	return img
}
