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

package raw

import (
	"fmt"
	"image"
)

// Maximum number of color channels per raw pixel
const MaxColors = 4

// A raw pixel. Holds up to MaxColors sensor channel samples, unused channels are zero
type Pixel [MaxColors]uint16

// A raw sensor image after color filter array interpolation. Read-only for the preview engine.
type Image struct {
	Width   int                // Width in pixels
	Height  int                // Height in pixels
	Colors  int                // Number of channels in use, 3 or 4
	RGBMax  int                // Maximum sample value
	ChanMul [MaxColors]float64 // Camera white balance multipliers as found on load, 0 if unknown
	Make    string             // Camera make from EXIF, if any
	Model   string             // Camera model from EXIF, if any

	Data []Pixel // Row-major pixel data, Width*Height entries
}

// Creates a new zeroed image with the given dimensions
func NewImage(width, height, colors, rgbMax int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Colors: colors,
		RGBMax: rgbMax,
		Data:   make([]Pixel, width*height),
	}
}

// Returns the pixels of row y. The slice aliases the image data
func (img *Image) Row(y int) []Pixel {
	return img.Data[y*img.Width : (y+1)*img.Width]
}

// Returns the pixel at x, y
func (img *Image) At(x, y int) Pixel {
	return img.Data[y*img.Width+x]
}

// Sets the pixel at x, y
func (img *Image) Set(x, y int, p Pixel) {
	img.Data[y*img.Width+x] = p
}

// Returns the image bounds as a rectangle anchored at the origin
func (img *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.Width, img.Height)
}

// Copies the metadata but not the pixels into a new image of the given size
func (img *Image) newLike(width, height int) *Image {
	out := NewImage(width, height, img.Colors, img.RGBMax)
	out.ChanMul, out.Make, out.Model = img.ChanMul, img.Make, img.Model
	return out
}

func (img *Image) DimensionsToString() string {
	return fmt.Sprintf("%dx%dx%d", img.Width, img.Height, img.Colors)
}

// Validates dimensions and sample range
func (img *Image) Check() error {
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("invalid raw image dimensions %dx%d", img.Width, img.Height)
	}
	if img.Colors < 3 || img.Colors > MaxColors {
		return fmt.Errorf("unsupported number of colors %d", img.Colors)
	}
	if img.RGBMax <= 0 || img.RGBMax > 0xFFFF {
		return fmt.Errorf("invalid rgbMax %d", img.RGBMax)
	}
	if len(img.Data) != img.Width*img.Height {
		return fmt.Errorf("raw data has %d pixels, want %d", len(img.Data), img.Width*img.Height)
	}
	return nil
}
