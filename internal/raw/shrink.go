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

	"github.com/nfnt/resize"
)

// Shrinks the image by an integer factor, averaging each factor x factor box.
// Partial boxes at the right and bottom edge are dropped.
func (img *Image) Shrink(factor int) (*Image, error) {
	if factor < 1 {
		return nil, fmt.Errorf("invalid shrink factor %d", factor)
	}
	if factor == 1 {
		out := img.newLike(img.Width, img.Height)
		copy(out.Data, img.Data)
		return out, nil
	}
	width, height := img.Width/factor, img.Height/factor
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("shrink factor %d too large for %s image", factor, img.DimensionsToString())
	}
	out := img.newLike(width, height)
	area := uint64(factor * factor)
	var sum [MaxColors]uint64
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sum = [MaxColors]uint64{}
			for dy := 0; dy < factor; dy++ {
				row := img.Row(y*factor + dy)[x*factor : (x+1)*factor]
				for _, p := range row {
					for c := 0; c < img.Colors; c++ {
						sum[c] += uint64(p[c])
					}
				}
			}
			var p Pixel
			for c := 0; c < img.Colors; c++ {
				p[c] = uint16(sum[c] / area)
			}
			out.Data[y*width+x] = p
		}
	}
	return out, nil
}

// Resizes the image so that its larger side equals size, using bilinear interpolation.
// The channels are carried through an RGBA64 image, which resize filters per channel.
func (img *Image) ResizeTo(size int) (*Image, error) {
	if size < 1 {
		return nil, fmt.Errorf("invalid preview size %d", size)
	}
	width, height := size, size
	if img.Width >= img.Height {
		height = img.Height * size / img.Width
	} else {
		width = img.Width * size / img.Height
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if width == img.Width && height == img.Height {
		return img.Shrink(1)
	}

	carrier := img.toRGBA64()
	scaled := resize.Resize(uint(width), uint(height), carrier, resize.Bilinear)
	dst, ok := scaled.(*image.RGBA64)
	if !ok {
		return nil, fmt.Errorf("unexpected resize output type %T", scaled)
	}
	return img.fromRGBA64(dst), nil
}

func (img *Image) toRGBA64() *image.RGBA64 {
	carrier := image.NewRGBA64(img.Bounds())
	for i, p := range img.Data {
		o := i * 8
		for c := 0; c < MaxColors; c++ {
			carrier.Pix[o+2*c] = uint8(p[c] >> 8)
			carrier.Pix[o+2*c+1] = uint8(p[c])
		}
	}
	return carrier
}

func (img *Image) fromRGBA64(src *image.RGBA64) *Image {
	b := src.Bounds()
	out := img.newLike(b.Dx(), b.Dy())
	for y := 0; y < out.Height; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+out.Width*8]
		for x := 0; x < out.Width; x++ {
			var p Pixel
			for c := 0; c < img.Colors; c++ {
				p[c] = uint16(row[x*8+2*c])<<8 | uint16(row[x*8+2*c+1])
				if int(p[c]) > img.RGBMax {
					p[c] = uint16(img.RGBMax)
				}
			}
			out.Data[y*out.Width+x] = p
		}
	}
	return out
}
