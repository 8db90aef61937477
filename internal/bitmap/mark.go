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

package bitmap

import "image"

// Darkens or lightens the pixel at x, y in a checkered pattern so the mark
// stays visible on any background. Coordinates outside the bitmap are ignored
func (b *RGB) Mark(x, y int) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	o := b.Offset(x, y)
	for c := 0; c < 3; c++ {
		if (x+y)%2 == 0 {
			b.Pix[o+c] = b.Pix[o+c] / 4
		} else {
			b.Pix[o+c] = 255 - (255-b.Pix[o+c])/4
		}
	}
}

// Draws a checkered frame one pixel outside of the given rectangle
func (b *RGB) MarkRect(r image.Rectangle) {
	sizeX, sizeY := r.Dx(), r.Dy()
	for x := 0; x <= sizeX; x++ {
		b.Mark(r.Min.X+x, r.Min.Y-1)
		b.Mark(r.Min.X+x, r.Min.Y+sizeY)
	}
	for y := -1; y <= sizeY; y++ {
		b.Mark(r.Min.X-1, r.Min.Y+y)
		b.Mark(r.Min.X+sizeX, r.Min.Y+y)
	}
}
