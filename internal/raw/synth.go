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
	"github.com/valyala/fastrand"
)

// Sensor response of the synthetic camera, relative to green. Inverse of its daylight multipliers
var chartResponse = [MaxColors]float64{0.5, 1, 0.7, 1}

// Patch colors in the lower half of the test chart, as linear fractions of full scale
var chartPatches = [][3]float64{
	{0.60, 0.10, 0.08}, {0.12, 0.50, 0.10}, {0.08, 0.12, 0.55},
	{0.55, 0.50, 0.05}, {0.45, 0.30, 0.20}, {0.90, 0.90, 0.90},
}

// Generates a synthetic test chart: a horizontal grey ramp in the upper half, and a row of
// colored patches in the lower half, with uniform noise of the given relative amplitude.
// Channel samples include the synthetic sensor response, so ChanMul neutralizes grey.
func NewTestChart(width, height, colors, rgbMax int, noise float64, seed uint32) *Image {
	img := NewImage(width, height, colors, rgbMax)
	for c := 0; c < colors; c++ {
		img.ChanMul[c] = 1 / chartResponse[c]
	}
	img.Make, img.Model = "rawpreview", "test chart"

	rng := fastrand.RNG{}
	rng.Seed(seed)
	amplitude := uint32(noise * float64(rgbMax))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var lin [MaxColors]float64
			if y < height/2 {
				v := float64(x) / (float64(width-1) + 1e-9)
				lin = [MaxColors]float64{v, v, v, v}
			} else {
				patch := chartPatches[x*len(chartPatches)/width]
				lin = [MaxColors]float64{patch[0], patch[1], patch[2], patch[1]}
			}
			var p Pixel
			for c := 0; c < colors; c++ {
				v := lin[c] * chartResponse[c] * float64(rgbMax)
				if amplitude > 0 {
					v += float64(rng.Uint32n(2*amplitude+1)) - float64(amplitude)
				}
				if v < 0 {
					v = 0
				}
				if v > float64(rgbMax) {
					v = float64(rgbMax)
				}
				p[c] = uint16(v + 0.5)
				if int(p[c]) > rgbMax {
					p[c] = uint16(rgbMax)
				}
			}
			img.Data[y*width+x] = p
		}
	}
	return img
}
