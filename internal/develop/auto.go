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

package develop

import (
	"math"

	"github.com/mlnoga/rawpreview/internal/raw"
	"github.com/mlnoga/rawpreview/internal/stats"
)

// Limits of automatic adjustments
const (
	AutoExposureMin = -3.0
	AutoExposureMax = 3.0
	AutoBlackMax    = 0.5
)

// Quantiles used by automatic adjustments
const (
	autoExposureQuantile = 0.99
	autoBlackQuantile    = 0.001
)

// Estimates the exposure in EV which maps the 99th percentile of white balanced
// per-pixel maxima to rgbMax. Clamped to [AutoExposureMin, AutoExposureMax]
func AutoExposure(img *raw.Image, par *Params) float64 {
	wb := normalizedWB(par)
	q := stats.SampledQuantiles(len(img.Data), stats.DefaultSamples, func(i int) float64 {
		px, max := img.Data[i], 0.0
		for c := 0; c < par.Colors; c++ {
			if v := float64(px[c]) * wb[c]; v > max {
				max = v
			}
		}
		return max
	}, autoExposureQuantile)[0]
	if q <= 0 {
		return AutoExposureMax
	}
	ev := math.Log2(float64(par.RGBMax) / q)
	return math.Max(AutoExposureMin, math.Min(AutoExposureMax, ev))
}

// Estimates the black point as the input profile encoding of the 0.1th percentile
// of exposed luminance. Clamped to [0, AutoBlackMax]
func AutoBlack(img *raw.Image, par *Params) float64 {
	wb := normalizedWB(par)
	gain := math.Exp2(par.Exposure) / float64(par.RGBMax)
	q := stats.SampledQuantiles(len(img.Data), stats.DefaultSamples, func(i int) float64 {
		px := img.Data[i]
		g := float64(px[1])
		if par.Colors == 4 {
			g = (g + float64(px[3])*wb[3]/wb[1]) / 2
		}
		lum := lumWeights[0]*float64(px[0])*wb[0] + lumWeights[1]*g*wb[1] + lumWeights[2]*float64(px[2])*wb[2]
		return math.Min(1, lum*gain)
	}, autoBlackQuantile)[0]
	black := par.Input.Encode(q)
	return math.Max(0, math.Min(AutoBlackMax, black))
}

// Channel multipliers relative to the smallest one, 1 where unset
func normalizedWB(par *Params) [raw.MaxColors]float64 {
	var wb [raw.MaxColors]float64
	min := math.MaxFloat64
	for c := 0; c < par.Colors; c++ {
		if par.ChanMul[c] > 0 && par.ChanMul[c] < min {
			min = par.ChanMul[c]
		}
	}
	for c := 0; c < par.Colors; c++ {
		if par.ChanMul[c] > 0 {
			wb[c] = par.ChanMul[c] / min
		} else {
			wb[c] = 1
		}
	}
	return wb
}
