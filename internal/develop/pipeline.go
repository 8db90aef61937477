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
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mlnoga/rawpreview/internal/raw"
)

// Luminance weights used for saturation and perceptual gamut mapping
var lumWeights = [3]float64{0.3, 0.59, 0.11}

// Size of the tone lookup table
const lutSize = 0x10000

// Reference color pipeline: white balance and exposure, color matrix with saturation,
// gamut mapping by intent, then a tone lookup table baking the input profile, base
// curve, luminosity curve and output profile
type Pipeline struct {
	rgbMax float64
	colors int
	unclip bool
	intent Intent
	wb     [raw.MaxColors]float64
	matrix [3][raw.MaxColors]float64
	lut    []uint8
}

var _ Developer = (*Pipeline)(nil) // Compile time assertion: type implements the interface

// Creates an unprepared pipeline
func NewPipeline() *Pipeline {
	return &Pipeline{lut: make([]uint8, lutSize)}
}

func (p *Pipeline) RGBMax() int { return int(p.rgbMax) }

func (p *Pipeline) WB(c int) float64 { return p.wb[c] }

// Resolves parameters into gains, matrix and lookup table
func (p *Pipeline) Prepare(par *Params) error {
	if par.RGBMax <= 0 {
		return fmt.Errorf("invalid rgbMax %d", par.RGBMax)
	}
	if par.Colors < 3 || par.Colors > raw.MaxColors {
		return fmt.Errorf("unsupported number of colors %d", par.Colors)
	}
	base, err := par.BaseCurve.Fit()
	if err != nil {
		return fmt.Errorf("base curve: %w", err)
	}
	lum, err := par.Curve.Fit()
	if err != nil {
		return fmt.Errorf("luminosity curve: %w", err)
	}

	p.rgbMax, p.colors, p.unclip, p.intent = float64(par.RGBMax), par.Colors, par.Unclip, par.Intent
	if err := p.prepareWB(par); err != nil {
		return err
	}
	p.prepareMatrix(par)

	in := newTransfer(par.Input)
	for i := range p.lut {
		y := in.encode(float64(i) / (lutSize - 1))
		y = lum(base(y))
		if par.Output.Name == ProfileLinear {
			y = in.decode(y)
		}
		p.lut[i] = uint8(math.Round(clamp01(y) * 255))
	}
	return nil
}

// Normalizes channel multipliers to the smallest one and applies exposure
func (p *Pipeline) prepareWB(par *Params) error {
	min := math.MaxFloat64
	for c := 0; c < par.Colors; c++ {
		if par.ChanMul[c] <= 0 {
			return fmt.Errorf("invalid channel multiplier %d: %g", c, par.ChanMul[c])
		}
		if par.ChanMul[c] < min {
			min = par.ChanMul[c]
		}
	}
	gain := math.Exp2(par.Exposure)
	for c := range p.wb {
		if c < par.Colors {
			p.wb[c] = par.ChanMul[c] / min * gain
		} else {
			p.wb[c] = 0
		}
	}
	return nil
}

// Composes the saturation matrix with the camera to RGB matrix
func (p *Pipeline) prepareMatrix(par *Params) {
	colors := par.Colors
	cam := mat.NewDense(3, colors, nil)
	if par.UseMatrix && !isZero(par.RGBCam) {
		for r := 0; r < 3; r++ {
			for c := 0; c < colors; c++ {
				cam.Set(r, c, par.RGBCam[r][c])
			}
		}
	} else {
		cam.Set(0, 0, 1)
		cam.Set(2, 2, 1)
		if colors == 4 {
			cam.Set(1, 1, 0.5)
			cam.Set(1, 3, 0.5)
		} else {
			cam.Set(1, 1, 1)
		}
	}

	s := par.Saturation
	sat := mat.NewDense(3, 3, nil)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			v := (1 - s) * lumWeights[c]
			if r == c {
				v += s
			}
			sat.Set(r, c, v)
		}
	}

	var m mat.Dense
	m.Mul(sat, cam)
	p.matrix = [3][raw.MaxColors]float64{}
	for r := 0; r < 3; r++ {
		for c := 0; c < colors; c++ {
			p.matrix[r][c] = m.At(r, c)
		}
	}
}

func isZero(m [3][raw.MaxColors]float64) bool {
	for _, row := range m {
		for _, v := range row {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

// Develops a row of raw pixels into RGB bytes
func (p *Pipeline) Develop(out []uint8, in []raw.Pixel) {
	for i, px := range in {
		var v [raw.MaxColors]float64
		for c := 0; c < p.colors; c++ {
			x := float64(px[c]) * p.wb[c]
			if !p.unclip && x > p.rgbMax {
				x = p.rgbMax
			}
			v[c] = x / p.rgbMax
		}

		var rgb [3]float64
		for r := 0; r < 3; r++ {
			sum := 0.0
			for c := 0; c < p.colors; c++ {
				sum += p.matrix[r][c] * v[c]
			}
			rgb[r] = sum
		}
		if p.intent == Perceptual {
			rgb = mapToGamut(rgb)
		}

		o := out[3*i : 3*i+3]
		for r := 0; r < 3; r++ {
			o[r] = p.lut[lutIndex(rgb[r])]
		}
	}
}

func lutIndex(x float64) int {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return lutSize - 1
	}
	return int(x*(lutSize-1) + 0.5)
}

// Moves an out of gamut color towards its luminance until it fits into [0,1]
func mapToGamut(rgb [3]float64) [3]float64 {
	lum := lumWeights[0]*rgb[0] + lumWeights[1]*rgb[1] + lumWeights[2]*rgb[2]
	if lum >= 1 {
		return [3]float64{1, 1, 1}
	}
	if lum <= 0 {
		return [3]float64{}
	}
	min, max := math.Min(rgb[0], math.Min(rgb[1], rgb[2])), math.Max(rgb[0], math.Max(rgb[1], rgb[2]))
	t := 1.0
	if max > 1 {
		t = (1 - lum) / (max - lum)
	}
	if min < 0 {
		t = math.Min(t, lum/(lum-min))
	}
	if t >= 1 {
		return rgb
	}
	for c := range rgb {
		rgb[c] = lum + t*(rgb[c]-lum)
	}
	return rgb
}
