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

	colorful "github.com/lucasb-eyer/go-colorful"
)

// A color profile. For input profiles, Gamma and Linear describe the transfer curve
// from linear light to display values. A gamma of zero or less selects sRGB companding
type Profile struct {
	Name      string  `json:"name"      yaml:"name"`
	Gamma     float64 `json:"gamma"     yaml:"gamma"`
	Linear    float64 `json:"linear"    yaml:"linear"`
	UseMatrix bool    `json:"useMatrix" yaml:"useMatrix"`
}

// Output profile names
const (
	ProfileSRGB   = "sRGB"
	ProfileLinear = "linear"
)

// Defaults of the built-in input profile
const (
	DefaultGamma  = 0.45
	DefaultLinear = 0.10
)

// Default input profile, gamma 0.45 with a linear toe of 0.1
func DefaultInputProfile() Profile {
	return Profile{Name: "No profile", Gamma: DefaultGamma, Linear: DefaultLinear, UseMatrix: true}
}

// Input profile with sRGB companding
func SRGBInputProfile() Profile {
	return Profile{Name: ProfileSRGB, Gamma: 0, Linear: 0}
}

// A transfer curve from linear light to display values, y=c*x below the linear
// threshold and y=(a*x+b)^g above it, continuous at the threshold and mapping 1 to 1
type transfer struct {
	srgb    bool
	a, b, c float64
	g       float64
	linear  float64
}

func newTransfer(p Profile) transfer {
	if p.Gamma <= 0 {
		return transfer{srgb: true}
	}
	if p.Linear <= 0 || p.Linear >= 1 || p.Gamma >= 1 {
		return transfer{a: 1, b: 0, c: 1, g: p.Gamma}
	}
	g := p.Gamma * (1 - p.Linear) / (1 - p.Gamma*p.Linear)
	a := 1 / (1 + p.Linear*(g-1))
	b := p.Linear * (g - 1) * a
	c := math.Pow(a*p.Linear+b, g) / p.Linear
	return transfer{a: a, b: b, c: c, g: g, linear: p.Linear}
}

// Encodes linear light x in [0,1]
func (t transfer) encode(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if t.srgb {
		return colorful.LinearRgb(x, x, x).R
	}
	if x < t.linear {
		return t.c * x
	}
	return math.Pow(t.a*x+t.b, t.g)
}

// Decodes display value y in [0,1] back to linear light
func (t transfer) decode(y float64) float64 {
	if y <= 0 {
		return 0
	}
	if t.srgb {
		l, _, _ := colorful.Color{R: y, G: y, B: y}.LinearRgb()
		return l
	}
	if y < t.c*t.linear {
		return y / t.c
	}
	return (math.Pow(y, 1/t.g) - t.b) / t.a
}

// Encodes linear light under the given input profile
func (p Profile) Encode(x float64) float64 {
	return newTransfer(p).encode(x)
}

// Decodes a display value under the given input profile
func (p Profile) Decode(y float64) float64 {
	return newTransfer(p).decode(y)
}
