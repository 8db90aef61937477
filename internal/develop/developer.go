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

// Package develop turns raw sensor pixels into displayable 8-bit RGB.
package develop

import (
	"fmt"

	"github.com/mlnoga/rawpreview/internal/raw"
)

// Color pipeline consumed by the preview engine. Prepare must be called whenever
// any parameter changed, before the next full development pass
type Developer interface {
	// Resolves the given parameters into the internal state used by Develop
	Prepare(p *Params) error

	// Develops a row of raw pixels into 3*len(in) RGB bytes in out
	Develop(out []uint8, in []raw.Pixel)

	// Maximum raw sample value of the prepared parameters
	RGBMax() int

	// Effective white balance gain of channel c, including exposure
	WB(c int) float64
}

// Rendering intents
type Intent int

const (
	Perceptual Intent = iota
	RelativeColorimetric
	Saturation
	AbsoluteColorimetric
)

var intentNames = []string{"perceptual", "relative", "saturation", "absolute"}

func (i Intent) String() string {
	if i < 0 || int(i) >= len(intentNames) {
		return "unknown"
	}
	return intentNames[i]
}

// Parses an intent name
func IntentFromString(s string) (Intent, bool) {
	for i, n := range intentNames {
		if n == s {
			return Intent(i), true
		}
	}
	return Perceptual, false
}

func (i Intent) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *Intent) UnmarshalText(b []byte) error {
	v, ok := IntentFromString(string(b))
	if !ok {
		return fmt.Errorf("unknown rendering intent %q", string(b))
	}
	*i = v
	return nil
}

// Parameters of the color pipeline
type Params struct {
	RGBMax     int                       // Maximum raw sample value
	Exposure   float64                   // Exposure correction in EV
	Unclip     bool                      // Keep values above rgbMax after white balance
	ChanMul    [raw.MaxColors]float64    // White balance channel multipliers
	RGBCam     [3][raw.MaxColors]float64 // Camera to RGB matrix, all zero for the default
	Colors     int                       // Number of raw channels in use
	UseMatrix  bool                      // Apply RGBCam instead of the default matrix
	Input      Profile                   // Input profile, gamma and linearity
	Output     Profile                   // Output profile
	Intent     Intent                    // Rendering intent
	Saturation float64                   // Saturation, 1 is neutral
	BaseCurve  Curve                     // Base curve applied after the input profile
	Curve      Curve                     // Luminosity curve, anchor 0 is the black point
}
