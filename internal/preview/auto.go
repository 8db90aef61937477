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

package preview

import (
	"github.com/mlnoga/rawpreview/internal/develop"
	"github.com/mlnoga/rawpreview/internal/raw"
)

// Computes automatic adjustments from the preview base image
type Adjuster interface {
	// Exposure in EV for the given parameters
	Exposure(img *raw.Image, par *develop.Params) float64

	// Black point for the given parameters, already including exposure
	Black(img *raw.Image, par *develop.Params) float64
}

// Quantile based automatic adjustments
type DefaultAdjuster struct{}

var _ Adjuster = DefaultAdjuster{} // Compile time assertion: type implements the interface

func (DefaultAdjuster) Exposure(img *raw.Image, par *develop.Params) float64 {
	return develop.AutoExposure(img, par)
}

func (DefaultAdjuster) Black(img *raw.Image, par *develop.Params) float64 {
	return develop.AutoBlack(img, par)
}
