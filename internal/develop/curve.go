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
	"sort"

	"gonum.org/v1/gonum/interp"
)

// A curve anchor in normalized [0,1] coordinates
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// A named tone curve through a list of anchors with increasing X
type Curve struct {
	Name   string  `json:"name"   yaml:"name"`
	Points []Point `json:"points" yaml:"points"`
}

// Returns the identity curve with the given name
func LinearCurve(name string) Curve {
	return Curve{Name: name, Points: []Point{{0, 0}, {1, 1}}}
}

// Returns a deep copy
func (c Curve) Clone() Curve {
	return Curve{Name: c.Name, Points: append([]Point(nil), c.Points...)}
}

// Checks that the curve has at least two anchors in [0,1] with strictly increasing X
func (c Curve) Check() error {
	if len(c.Points) < 2 {
		return fmt.Errorf("curve %q has %d anchors, need at least 2", c.Name, len(c.Points))
	}
	for i, p := range c.Points {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			return fmt.Errorf("curve %q anchor %d at (%g,%g) outside [0,1]", c.Name, i, p.X, p.Y)
		}
		if i > 0 && p.X <= c.Points[i-1].X {
			return fmt.Errorf("curve %q anchor %d has non-increasing x %g", c.Name, i, p.X)
		}
	}
	return nil
}

// Sorts anchors by X
func (c Curve) Sort() {
	sort.Slice(c.Points, func(i, j int) bool { return c.Points[i].X < c.Points[j].X })
}

// Fits an interpolator through the curve anchors. Two anchors interpolate linearly,
// more anchors use a monotone cubic so the curve never overshoots
func (c Curve) Fit() (func(x float64) float64, error) {
	if err := c.Check(); err != nil {
		return nil, err
	}
	xs, ys := make([]float64, len(c.Points)), make([]float64, len(c.Points))
	for i, p := range c.Points {
		xs[i], ys[i] = p.X, p.Y
	}
	var pred interp.FittablePredictor
	if len(c.Points) == 2 {
		pred = &interp.PiecewiseLinear{}
	} else {
		pred = &interp.FritschButland{}
	}
	if err := pred.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("curve %q: %w", c.Name, err)
	}
	first, last := c.Points[0], c.Points[len(c.Points)-1]
	return func(x float64) float64 {
		if x <= first.X {
			return first.Y
		}
		if x >= last.X {
			return last.Y
		}
		return clamp01(pred.Predict(x))
	}, nil
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
