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

package config

import "fmt"

// Tri-state of an automatic adjustment
type AutoState int

const (
	AutoDisabled AutoState = iota // Not active
	AutoEnabled                   // Active, result is current
	AutoApply                     // Active, result must be recomputed on the next render
)

var autoNames = []string{"disabled", "enabled", "apply"}

func (a AutoState) String() string { return enumName(autoNames, int(a)) }

func (a AutoState) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *AutoState) UnmarshalText(b []byte) error {
	i, err := enumParse(autoNames, string(b), "auto state")
	*a = AutoState(i)
	return err
}

// Marks an enabled adjustment for recomputation
func (a *AutoState) Invalidate() {
	if *a == AutoEnabled {
		*a = AutoApply
	}
}

// Live histogram modes
type HistogramMode int

const (
	HistogramRGB HistogramMode = iota
	HistogramRGBStacked
	HistogramLuminosity
	HistogramValue
	HistogramSaturation
)

var histogramModeNames = []string{"rgb", "r+g+b", "luminosity", "value", "saturation"}

func (m HistogramMode) String() string { return enumName(histogramModeNames, int(m)) }

func (m HistogramMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *HistogramMode) UnmarshalText(b []byte) error {
	i, err := enumParse(histogramModeNames, string(b), "histogram mode")
	*m = HistogramMode(i)
	return err
}

// Histogram display scales
type Scale int

const (
	ScaleLinear Scale = iota
	ScaleLog
)

var scaleNames = []string{"linear", "log"}

func (s Scale) String() string { return enumName(scaleNames, int(s)) }

func (s Scale) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Scale) UnmarshalText(b []byte) error {
	i, err := enumParse(scaleNames, string(b), "histogram scale")
	*s = Scale(i)
	return err
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("unknown(%d)", i)
	}
	return names[i]
}

func enumParse(names []string, s, what string) (int, error) {
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", what, s)
}
