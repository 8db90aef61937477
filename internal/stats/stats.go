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

package stats

import (
	"fmt"
	"math"
)

// Running per-channel sums over developed 8-bit values
type Sums struct {
	Sum [3]uint64 // Sum of values
	Sqr [3]uint64 // Sum of squared values
}

// Adds one pixel
func (s *Sums) Add(r, g, b uint8) {
	s.Sum[0] += uint64(r)
	s.Sum[1] += uint64(g)
	s.Sum[2] += uint64(b)
	s.Sqr[0] += uint64(r) * uint64(r)
	s.Sqr[1] += uint64(g) * uint64(g)
	s.Sqr[2] += uint64(b) * uint64(b)
}

// Statistics of a developed preview frame, per R, G, B channel
type Statistics struct {
	Pixels int        // Number of pixels
	Mean   [3]float64 // Average value
	StdDev [3]float64 // Standard deviation
	Over   [3]float64 // Percentage of pixels at the maximum value
	Under  [3]float64 // Percentage of pixels at zero
	Mode   [3]int     // Histogram peak bin
}

// Derives statistics from the live histogram and running sums of a full pass.
// Standard deviation is sqrt(E[x^2]-E[x]^2), floored at zero against rounding
func NewStatistics(live *Histogram, sums *Sums, pixels int) *Statistics {
	s := &Statistics{Pixels: pixels}
	if pixels <= 0 {
		return s
	}
	n := float64(pixels)
	last := live.Len() - 1
	for c := 0; c < 3; c++ {
		mean := float64(sums.Sum[c]) / n
		variance := float64(sums.Sqr[c])/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		s.Mean[c] = mean
		s.StdDev[c] = math.Sqrt(variance)
		s.Over[c] = 100 * float64(live.Count(last, c)) / n
		s.Under[c] = 100 * float64(live.Count(0, c)) / n
		s.Mode[c], _ = live.Peak(c)
	}
	return s
}

// Pretty print statistics to string
func (s *Statistics) String() string {
	return fmt.Sprintf("Average %s StdDev %s Overexposed %s Underexposed %s",
		FormatPixel(s.Mean), FormatPixel(s.StdDev), FormatPercent(s.Over), FormatPercent(s.Under))
}

// Pretty print statistics to CSV header
func (s *Statistics) ToCSVHeader() string {
	return "Pixels,MeanR,MeanG,MeanB,StdDevR,StdDevG,StdDevB,OverR,OverG,OverB,UnderR,UnderG,UnderB"
}

// Pretty print statistics to CSV line item
func (s *Statistics) ToCSVLine() string {
	return fmt.Sprintf("%d,%.6g,%.6g,%.6g,%.6g,%.6g,%.6g,%.4g,%.4g,%.4g,%.4g,%.4g,%.4g", s.Pixels,
		s.Mean[0], s.Mean[1], s.Mean[2], s.StdDev[0], s.StdDev[1], s.StdDev[2],
		s.Over[0], s.Over[1], s.Over[2], s.Under[0], s.Under[1], s.Under[2])
}

// Formats three pixel values like the preview labels, e.g. "[128 64 32]"
func FormatPixel(v [3]float64) string {
	return fmt.Sprintf("[%3.f %3.f %3.f]", v[0], v[1], v[2])
}

// Formats three percentages with one decimal below 10%
func FormatPercent(v [3]float64) string {
	s := "["
	for c := 0; c < 3; c++ {
		if c > 0 {
			s += " "
		}
		if v[c] < 10 {
			s += fmt.Sprintf("%2.1f%%", v[c])
		} else {
			s += fmt.Sprintf("%2.0f%%", v[c])
		}
	}
	return s + "]"
}
