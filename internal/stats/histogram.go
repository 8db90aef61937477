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
	"math"
)

// Number of histogram bins
const (
	RawBins  = 320 // Raw sensor value histogram
	LiveBins = 256 // Developed 8-bit value histogram
)

// Number of channels per histogram bin. Raw histograms use up to four sensor channels,
// live histograms use R, G, B and a combined channel selected by the histogram mode
const Channels = 4

// Index of the combined channel in a live histogram
const Combined = 3

// A histogram of per-channel counts in fixed size bins
type Histogram struct {
	Bins [][Channels]int
}

// Creates a zeroed histogram with the given number of bins
func NewHistogram(bins int) *Histogram {
	return &Histogram{Bins: make([][Channels]int, bins)}
}

// Number of bins
func (h *Histogram) Len() int { return len(h.Bins) }

// Zeroes all bins
func (h *Histogram) Reset() {
	for i := range h.Bins {
		h.Bins[i] = [Channels]int{}
	}
}

// Increments the count of channel c in the given bin. The bin is clamped into range
func (h *Histogram) Add(bin, c int) {
	h.Bins[h.clamp(bin)][c]++
}

// Increments one bin per channel, with bins[c] the bin index for channel c
func (h *Histogram) Accumulate(bins []int) {
	for c, bin := range bins {
		h.Bins[h.clamp(bin)][c]++
	}
}

func (h *Histogram) clamp(bin int) int {
	if bin < 0 {
		return 0
	}
	if bin >= len(h.Bins) {
		return len(h.Bins) - 1
	}
	return bin
}

// Returns the count of channel c in the given bin
func (h *Histogram) Count(bin, c int) int { return h.Bins[bin][c] }

// Returns the total count of channel c over all bins
func (h *Histogram) Total(c int) int {
	total := 0
	for _, b := range h.Bins {
		total += b[c]
	}
	return total
}

// Returns a deep copy
func (h *Histogram) Clone() *Histogram {
	return &Histogram{Bins: append([][Channels]int(nil), h.Bins...)}
}

// Returns a display copy with each count n replaced by round(log(1+n)*1000).
// The receiver is not modified, so statistics keep using the linear counts
func (h *Histogram) LogScaled() *Histogram {
	out := h.Clone()
	for i := range out.Bins {
		for c := range out.Bins[i] {
			out.Bins[i][c] = LogCount(out.Bins[i][c])
		}
	}
	return out
}

// Logarithmic display transform of a single count
func LogCount(n int) int {
	return int(math.Round(math.Log(1+float64(n)) * 1000))
}

// Reports whether both histograms hold identical counts
func (h *Histogram) Equal(o *Histogram) bool {
	if len(h.Bins) != len(o.Bins) {
		return false
	}
	for i := range h.Bins {
		if h.Bins[i] != o.Bins[i] {
			return false
		}
	}
	return true
}

// Bin of a raw sample: sample*(RawBins-1)/rgbMax, clamped to [0, RawBins-1]
func RawBin(sample, rgbMax int) int {
	if rgbMax <= 0 {
		return 0
	}
	bin := sample * (RawBins - 1) / rgbMax
	if bin < 0 {
		return 0
	}
	if bin > RawBins-1 {
		return RawBins - 1
	}
	return bin
}

// Returns the bin and count of the histogram peak for channel c
func (h *Histogram) Peak(c int) (bin, count int) {
	bin, count = -1, math.MinInt32
	for i, b := range h.Bins {
		if b[c] > count {
			bin, count = i, b[c]
		}
	}
	return bin, count
}
