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
	"testing"

	"github.com/valyala/fastrand"
	"gonum.org/v1/gonum/stat"
)

func TestRawBinClamping(t *testing.T) {
	tcs := []struct {
		sample, rgbMax, want int
	}{
		{0, 4095, 0},
		{4095, 4095, RawBins - 1},
		{4096, 4095, RawBins - 1},
		{-3, 4095, 0},
		{2047, 4095, 159},
		{255, 255, RawBins - 1},
		{1, 255, 1},
	}
	for _, tc := range tcs {
		if got := RawBin(tc.sample, tc.rgbMax); got != tc.want {
			t.Errorf("RawBin(%d,%d)=%d; want %d", tc.sample, tc.rgbMax, got, tc.want)
		}
	}
}

func TestAddClampsBin(t *testing.T) {
	h := NewHistogram(LiveBins)
	h.Add(LiveBins, 0)
	h.Add(-1, 1)
	h.Accumulate([]int{300, 0, 5})
	if h.Count(LiveBins-1, 0) != 2 {
		t.Errorf("top bin=%d; want 2", h.Count(LiveBins-1, 0))
	}
	if h.Count(0, 1) != 2 {
		t.Errorf("bottom bin=%d; want 2", h.Count(0, 1))
	}
	if h.Count(5, 2) != 1 {
		t.Errorf("bin 5=%d; want 1", h.Count(5, 2))
	}
	h.Reset()
	for c := 0; c < Channels; c++ {
		if h.Total(c) != 0 {
			t.Errorf("total(%d)=%d after reset; want 0", c, h.Total(c))
		}
	}
}

func TestLogScaledLeavesCountsUntouched(t *testing.T) {
	h := NewHistogram(4)
	h.Bins[1][0] = 10
	h.Bins[2][2] = 1000
	l := h.LogScaled()
	if h.Bins[1][0] != 10 || h.Bins[2][2] != 1000 {
		t.Errorf("receiver modified by LogScaled")
	}
	if want := int(math.Round(math.Log(11) * 1000)); l.Bins[1][0] != want {
		t.Errorf("log(1+10)*1000=%d; want %d", l.Bins[1][0], want)
	}
	if l.Bins[0][0] != 0 {
		t.Errorf("log of empty bin=%d; want 0", l.Bins[0][0])
	}
}

func TestStatisticsMatchGonum(t *testing.T) {
	rng := fastrand.RNG{}
	rng.Seed(42)
	h := NewHistogram(LiveBins)
	sums := Sums{}
	n := 5000
	xs := [3][]float64{}
	for i := 0; i < n; i++ {
		var px [3]uint8
		for c := 0; c < 3; c++ {
			px[c] = uint8(rng.Uint32n(256))
			h.Add(int(px[c]), c)
			xs[c] = append(xs[c], float64(px[c]))
		}
		sums.Add(px[0], px[1], px[2])
	}
	s := NewStatistics(h, &sums, n)
	for c := 0; c < 3; c++ {
		mean, std := stat.PopMeanStdDev(xs[c], nil)
		if math.Abs(s.Mean[c]-mean) > 1e-9 {
			t.Errorf("mean[%d]=%f; want %f", c, s.Mean[c], mean)
		}
		if math.Abs(s.StdDev[c]-std) > 1e-6 {
			t.Errorf("stddev[%d]=%f; want %f", c, s.StdDev[c], std)
		}
		over := 100 * float64(h.Count(LiveBins-1, c)) / float64(n)
		if s.Over[c] != over {
			t.Errorf("over[%d]=%f; want %f", c, s.Over[c], over)
		}
	}
}

func TestStatisticsEmpty(t *testing.T) {
	s := NewStatistics(NewHistogram(LiveBins), &Sums{}, 0)
	if s.Mean != [3]float64{} || s.StdDev != [3]float64{} {
		t.Errorf("expected zero statistics for empty frame, got %v", s)
	}
}

func TestFormatPercent(t *testing.T) {
	got := FormatPercent([3]float64{5.3, 12.4, 100})
	if want := "[5.3% 12% 100%]"; got != want {
		t.Errorf("FormatPercent=%q; want %q", got, want)
	}
}

func TestSampledQuantiles(t *testing.T) {
	n := 1000
	qs := SampledQuantiles(n, DefaultSamples, func(i int) float64 { return float64(i) }, 0, 0.5, 1)
	if qs[0] != 0 || qs[2] != float64(n-1) {
		t.Errorf("extreme quantiles=%v; want 0 and %d", qs, n-1)
	}
	if math.Abs(qs[1]-float64(n/2)) > 1 {
		t.Errorf("median=%f; want about %d", qs[1], n/2)
	}

	big := 200000
	qs = SampledQuantiles(big, 4096, func(i int) float64 { return float64(i) / float64(big) }, 0.5)
	if math.Abs(qs[0]-0.5) > 0.05 {
		t.Errorf("sampled median=%f; want about 0.5", qs[0])
	}
}
