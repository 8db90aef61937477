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
	"sort"

	"github.com/valyala/fastrand"
	"gonum.org/v1/gonum/stat"
)

// Default number of samples for approximate quantiles
const DefaultSamples = 64 * 1024

// Calculates approximate quantiles of n values by subsampling. value(i) returns
// the i-th value. If n is not larger than the number of samples, all values are used.
// Quantiles ps must lie in [0,1]
func SampledQuantiles(n, numSamples int, value func(i int) float64, ps ...float64) []float64 {
	res := make([]float64, len(ps))
	if n <= 0 {
		return res
	}
	var samples []float64
	if n <= numSamples {
		samples = make([]float64, n)
		for i := range samples {
			samples[i] = value(i)
		}
	} else {
		samples = make([]float64, numSamples)
		rng := fastrand.RNG{}
		rng.Seed(uint32(n))
		for i := range samples {
			samples[i] = value(int(rng.Uint32n(uint32(n))))
		}
	}
	sort.Float64s(samples)
	for i, p := range ps {
		res[i] = stat.Quantile(p, stat.Empirical, samples, nil)
	}
	return res
}
