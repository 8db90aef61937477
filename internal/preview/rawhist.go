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
	"github.com/mlnoga/rawpreview/internal/bitmap"
	"github.com/mlnoga/rawpreview/internal/config"
	"github.com/mlnoga/rawpreview/internal/raw"
	"github.com/mlnoga/rawpreview/internal/stats"
)

// Renders the raw histogram of the preview base image into a (RawBins+2)x(height+2)
// bitmap: stacked per-channel bars in the display color of each channel, overlaid
// with the developed response of each channel for gray and for pure channel input
func (p *Preview) renderRawHistogram() {
	h := p.conf.RawHistogramHeight
	p.rawBmp, _ = bitmap.Ensure(p.rawBmp, stats.RawBins+2, h+2)
	b := p.rawBmp
	b.Clear()

	img, colors := p.img, p.img.Colors
	p.rawHist.Reset()
	for _, px := range img.Data {
		for c := 0; c < colors; c++ {
			p.rawHist.Add(stats.RawBin(int(px[c]), img.RGBMax), c)
		}
	}
	his := p.rawHist
	if p.conf.RawHistogramScale == config.ScaleLog {
		his = his.LogScaled()
	}
	hisMax := 1
	for _, bin := range his.Bins {
		sum := 0
		for c := 0; c < colors; c++ {
			sum += bin[c]
		}
		if sum > hisMax {
			hisMax = sum
		}
	}

	rgbMax := p.dev.RGBMax()
	var pens [raw.MaxColors][3]uint8
	for c := 0; c < colors; c++ {
		var px raw.Pixel
		px[c] = clampSample(rgbMax)
		pens[c] = p.developPixel(px)
	}

	for x := 0; x < stats.RawBins; x++ {
		y0 := 0
		for c := 0; c < colors; c++ {
			n := his.Bins[x][c] * h / hisMax
			for y := 0; y < n; y++ {
				setPixel(b, x+1, h-y-y0, pens[c])
			}
			y0 += n
		}

		for c := 0; c < colors; c++ {
			pen := pens[c]
			half := [3]uint8{pen[0] / 2, pen[1] / 2, pen[2] / 2}
			// Gray target at x and x+1, as seen by channel c after white balance
			y := p.probeY(p.grayProbe(x, c, 0), h)
			y1 := p.probeY(p.grayProbe(x+1, c, 1), h)
			for ; y <= y1; y++ {
				setPixel(b, x+1, h-y, pen)
			}
			// Pure channel c at x and x+1
			y1 = p.probeY(pureProbe(x, c, rgbMax, 0), h)
			for ; y < y1; y++ {
				setPixel(b, x+1, h-y, half)
			}
			y1 = p.probeY(pureProbe(x+1, c, rgbMax, 1), h)
			for ; y <= y1; y++ {
				setPixel(b, x+1, h-y, pen)
			}
		}
	}
}

// Raw pixel of a gray target at bin x, scaled so channel c reaches the bin value
// after white balance. The offset is subtracted from each sample, floored at 0
func (p *Preview) grayProbe(x, c, offset int) raw.Pixel {
	var px raw.Pixel
	wbc := p.dev.WB(c)
	for cl := 0; cl < p.img.Colors; cl++ {
		wbcl := p.dev.WB(cl)
		if wbcl <= 0 {
			continue
		}
		v := int(float64(x)*float64(p.dev.RGBMax())*wbc/wbcl/stats.RawBins) - offset
		px[cl] = clampSample(v)
	}
	return px
}

// Raw pixel with only channel c set to the value of bin x, minus offset
func pureProbe(x, c, rgbMax, offset int) raw.Pixel {
	var px raw.Pixel
	px[c] = clampSample(x*rgbMax/stats.RawBins - offset)
	return px
}

// Developed height of a probe, max(R,G,B) scaled to [0, h-1]
func (p *Preview) probeY(px raw.Pixel, h int) int {
	rgb := p.developPixel(px)
	m := rgb[0]
	if rgb[1] > m {
		m = rgb[1]
	}
	if rgb[2] > m {
		m = rgb[2]
	}
	return int(m) * (h - 1) / 255
}

func (p *Preview) developPixel(px raw.Pixel) [3]uint8 {
	var out [3]uint8
	p.dev.Develop(out[:], []raw.Pixel{px})
	return out
}

func clampSample(v int) uint16 {
	if v < 0 {
		return 0
	}
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}

// Sets a pixel, ignoring coordinates outside the bitmap
func setPixel(b *bitmap.RGB, x, y int, c [3]uint8) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	b.Set(x, y, c[0], c[1], c[2])
}
