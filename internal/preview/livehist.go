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
	"github.com/mlnoga/rawpreview/internal/stats"
)

// Gray level of the quarter tone gridlines
const gridGray = 64

// Renders the live histogram into a (LiveBins+2)x(height+2) bitmap in the
// configured mode and scale, with gridlines at quarter tones behind the bars
func (p *Preview) renderLiveHistogram() {
	h := p.conf.LiveHistogramHeight
	p.liveBmp, _ = bitmap.Ensure(p.liveBmp, stats.LiveBins+2, h+2)
	b := p.liveBmp
	b.Clear()

	his := p.liveHist
	if p.conf.LiveHistogramScale == config.ScaleLog {
		his = his.LogScaled()
	}
	mode := p.conf.HistogramMode

	// The clipped end bins do not count towards scaling
	hisMax := 1
	for x := 1; x < stats.LiveBins-1; x++ {
		bin := his.Bins[x]
		switch mode {
		case config.HistogramRGB:
			for c := 0; c < 3; c++ {
				hisMax = maxInt(hisMax, bin[c])
			}
		case config.HistogramRGBStacked:
			hisMax = maxInt(hisMax, bin[0]+bin[1]+bin[2])
		default:
			hisMax = maxInt(hisMax, bin[stats.Combined])
		}
	}

	for x := 0; x < stats.LiveBins; x++ {
		bin := his.Bins[x]
		for y := 0; y < h; y++ {
			o := b.Offset(x+1, h-y)
			level := y * hisMax
			switch mode {
			case config.HistogramRGBStacked:
				if level < bin[0]*h {
					b.Pix[o] = 255
				} else if level < (bin[0]+bin[1])*h {
					b.Pix[o+1] = 255
				} else if level < (bin[0]+bin[1]+bin[2])*h {
					b.Pix[o+2] = 255
				}
			case config.HistogramRGB:
				for c := 0; c < 3; c++ {
					if level < bin[c]*h {
						b.Pix[o+c] = 255
					}
				}
			default:
				if level < bin[stats.Combined]*h {
					b.Pix[o], b.Pix[o+1], b.Pix[o+2] = 255, 255, 255
				}
			}
		}
	}

	for y := -1; y < h+1; y++ {
		for x := 64; x < stats.LiveBins-1; x += 64 {
			o := b.Offset(x+1, h-y)
			if b.Pix[o] == 0 && b.Pix[o+1] == 0 && b.Pix[o+2] == 0 {
				b.Pix[o], b.Pix[o+1], b.Pix[o+2] = gridGray, gridGray, gridGray
			}
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
