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
	"fmt"
	"image"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/mlnoga/rawpreview/internal/bitmap"
	"github.com/mlnoga/rawpreview/internal/config"
	"github.com/mlnoga/rawpreview/internal/raw"
)

// A spot region given by two corners in full image coordinates. A negative X1
// means no spot is selected
type Spot struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// The unselected spot
var NoSpot = Spot{-1, -1, -1, -1}

// Reports whether a spot is selected
func (s Spot) Valid() bool { return s.X1 >= 0 }

// Maps the spot onto a buffer of the given size, with predW x predH the size of the
// full image. Extents are floored at one pixel, the result is clipped to the buffer
func (s Spot) Rect(width, height, predW, predH int) image.Rectangle {
	sizeX := absInt(s.X1-s.X2)*width/predW + 1
	sizeY := absInt(s.Y1-s.Y2)*height/predH + 1
	startX := minInt(s.X1, s.X2) * width / predW
	startY := minInt(s.Y1, s.Y2) * height / predH
	r := image.Rect(startX, startY, startX+sizeX, startY+sizeY)
	return r.Intersect(image.Rect(0, 0, width, height))
}

// Current spot selection
func (p *Preview) Spot() Spot { return p.spot }

// Selects a spot in full image coordinates and samples it
func (p *Preview) SetSpot(s Spot) {
	if p.Frozen() {
		return
	}
	p.spot = s
	p.renderSpot()
}

// Clears the spot selection
func (p *Preview) ClearSpot() {
	if p.Frozen() {
		return
	}
	p.spot, p.spotOK = NoSpot, false
}

// Starts a spot drag gesture at x, y in preview frame coordinates
func (p *Preview) SpotPress(x, y int) {
	if p.Frozen() {
		return
	}
	ix, iy := p.frameToImage(x, y)
	p.spot = Spot{ix, iy, ix, iy}
	p.renderSpot()
}

// Moves the second corner of the spot to x, y in preview frame coordinates
func (p *Preview) SpotDrag(x, y int) {
	if p.Frozen() || !p.spot.Valid() {
		return
	}
	p.spot.X2, p.spot.Y2 = p.frameToImage(x, y)
	p.renderSpot()
}

// Finishes a spot drag gesture at x, y in preview frame coordinates
func (p *Preview) SpotRelease(x, y int) {
	p.SpotDrag(x, y)
}

// Converts preview frame coordinates to full image coordinates, clamped to the
// displayed frame. Before the first pass the base image size stands in for the frame
func (p *Preview) frameToImage(x, y int) (int, int) {
	w, h := p.img.Width, p.img.Height
	if p.frame != nil {
		w, h = p.frame.Width, p.frame.Height
	}
	x, y = clampInt(x, 0, w-1), clampInt(y, 0, h-1)
	return x * p.full.Width / w, y * p.full.Height / h
}

// Spot rectangle on a buffer of the given size. The developed frame keeps its size
// until the next pass restarts, so frame and base image may differ after a zoom
func (p *Preview) spotRect(width, height int) image.Rectangle {
	return p.spot.Rect(width, height, p.full.Width, p.full.Height)
}

// Averages the developed frame over the spot
func (p *Preview) renderSpot() {
	if p.Frozen() || !p.spot.Valid() || p.frame == nil || p.passes == 0 {
		return
	}
	r := p.spotRect(p.frame.Width, p.frame.Height)
	if r.Empty() {
		p.spotOK = false
		return
	}
	var sum [3]uint64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := p.frame.Row(y)
		for x := r.Min.X; x < r.Max.X; x++ {
			for c := 0; c < 3; c++ {
				sum[c] += uint64(row[3*x+c])
			}
		}
	}
	area := float64(r.Dx() * r.Dy())
	for c := 0; c < 3; c++ {
		p.spotAvg[c] = float64(sum[c]) / area
	}
	p.spotOK = true
}

// Average developed color over the spot. The second result is false if
// no spot is selected or no frame has been developed yet
func (p *Preview) SpotAverage() ([3]float64, bool) {
	return p.spotAvg, p.spotOK
}

// Spot average as a #RRGGBB color
func (p *Preview) SpotHex() (string, bool) {
	if !p.spotOK {
		return "", false
	}
	col := colorful.Color{R: float64(int(p.spotAvg[0])) / 255, G: float64(int(p.spotAvg[1])) / 255, B: float64(int(p.spotAvg[2])) / 255}
	return col.Hex(), true
}

// Returns a copy of the developed frame with the spot marked. The frame itself is unchanged
func (p *Preview) Composite() *bitmap.RGB {
	if p.frame == nil {
		return nil
	}
	out := p.frame.Clone()
	if p.spot.Valid() {
		out.MarkRect(p.spotRect(out.Width, out.Height))
	}
	return out
}

// Sums the raw channels of the base image over r and derives white balance multipliers
// area*rgbMax/sum. Multipliers of channels summing to zero are left unchanged
func channelMultipliers(img *raw.Image, r image.Rectangle, chanMul [raw.MaxColors]float64) [raw.MaxColors]float64 {
	var sum [raw.MaxColors]uint64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := img.Row(y)
		for x := r.Min.X; x < r.Max.X; x++ {
			for c := 0; c < img.Colors; c++ {
				sum[c] += uint64(row[x][c])
			}
		}
	}
	area := float64(r.Dx() * r.Dy())
	for c := 0; c < img.Colors; c++ {
		if sum[c] > 0 {
			chanMul[c] = area * float64(img.RGBMax) / float64(sum[c])
		}
	}
	if img.Colors < raw.MaxColors {
		chanMul[raw.MaxColors-1] = 0
	}
	return chanMul
}

// Derives white balance from the raw samples under the spot and re-renders
func (p *Preview) SpotWB() {
	if p.Frozen() || !p.spot.Valid() {
		return
	}
	r := p.spotRect(p.img.Width, p.img.Height)
	if r.Empty() {
		return
	}
	p.conf.ChanMul = channelMultipliers(p.img, r, p.conf.ChanMul)
	p.conf.WB = config.SpotWB
	m := p.conf.ChanMul
	fmt.Fprintf(p.ctx.Log, "Spot WB: channel multipliers = { %.3f, %.3f, %.3f, %.3f }\n", m[0], m[1], m[2], m[3])
	p.ParameterChanged()
}

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
