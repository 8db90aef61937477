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

	"github.com/mlnoga/rawpreview/internal/bitmap"
	"github.com/mlnoga/rawpreview/internal/config"
	"github.com/mlnoga/rawpreview/internal/stats"
)

// Triggers a render in the given mode: the raw histogram stage runs on the next
// loop iteration, then the chunked development pass. Any scheduled stage of this
// preview is cancelled first
func (p *Preview) Render(mode RenderMode) {
	if p.Frozen() {
		return
	}
	p.mode = mode
	p.loop.RemoveByOwner(p)
	p.loop.AddIdle(p, p.rawHistogramStage)
}

// Marks the configuration as changed: enabled automatic adjustments are
// recomputed and a fresh default render is triggered
func (p *Preview) ParameterChanged() {
	if p.Frozen() {
		return
	}
	p.conf.InvalidateAuto()
	p.update()
}

// Restarts rendering after a configuration change that already took care of
// automatic adjustment states
func (p *Preview) update() {
	if p.Frozen() {
		return
	}
	p.state = stateRestartRequested
	p.Render(RenderDefault)
}

// Current render mode
func (p *Preview) Mode() RenderMode { return p.mode }

// Fraction of rows developed in the current pass, 1 when idle
func (p *Preview) Progress() float64 {
	switch p.state {
	case stateRunning:
		if p.cursor.height == 0 {
			return 1
		}
		return float64(p.cursor.y) / float64(p.cursor.height)
	case stateRestartRequested:
		return 0
	}
	return 1
}

// Raw histogram stage. Applies pending automatic adjustments, prepares the
// developer, renders the raw histogram and schedules the development pass
func (p *Preview) rawHistogramStage() bool {
	if p.Frozen() {
		return false
	}
	p.applyAuto()
	if err := p.dev.Prepare(p.conf.Params(p.img)); err != nil {
		fmt.Fprintf(p.ctx.Log, "Error preparing developer: %s\n", err.Error())
		p.state = stateIdle
		return false
	}
	p.renderRawHistogram()
	p.state = stateRestartRequested
	p.loop.AddIdle(p, p.developStage)
	return false
}

// Development stage. Each call develops up to one chunk of rows and returns true
// while rows remain
func (p *Preview) developStage() bool {
	if p.Frozen() {
		return false
	}
	switch p.state {
	case stateIdle:
		return false
	case stateRestartRequested:
		p.restart()
	}
	if p.developChunk() {
		return true
	}
	p.finish()
	return false
}

// Discards the cursor and starts again from row 0
func (p *Preview) restart() {
	var realloc bool
	p.frame, realloc = bitmap.Ensure(p.frame, p.img.Width, p.img.Height)
	if realloc {
		fmt.Fprintf(p.ctx.Log, "Allocated %dx%d preview frame\n", p.img.Width, p.img.Height)
	}
	p.cursor.reset(p.img.Width, p.img.Height)
	p.state = stateRunning
}

// Develops rows from the cursor up to the next chunk boundary. Returns true if
// rows remain, after invalidating the processed band
func (p *Preview) developChunk() bool {
	c := &p.cursor
	chunk := p.conf.ChunkRows
	if chunk < 1 {
		chunk = config.DefaultChunkRows
	}
	for ; c.y < c.height; c.y++ {
		p.developRow(c.y)
		if c.y%chunk == chunk-1 && c.y+1 < c.height {
			p.invalidate(c.y0, c.y+1)
			c.y++
			c.y0 = c.y
			return true
		}
	}
	return false
}

// Develops row y into the frame, accumulating the live histogram and sums and
// applying the highlight policy of the render mode
func (p *Preview) developRow(y int) {
	c := &p.cursor
	row := p.frame.Row(y)
	p.dev.Develop(row, p.img.Row(y))
	histMode := p.conf.HistogramMode
	overExp, underExp := p.conf.OverExp, p.conf.UnderExp
	for x := 0; x < c.width; x++ {
		px := row[3*x : 3*x+3]
		min, max := 255, 0
		for ch := 0; ch < 3; ch++ {
			v := int(px[ch])
			if v > max {
				max = v
			}
			if v < min {
				min = v
			}
			c.live.Add(v, ch)
		}
		switch histMode {
		case config.HistogramLuminosity:
			c.live.Add(int(0.3*float64(px[0])+0.59*float64(px[1])+0.11*float64(px[2])), stats.Combined)
		case config.HistogramValue:
			c.live.Add(max, stats.Combined)
		case config.HistogramSaturation:
			if max == 0 {
				c.live.Add(0, stats.Combined)
			} else {
				c.live.Add(255*(max-min)/max, stats.Combined)
			}
		}
		c.sums.Add(px[0], px[1], px[2])

		for ch := 0; ch < 3; ch++ {
			o := px[ch]
			switch p.mode {
			case RenderDefault:
				if overExp && max == 255 {
					o = 0
				}
				if underExp && min == 0 {
					o = 255
				}
			case RenderOverexposed:
				if o != 255 {
					o = 0
				}
			case RenderUnderexposed:
				if o != 0 {
					o = 255
				}
			}
			px[ch] = o
		}
	}
}

// Completes a pass: final band, statistics, live histogram and spot
func (p *Preview) finish() {
	c := &p.cursor
	p.invalidate(c.y0, c.height)
	c.y0 = c.height
	p.liveHist = c.live.Clone()
	p.stats = stats.NewStatistics(p.liveHist, &c.sums, c.width*c.height)
	p.renderLiveHistogram()
	p.state = stateIdle
	p.passes++
	p.renderSpot()
}

func (p *Preview) invalidate(y0, y1 int) {
	if p.OnInvalidate != nil && y1 > y0 {
		p.OnInvalidate(image.Rect(0, y0, p.cursor.width, y1))
	}
}

// Runs pending automatic exposure and black point adjustments
func (p *Preview) applyAuto() {
	if p.conf.AutoExposure == config.AutoApply {
		ev := p.adj.Exposure(p.img, p.conf.Params(p.img))
		if ev > config.ExposureMax {
			ev = config.ExposureMax
		}
		if ev < config.ExposureMin {
			ev = config.ExposureMin
		}
		p.conf.Exposure = ev
		p.conf.AutoExposure = config.AutoEnabled
		fmt.Fprintf(p.ctx.Log, "Auto exposure %.2f EV\n", ev)
	}
	if p.conf.AutoBlack == config.AutoApply {
		black := p.adj.Black(p.img, p.conf.Params(p.img))
		if err := p.conf.SetBlack(black); err != nil {
			fmt.Fprintf(p.ctx.Log, "Auto black point %.3f not applied: %s\n", black, err.Error())
		} else {
			fmt.Fprintf(p.ctx.Log, "Auto black point %.3f\n", black)
		}
		p.conf.AutoBlack = config.AutoEnabled
	}
}
