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

// Package preview implements the incremental render engine of the raw preview:
// raw histogram, chunked development of the preview frame with live histogram
// and statistics, and spot sampling with white balance estimation. All methods
// must be called from the goroutine running the loop the preview was created with.
package preview

import (
	"fmt"
	"image"
	"io"

	"github.com/mlnoga/rawpreview/internal/bitmap"
	"github.com/mlnoga/rawpreview/internal/config"
	"github.com/mlnoga/rawpreview/internal/develop"
	"github.com/mlnoga/rawpreview/internal/loop"
	"github.com/mlnoga/rawpreview/internal/raw"
	"github.com/mlnoga/rawpreview/internal/stats"
)

// Context for preview operations
type Context struct {
	Log      io.Writer // Sink for log output
	MemoryMB int       // Memory budget for the preview base image, 0 for unlimited
}

// Creates a new context
func NewContext(log io.Writer, memoryMB int) *Context {
	return &Context{Log: log, MemoryMB: memoryMB}
}

// Render modes
type RenderMode int

const (
	RenderDefault      RenderMode = iota // Developed image with optional over/underexposure indicators
	RenderOverexposed                    // Only fully saturated channels remain visible
	RenderUnderexposed                   // Only zero channels remain visible
)

var renderModeNames = []string{"default", "overexposed", "underexposed"}

func (m RenderMode) String() string {
	if m < 0 || int(m) >= len(renderModeNames) {
		return "unknown"
	}
	return renderModeNames[m]
}

// Parses a render mode name
func RenderModeFromString(s string) (RenderMode, error) {
	for i, n := range renderModeNames {
		if n == s {
			return RenderMode(i), nil
		}
	}
	return RenderDefault, fmt.Errorf("unknown render mode %q", s)
}

// A preview of one raw image
type Preview struct {
	ctx  *Context
	loop *loop.Loop
	dev  develop.Developer
	adj  Adjuster
	conf *config.Conf

	full           *raw.Image             // Image as loaded, defines the coordinate space of spots
	img            *raw.Image             // Preview base image at the current zoom
	builtScale     int                    // Shrink factor img was built with
	builtZoom      float64                // Zoom img was built with
	initialChanMul [raw.MaxColors]float64 // Camera white balance for resets

	mode   RenderMode
	frozen int

	state  state
	cursor cursor

	frame    *bitmap.RGB
	rawBmp   *bitmap.RGB
	liveBmp  *bitmap.RGB
	rawHist  *stats.Histogram
	liveHist *stats.Histogram
	stats    *stats.Statistics
	passes   int

	spot    Spot
	spotAvg [3]float64
	spotOK  bool

	// Called after each developed band with the invalidated frame rectangle. Optional
	OnInvalidate func(r image.Rectangle)
}

// Creates a preview of the given image, rendering with the given developer on the given loop.
// The configuration is owned by the preview from now on
func New(ctx *Context, l *loop.Loop, dev develop.Developer, conf *config.Conf, img *raw.Image) (*Preview, error) {
	if err := img.Check(); err != nil {
		return nil, err
	}
	if err := conf.Check(); err != nil {
		return nil, err
	}
	p := &Preview{
		ctx:      ctx,
		loop:     l,
		dev:      dev,
		adj:      DefaultAdjuster{},
		conf:     conf,
		full:     img,
		state:    stateIdle,
		rawHist:  stats.NewHistogram(stats.RawBins),
		liveHist: stats.NewHistogram(stats.LiveBins),
		spot:     NoSpot,
	}
	p.initialChanMul = img.ChanMul
	if p.initialChanMul[0] <= 0 {
		p.initialChanMul = [raw.MaxColors]float64{1, 1, 1, 0}
		if img.Colors == 4 {
			p.initialChanMul[3] = 1
		}
	}
	if conf.WB == config.CameraWB {
		conf.ChanMul = p.initialChanMul
	}
	if err := p.createBaseImage(); err != nil {
		return nil, err
	}
	if conf.WB == config.AutoWB {
		conf.ChanMul = channelMultipliers(p.img, p.img.Bounds(), conf.ChanMul)
	}
	fmt.Fprintf(ctx.Log, "Preview of %s image with rgbMax %d at %s\n", img.DimensionsToString(), img.RGBMax, p.img.DimensionsToString())
	return p, nil
}

// Replaces the automatic adjuster
func (p *Preview) SetAdjuster(a Adjuster) { p.adj = a }

// Freezes the preview. While frozen, all render stages and entry points are no-ops.
// Freezes nest, each Freeze must be matched by a Thaw
func (p *Preview) Freeze() { p.frozen++ }

// Thaws the preview. The caller is responsible for triggering a fresh render
func (p *Preview) Thaw() {
	if p.frozen > 0 {
		p.frozen--
	}
}

// Reports whether the preview is frozen
func (p *Preview) Frozen() bool { return p.frozen > 0 }

// Applies a batch of configuration changes with the preview frozen,
// then triggers a fresh render. If fn or the validation fails, the
// previous configuration is restored
func (p *Preview) Batch(fn func(c *config.Conf) error) error {
	prev := p.conf.Clone()
	p.Freeze()
	err := fn(p.conf)
	p.Thaw()
	if err == nil {
		err = p.conf.Check()
	}
	if err != nil {
		*p.conf = *prev
		return err
	}
	p.conf.InvalidateAuto()
	return p.rebuild()
}

// Current configuration. Changes must be followed by ParameterChanged
func (p *Preview) Conf() *config.Conf { return p.conf }

// Full size image
func (p *Preview) Image() *raw.Image { return p.full }

// Preview base image
func (p *Preview) BaseImage() *raw.Image { return p.img }

// Developed preview frame, nil before the first pass
func (p *Preview) Frame() *bitmap.RGB { return p.frame }

// Raw histogram bitmap, nil before the first pass
func (p *Preview) RawHistogramBitmap() *bitmap.RGB { return p.rawBmp }

// Live histogram bitmap, nil before the first completed pass
func (p *Preview) LiveHistogramBitmap() *bitmap.RGB { return p.liveBmp }

// Raw histogram counts of the last pass
func (p *Preview) RawHistogram() *stats.Histogram { return p.rawHist }

// Live histogram counts of the last completed pass
func (p *Preview) LiveHistogram() *stats.Histogram { return p.liveHist }

// Statistics of the last completed pass, nil before
func (p *Preview) Statistics() *stats.Statistics { return p.stats }

// Number of completed development passes
func (p *Preview) Passes() int { return p.passes }

// Reports whether no render stage is scheduled or running
func (p *Preview) Idle() bool {
	return p.state == stateIdle && p.loop.IdleCount(p) == 0
}
