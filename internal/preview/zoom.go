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
	"math"

	"github.com/mlnoga/rawpreview/internal/config"
	"github.com/mlnoga/rawpreview/internal/raw"
)

// Bytes of memory per preview pixel: the raw base image, the frame and one composite
const bytesPerPreviewPixel = 8 + 3 + 3

// Maximum number of preview pixels within the memory budget, 0 for unlimited
func (p *Preview) maxPixels() int {
	if p.ctx.MemoryMB <= 0 {
		return 0
	}
	return p.ctx.MemoryMB * 1024 * 1024 / bytesPerPreviewPixel
}

// Builds the preview base image from the full image, by shrinking with the configured
// integer scale or resizing to the configured zoom percentage. Scales are increased and
// zooms reduced as needed to stay within the memory budget
func (p *Preview) createBaseImage() error {
	full, maxPix := p.full, p.maxPixels()
	var img *raw.Image
	var err error
	if p.conf.Scale == 0 {
		longest := full.Width
		if full.Height > longest {
			longest = full.Height
		}
		size := int(p.conf.Zoom / 100 * float64(longest))
		if maxPix > 0 {
			if pixels := float64(size) * float64(size) * float64(full.Width*full.Height) / float64(longest*longest); pixels > float64(maxPix) {
				size = int(float64(size) * math.Sqrt(float64(maxPix)/pixels))
			}
		}
		if size < 1 {
			size = 1
		}
		img, err = full.ResizeTo(size)
	} else {
		scale := p.conf.Scale
		for maxPix > 0 && (full.Width/scale)*(full.Height/scale) > maxPix {
			scale++
		}
		if m := minInt(full.Width, full.Height); scale > m {
			scale = m
		}
		img, err = full.Shrink(scale)
	}
	if err != nil {
		return fmt.Errorf("creating preview image: %w", err)
	}
	p.img = img
	p.builtScale, p.builtZoom = p.conf.Scale, p.conf.Zoom
	fmt.Fprintf(p.ctx.Log, "Preview base image %s at scale %d zoom %.1f%%\n", img.DimensionsToString(), p.conf.Scale, p.conf.Zoom)
	return nil
}

// Rebuilds the base image if the zoom changed, then restarts rendering
func (p *Preview) rebuild() error {
	if p.Frozen() {
		return nil
	}
	if p.conf.Scale != p.builtScale || p.conf.Zoom != p.builtZoom {
		if err := p.createBaseImage(); err != nil {
			return err
		}
	}
	p.update()
	return nil
}

// Zooms in by one shrink step
func (p *Preview) ZoomIn() error {
	if p.Frozen() {
		return nil
	}
	p.conf.ZoomIn()
	return p.rebuild()
}

// Zooms out by one shrink step
func (p *Preview) ZoomOut() error {
	if p.Frozen() {
		return nil
	}
	p.conf.ZoomOut()
	return p.rebuild()
}

// Sets the zoom percentage
func (p *Preview) SetZoom(percent float64) error {
	if p.Frozen() {
		return nil
	}
	p.conf.SetZoom(percent)
	return p.rebuild()
}

// Applies a white balance preset and re-renders
func (p *Preview) SetWBPreset(name string) error {
	if p.Frozen() {
		return nil
	}
	switch name {
	case config.CameraWB:
		p.conf.ResetWB(p.initialChanMul)
	case config.AutoWB:
		p.conf.ChanMul = channelMultipliers(p.img, p.img.Bounds(), p.conf.ChanMul)
		p.conf.WB = config.AutoWB
		m := p.conf.ChanMul
		fmt.Fprintf(p.ctx.Log, "Auto WB: channel multipliers = { %.3f, %.3f, %.3f, %.3f }\n", m[0], m[1], m[2], m[3])
	case config.SpotWB:
		if !p.spot.Valid() {
			return fmt.Errorf("no spot selected")
		}
		p.SpotWB()
		return nil
	case config.ManualWB:
		p.conf.WB = config.ManualWB
	default:
		return fmt.Errorf("unknown white balance preset %q", name)
	}
	p.ParameterChanged()
	return nil
}

// Camera white balance found on load
func (p *Preview) InitialChanMul() [raw.MaxColors]float64 { return p.initialChanMul }
