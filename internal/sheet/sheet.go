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

package sheet

import (
	"errors"
	"fmt"
	"image"

	"github.com/fogleman/gg"

	"github.com/mlnoga/rawpreview/internal/bitmap"
	"github.com/mlnoga/rawpreview/internal/preview"
	"github.com/mlnoga/rawpreview/internal/stats"
)

const (
	Margin     = 8
	LineHeight = 16
	patchSize  = 12
)

// Composes a contact sheet of a developed preview: the frame with the spot marked
// on the left, raw and live histograms stacked on the right, statistics below them
func Compose(pv *preview.Preview, title string) (image.Image, error) {
	frame := pv.Composite()
	rawBmp, liveBmp := pv.RawHistogramBitmap(), pv.LiveHistogramBitmap()
	st := pv.Statistics()
	if frame == nil || rawBmp == nil || liveBmp == nil || st == nil {
		return nil, errors.New("preview has not been developed yet")
	}
	lines := textLines(pv, st, title)

	colW := maxInt(rawBmp.Width, liveBmp.Width)
	colH := rawBmp.Height + Margin + liveBmp.Height + Margin + len(lines)*LineHeight
	width := Margin + frame.Width + Margin + colW + Margin
	height := Margin + maxInt(frame.Height, colH) + Margin

	dc := gg.NewContext(width, height)
	dc.SetRGB(0.1, 0.1, 0.1)
	dc.Clear()
	dc.DrawImage(frame.ToRGBA(), Margin, Margin)

	x := Margin + frame.Width + Margin
	y := Margin
	for _, b := range []*bitmap.RGB{rawBmp, liveBmp} {
		dc.DrawImage(b.ToRGBA(), x, y)
		y += b.Height + Margin
	}

	dc.SetRGB(0.85, 0.85, 0.85)
	for _, l := range lines {
		y += LineHeight
		dc.DrawString(l, float64(x), float64(y-4))
	}
	if hex, ok := pv.SpotHex(); ok {
		dc.SetHexColor(hex)
		dc.DrawRectangle(float64(x+colW-patchSize), float64(y-patchSize), patchSize, patchSize)
		dc.Fill()
	}
	return dc.Image(), nil
}

func textLines(pv *preview.Preview, st *stats.Statistics, title string) []string {
	conf := pv.Conf()
	lines := []string{
		title,
		fmt.Sprintf("%s  exposure %.2f EV  saturation %.3f", conf.WB, conf.Exposure, conf.Saturation),
		"Average  " + stats.FormatPixel(st.Mean),
		"StdDev   " + stats.FormatPixel(st.StdDev),
		"Over     " + stats.FormatPercent(st.Over),
		"Under    " + stats.FormatPercent(st.Under),
	}
	if avg, ok := pv.SpotAverage(); ok {
		hex, _ := pv.SpotHex()
		lines = append(lines, fmt.Sprintf("Spot %s %s", stats.FormatPixel(avg), hex))
	}
	return lines
}

// Composes a contact sheet and saves it as PNG
func SavePNG(pv *preview.Preview, title, fileName string) error {
	img, err := Compose(pv, title)
	if err != nil {
		return err
	}
	return gg.SavePNG(fileName, img)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
