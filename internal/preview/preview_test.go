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
	"errors"
	"image"
	"io"
	"math"
	"testing"

	"github.com/mlnoga/rawpreview/internal/config"
	"github.com/mlnoga/rawpreview/internal/develop"
	"github.com/mlnoga/rawpreview/internal/loop"
	"github.com/mlnoga/rawpreview/internal/raw"
	"github.com/mlnoga/rawpreview/internal/stats"
)

// Scales the first three raw channels linearly to 8 bits, with exposure as gain
type identityDeveloper struct {
	rgbMax   int
	gain     float64
	prepared int
}

func (d *identityDeveloper) Prepare(p *develop.Params) error {
	d.rgbMax, d.gain = p.RGBMax, math.Exp2(p.Exposure)
	d.prepared++
	return nil
}

func (d *identityDeveloper) Develop(out []uint8, in []raw.Pixel) {
	for i, px := range in {
		for c := 0; c < 3; c++ {
			v := float64(px[c]) * d.gain * 255 / float64(d.rgbMax)
			if v > 255 {
				v = 255
			}
			out[3*i+c] = uint8(v)
		}
	}
}

func (d *identityDeveloper) RGBMax() int { return d.rgbMax }

func (d *identityDeveloper) WB(c int) float64 { return 1 }

// Returns fixed adjustments
type fixedAdjuster struct {
	exposure, black float64
	calls           int
}

func (a *fixedAdjuster) Exposure(img *raw.Image, par *develop.Params) float64 {
	a.calls++
	return a.exposure
}

func (a *fixedAdjuster) Black(img *raw.Image, par *develop.Params) float64 {
	a.calls++
	return a.black
}

// Pushes each channel away from the pixel mean, so pure channel input develops
// brighter than gray input of the same level
type saturatingDeveloper struct {
	identityDeveloper
}

func (d *saturatingDeveloper) Develop(out []uint8, in []raw.Pixel) {
	for i, px := range in {
		mean := (float64(px[0]) + float64(px[1]) + float64(px[2])) / 3
		for c := 0; c < 3; c++ {
			v := (2*float64(px[c]) - mean) * 255 / float64(d.rgbMax)
			out[3*i+c] = uint8(math.Max(0, math.Min(255, v)))
		}
	}
}

func testConf(chunkRows int) *config.Conf {
	conf := config.Default()
	conf.Scale, conf.Zoom = 1, 100
	conf.ChunkRows = chunkRows
	conf.RawHistogramHeight, conf.LiveHistogramHeight = 64, 64
	return conf
}

func newTestPreview(t *testing.T, img *raw.Image, dev develop.Developer, conf *config.Conf) (*Preview, *loop.Loop) {
	t.Helper()
	l := loop.New(16)
	p, err := New(NewContext(io.Discard, 0), l, dev, conf, img)
	if err != nil {
		t.Fatal(err)
	}
	return p, l
}

func render(p *Preview, l *loop.Loop, mode RenderMode) {
	p.Render(mode)
	l.RunPending()
}

func testChart() *raw.Image {
	return raw.NewTestChart(50, 40, 3, 4095, 0.02, 7)
}

func TestRawHistogramIdempotent(t *testing.T) {
	for _, scale := range []config.Scale{config.ScaleLinear, config.ScaleLog} {
		conf := testConf(32)
		conf.RawHistogramScale = scale
		p, l := newTestPreview(t, testChart(), develop.NewPipeline(), conf)
		render(p, l, RenderDefault)
		first := p.RawHistogramBitmap().Clone()
		firstHist := p.RawHistogram().Clone()
		render(p, l, RenderDefault)
		if !first.Equal(p.RawHistogramBitmap()) {
			t.Errorf("scale %v: raw histogram bitmap differs between identical runs", scale)
		}
		if !firstHist.Equal(p.RawHistogram()) {
			t.Errorf("scale %v: raw histogram counts differ between identical runs", scale)
		}
		if w, h := first.Width, first.Height; w != stats.RawBins+2 || h != conf.RawHistogramHeight+2 {
			t.Errorf("raw histogram bitmap %dx%d; want %dx%d", w, h, stats.RawBins+2, conf.RawHistogramHeight+2)
		}
	}
}

func TestRawHistogramClamping(t *testing.T) {
	img := raw.NewImage(2, 1, 3, 4095)
	img.Data[0] = raw.Pixel{0, 0, 0}
	img.Data[1] = raw.Pixel{4095, 4095, 4095}
	p, l := newTestPreview(t, img, &identityDeveloper{}, testConf(32))
	render(p, l, RenderDefault)
	h := p.RawHistogram()
	for c := 0; c < 3; c++ {
		if h.Count(0, c) != 1 || h.Count(stats.RawBins-1, c) != 1 {
			t.Errorf("channel %d: bin 0=%d bin %d=%d; want 1 and 1", c, h.Count(0, c), stats.RawBins-1, h.Count(stats.RawBins-1, c))
		}
	}
}

type passResult struct {
	frame []uint8
	live  *stats.Histogram
	stats stats.Statistics
}

func developWithChunks(t *testing.T, chunk int, mode config.HistogramMode) passResult {
	img := testChart()
	conf := testConf(chunk)
	conf.HistogramMode = mode
	p, l := newTestPreview(t, img, develop.NewPipeline(), conf)
	p.Render(RenderDefault)
	steps := l.RunPending()
	if want := 1 + (img.Height+chunk-1)/chunk; steps != want {
		t.Errorf("chunk %d: %d loop iterations; want %d", chunk, steps, want)
	}
	return passResult{append([]uint8(nil), p.Frame().Pix...), p.LiveHistogram(), *p.Statistics()}
}

func TestChunkInvariance(t *testing.T) {
	for _, mode := range []config.HistogramMode{config.HistogramRGB, config.HistogramLuminosity, config.HistogramSaturation} {
		ref := developWithChunks(t, testChart().Height, mode)
		for _, chunk := range []int{1, 17, 32} {
			got := developWithChunks(t, chunk, mode)
			if string(got.frame) != string(ref.frame) {
				t.Errorf("mode %v chunk %d: frame differs from single pass", mode, chunk)
			}
			if !got.live.Equal(ref.live) {
				t.Errorf("mode %v chunk %d: live histogram differs from single pass", mode, chunk)
			}
			if got.stats != ref.stats {
				t.Errorf("mode %v chunk %d: statistics %v; want %v", mode, chunk, &got.stats, &ref.stats)
			}
		}
	}
}

func TestHistogramConservation(t *testing.T) {
	for _, mode := range []config.HistogramMode{config.HistogramRGB, config.HistogramRGBStacked, config.HistogramValue, config.HistogramLuminosity, config.HistogramSaturation} {
		img := testChart()
		conf := testConf(7)
		conf.HistogramMode = mode
		p, l := newTestPreview(t, img, develop.NewPipeline(), conf)
		render(p, l, RenderDefault)
		n := img.Width * img.Height
		for c := 0; c < 3; c++ {
			if got := p.LiveHistogram().Total(c); got != n {
				t.Errorf("mode %v channel %d: total %d; want %d", mode, c, got, n)
			}
		}
		if got := p.LiveHistogram().Total(stats.Combined); mode != config.HistogramRGB && mode != config.HistogramRGBStacked && got != n {
			t.Errorf("mode %v combined: total %d; want %d", mode, got, n)
		}
	}
}

func TestOverexposureIsolation(t *testing.T) {
	img := raw.NewImage(2, 2, 3, 255)
	img.Data[0] = raw.Pixel{100, 120, 90}
	img.Data[1] = raw.Pixel{255, 255, 255}
	img.Data[2] = raw.Pixel{128, 128, 128}
	img.Data[3] = raw.Pixel{60, 80, 100}
	p, l := newTestPreview(t, img, &identityDeveloper{}, testConf(32))
	render(p, l, RenderOverexposed)

	nonBlack := 0
	f := p.Frame()
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			r, g, b := f.At(x, y)
			if r != 0 || g != 0 || b != 0 {
				nonBlack++
				if x != 1 || y != 0 || r != 255 || g != 255 || b != 255 {
					t.Errorf("pixel %d,%d=(%d,%d,%d); want only (255,255,255) at 1,0", x, y, r, g, b)
				}
			}
		}
	}
	if nonBlack != 1 {
		t.Errorf("%d non-black pixels; want 1", nonBlack)
	}
}

func TestUnderexposureIsolation(t *testing.T) {
	img := raw.NewImage(2, 2, 3, 255)
	img.Data[0] = raw.Pixel{100, 120, 90}
	img.Data[1] = raw.Pixel{0, 0, 0}
	img.Data[2] = raw.Pixel{128, 0, 128}
	img.Data[3] = raw.Pixel{60, 80, 100}
	p, l := newTestPreview(t, img, &identityDeveloper{}, testConf(32))
	render(p, l, RenderUnderexposed)
	want := [][3]uint8{{255, 255, 255}, {0, 0, 0}, {255, 0, 255}, {255, 255, 255}}
	f := p.Frame()
	for i, w := range want {
		r, g, b := f.At(i%2, i/2)
		if [3]uint8{r, g, b} != w {
			t.Errorf("pixel %d=(%d,%d,%d); want %v", i, r, g, b, w)
		}
	}
}

func TestDefaultModeIndicators(t *testing.T) {
	img := raw.NewImage(3, 1, 3, 255)
	img.Data[0] = raw.Pixel{255, 10, 10}
	img.Data[1] = raw.Pixel{0, 50, 50}
	img.Data[2] = raw.Pixel{100, 100, 100}
	conf := testConf(32)
	conf.OverExp, conf.UnderExp = true, true
	p, l := newTestPreview(t, img, &identityDeveloper{}, conf)
	render(p, l, RenderDefault)
	want := [][3]uint8{{0, 0, 0}, {255, 255, 255}, {100, 100, 100}}
	for x, w := range want {
		r, g, b := p.Frame().At(x, 0)
		if [3]uint8{r, g, b} != w {
			t.Errorf("pixel %d=(%d,%d,%d); want %v", x, r, g, b, w)
		}
	}
	// Indicators do not affect statistics
	if s := p.Statistics(); s.Over[0] != 100.0/3 || s.Under[0] != 100.0/3 {
		t.Errorf("over %v under %v; want a third for red", s.Over, s.Under)
	}
}

func uniformSpotImage() *raw.Image {
	img := raw.NewImage(8, 8, 3, 255)
	for y := 2; y < 6; y++ {
		for x := 2; x < 6; x++ {
			img.Set(x, y, raw.Pixel{200, 100, 50})
		}
	}
	return img
}

func TestSpotAveraging(t *testing.T) {
	p, l := newTestPreview(t, uniformSpotImage(), &identityDeveloper{}, testConf(32))
	if _, ok := p.SpotAverage(); ok {
		t.Errorf("spot average valid before selection")
	}
	render(p, l, RenderDefault)
	p.SetSpot(Spot{2, 2, 5, 5})
	avg, ok := p.SpotAverage()
	if !ok || avg != [3]float64{200, 100, 50} {
		t.Errorf("spot average=%v, %v; want [200 100 50]", avg, ok)
	}
	if hex, _ := p.SpotHex(); hex != "#c86432" {
		t.Errorf("spot hex=%q; want #c86432", hex)
	}
	before := p.Frame().Clone()
	comp := p.Composite()
	if !before.Equal(p.Frame()) {
		t.Errorf("composite modified the developed frame")
	}
	if comp.Equal(p.Frame()) {
		t.Errorf("composite carries no spot marker")
	}
	if r := p.spotRect(p.Frame().Width, p.Frame().Height); r != image.Rect(2, 2, 6, 6) {
		t.Errorf("spot rect=%v; want (2,2)-(6,6)", r)
	}
}

func TestSpotDegenerateAndUnselected(t *testing.T) {
	p, l := newTestPreview(t, uniformSpotImage(), &identityDeveloper{}, testConf(32))
	render(p, l, RenderDefault)
	p.SpotPress(3, 3)
	if avg, ok := p.SpotAverage(); !ok || avg != [3]float64{200, 100, 50} {
		t.Errorf("single pixel spot=%v, %v; want [200 100 50]", avg, ok)
	}
	p.ClearSpot()
	mul := p.Conf().ChanMul
	p.SpotWB()
	if p.Conf().ChanMul != mul || p.Conf().WB != config.CameraWB {
		t.Errorf("spot WB without selection changed the white balance")
	}
	if _, ok := p.SpotAverage(); ok {
		t.Errorf("spot average valid after clearing")
	}
}

func TestSpotDragGesture(t *testing.T) {
	p, l := newTestPreview(t, uniformSpotImage(), &identityDeveloper{}, testConf(32))
	render(p, l, RenderDefault)
	passes := p.Passes()
	p.SpotPress(5, 5)
	p.SpotDrag(3, 4)
	p.SpotRelease(2, 2)
	if s := p.Spot(); s != (Spot{5, 5, 2, 2}) {
		t.Errorf("spot=%v; want {5 5 2 2}", s)
	}
	if avg, _ := p.SpotAverage(); avg != [3]float64{200, 100, 50} {
		t.Errorf("spot average=%v; want [200 100 50]", avg)
	}
	if l.Pending() || p.Passes() != passes {
		t.Errorf("spot gesture triggered development")
	}
}

func TestSpotWB(t *testing.T) {
	img := raw.NewImage(4, 4, 3, 255)
	vals := []uint16{10, 20, 30, 40}
	for i, v := range vals {
		img.Set(i%2, i/2, raw.Pixel{v, 50, 25})
	}
	p, l := newTestPreview(t, img, &identityDeveloper{}, testConf(32))
	render(p, l, RenderDefault)
	p.SetSpot(Spot{0, 0, 1, 1})
	p.SpotWB()
	want := [raw.MaxColors]float64{4 * 255.0 / 100, 4 * 255.0 / 200, 4 * 255.0 / 100, 0}
	got := p.Conf().ChanMul
	for c := range want {
		if math.Abs(got[c]-want[c]) > 1e-9 {
			t.Errorf("chanMul[%d]=%g; want %g", c, got[c], want[c])
		}
	}
	if p.Conf().WB != config.SpotWB {
		t.Errorf("wb=%q; want %q", p.Conf().WB, config.SpotWB)
	}
	if !l.Pending() {
		t.Errorf("spot WB did not schedule a render")
	}
}

func TestSpotWBKeepsZeroChannel(t *testing.T) {
	img := raw.NewImage(2, 2, 3, 255)
	for i := range img.Data {
		img.Data[i] = raw.Pixel{0, 51, 51}
	}
	conf := testConf(32)
	conf.WB = config.ManualWB
	conf.ChanMul = [raw.MaxColors]float64{2, 1, 1, 0}
	p, _ := newTestPreview(t, img, &identityDeveloper{}, conf)
	p.SetSpot(Spot{0, 0, 1, 1})
	p.SpotWB()
	if got := p.Conf().ChanMul; got[0] != 2 || got[1] != 5 || got[2] != 5 {
		t.Errorf("chanMul=%v; want [2 5 5 0]", got)
	}
}

func TestAutoWBGreyWorld(t *testing.T) {
	img := raw.NewImage(2, 2, 3, 255)
	for i := range img.Data {
		img.Data[i] = raw.Pixel{51, 102, 85}
	}
	p, _ := newTestPreview(t, img, &identityDeveloper{}, testConf(32))
	if err := p.SetWBPreset(config.AutoWB); err != nil {
		t.Fatal(err)
	}
	if got := p.Conf().ChanMul; got != [raw.MaxColors]float64{5, 2.5, 3, 0} {
		t.Errorf("chanMul=%v; want [5 2.5 3 0]", got)
	}
	if err := p.SetWBPreset(config.CameraWB); err != nil {
		t.Fatal(err)
	}
	if p.Conf().ChanMul != p.InitialChanMul() {
		t.Errorf("camera WB not restored")
	}
	if err := p.SetWBPreset(config.SpotWB); err == nil {
		t.Errorf("expected error for spot WB without a spot")
	}
}

func TestRestartCorrectness(t *testing.T) {
	img := testChart()
	p, l := newTestPreview(t, img, develop.NewPipeline(), testConf(4))
	p.Render(RenderDefault)
	for i := 0; i < 4; i++ {
		l.Iterate()
	}
	if p.state != stateRunning || p.cursor.y == 0 {
		t.Fatalf("state %v at row %d; want running mid-pass", p.state, p.cursor.y)
	}
	if changed, err := p.Adjust(ParamExposure, -1); err != nil || !changed {
		t.Fatalf("adjust exposure: %v, %v", changed, err)
	}
	l.RunPending()

	fresh := testConf(4)
	fresh.Exposure = -1
	q, ql := newTestPreview(t, img, develop.NewPipeline(), fresh)
	render(q, ql, RenderDefault)

	if !p.Frame().Equal(q.Frame()) {
		t.Errorf("restarted frame differs from a fresh pass")
	}
	if !p.LiveHistogram().Equal(q.LiveHistogram()) {
		t.Errorf("restarted live histogram differs from a fresh pass")
	}
	if *p.Statistics() != *q.Statistics() {
		t.Errorf("restarted statistics %v; want %v", p.Statistics(), q.Statistics())
	}
	if p.Passes() != 1 {
		t.Errorf("passes=%d; want 1", p.Passes())
	}
}

func TestFrozenIsNoop(t *testing.T) {
	p, l := newTestPreview(t, testChart(), develop.NewPipeline(), testConf(8))
	p.Render(RenderDefault)
	l.Iterate()
	l.Iterate()
	y := p.cursor.y
	if y != 8 {
		t.Fatalf("cursor at row %d; want 8", y)
	}
	p.Freeze()
	l.Iterate()
	p.Render(RenderOverexposed)
	p.SpotPress(1, 1)
	if _, err := p.Adjust(ParamSaturation, 2); err != nil {
		t.Fatal(err)
	}
	if p.cursor.y != y || p.state != stateRunning {
		t.Errorf("frozen step moved cursor to %d state %v", p.cursor.y, p.state)
	}
	if l.Pending() {
		t.Errorf("frozen preview scheduled work")
	}
	if p.Mode() != RenderDefault || p.Spot().Valid() || p.Conf().Saturation != config.DefaultSaturation {
		t.Errorf("frozen entry points changed state")
	}
	p.Thaw()
	render(p, l, RenderDefault)
	if p.Passes() != 1 || !p.Idle() {
		t.Errorf("passes=%d idle=%v after thaw; want 1 true", p.Passes(), p.Idle())
	}
}

func TestInvalidatedBands(t *testing.T) {
	img := raw.NewTestChart(10, 70, 3, 255, 0, 1)
	p, l := newTestPreview(t, img, &identityDeveloper{}, testConf(32))
	var bands []image.Rectangle
	p.OnInvalidate = func(r image.Rectangle) { bands = append(bands, r) }
	render(p, l, RenderDefault)
	want := []image.Rectangle{image.Rect(0, 0, 10, 32), image.Rect(0, 32, 10, 64), image.Rect(0, 64, 10, 70)}
	if len(bands) != len(want) {
		t.Fatalf("bands=%v; want %v", bands, want)
	}
	for i := range want {
		if bands[i] != want[i] {
			t.Errorf("band %d=%v; want %v", i, bands[i], want[i])
		}
	}
}

func TestProgress(t *testing.T) {
	img := raw.NewTestChart(10, 64, 3, 255, 0, 1)
	p, l := newTestPreview(t, img, &identityDeveloper{}, testConf(16))
	p.Render(RenderDefault)
	l.Iterate()
	l.Iterate()
	if got := p.Progress(); got != 0.25 {
		t.Errorf("progress=%g; want 0.25", got)
	}
	l.RunPending()
	if got := p.Progress(); got != 1 {
		t.Errorf("progress=%g; want 1", got)
	}
}

func TestLiveHistogramGridlines(t *testing.T) {
	img := raw.NewImage(4, 4, 3, 255)
	p, l := newTestPreview(t, img, &identityDeveloper{}, testConf(32))
	render(p, l, RenderDefault)
	b := p.LiveHistogramBitmap()
	h := p.Conf().LiveHistogramHeight
	if b.Width != stats.LiveBins+2 || b.Height != h+2 {
		t.Fatalf("live histogram bitmap %dx%d", b.Width, b.Height)
	}
	for _, x := range []int{64, 128, 192} {
		for _, y := range []int{0, h / 2, h + 1} {
			if r, g, bl := b.At(x+1, y); r != gridGray || g != gridGray || bl != gridGray {
				t.Errorf("gridline at %d,%d=(%d,%d,%d); want gray", x+1, y, r, g, bl)
			}
		}
	}
	// An all black image puts every count in bin 0, drawn as a full height red, green and blue bar
	if r, g, bl := b.At(1, h); r != 255 || g != 255 || bl != 255 {
		t.Errorf("bin 0 bar=(%d,%d,%d); want white", r, g, bl)
	}
}

func TestStackedLiveHistogram(t *testing.T) {
	img := raw.NewImage(4, 4, 3, 255)
	for i := range img.Data {
		img.Data[i] = raw.Pixel{100, 100, 100}
	}
	conf := testConf(32)
	conf.HistogramMode = config.HistogramRGBStacked
	p, l := newTestPreview(t, img, &identityDeveloper{}, conf)
	render(p, l, RenderDefault)
	b, h := p.LiveHistogramBitmap(), conf.LiveHistogramHeight
	// Bin 100 holds 16 counts per channel, stacked to 48 = the scaling maximum
	if r, _, _ := b.At(101, h); r != 255 {
		t.Errorf("bottom third not red")
	}
	if _, g, _ := b.At(101, h-h/2); g != 255 {
		t.Errorf("middle third not green")
	}
	if _, _, bl := b.At(101, 1); bl != 255 {
		t.Errorf("top third not blue")
	}
}

func TestAutoExposureFeedback(t *testing.T) {
	p, l := newTestPreview(t, testChart(), &identityDeveloper{}, testConf(32))
	adj := &fixedAdjuster{exposure: 1.5, black: 0.05}
	p.SetAdjuster(adj)
	if err := p.Set(ToggleAutoExposure, true); err != nil {
		t.Fatal(err)
	}
	if err := p.Set(ToggleAutoBlack, true); err != nil {
		t.Fatal(err)
	}
	l.RunPending()
	c := p.Conf()
	if c.Exposure != 1.5 || c.AutoExposure != config.AutoEnabled {
		t.Errorf("exposure=%g state=%v; want 1.5 enabled", c.Exposure, c.AutoExposure)
	}
	if c.Black() != 0.05 || c.AutoBlack != config.AutoEnabled {
		t.Errorf("black=%g state=%v; want 0.05 enabled", c.Black(), c.AutoBlack)
	}

	calls := adj.calls
	if err := p.Set(ToggleOverExp, true); err != nil {
		t.Fatal(err)
	}
	l.RunPending()
	if adj.calls != calls {
		t.Errorf("display toggle recomputed automatic adjustments")
	}

	if err := p.Do(ActionResetSaturation); err != nil {
		t.Fatal(err)
	}
	l.RunPending()
	if adj.calls != calls+2 {
		t.Errorf("adjuster calls=%d; want %d", adj.calls, calls+2)
	}

	if _, err := p.Adjust(ParamExposure, 0.5); err != nil {
		t.Fatal(err)
	}
	if c.AutoExposure != config.AutoDisabled || c.Exposure != 0.5 {
		t.Errorf("manual exposure left auto %v exposure %g", c.AutoExposure, c.Exposure)
	}
	if _, err := p.Adjust(ParamBlack, 0.1); err != nil {
		t.Fatal(err)
	}
	if c.AutoBlack != config.AutoDisabled {
		t.Errorf("manual black point left auto black %v", c.AutoBlack)
	}
}

func TestAdjustAccuracy(t *testing.T) {
	p, l := newTestPreview(t, testChart(), &identityDeveloper{}, testConf(32))
	if changed, err := p.Adjust(ParamExposure, 0.004); err != nil || changed {
		t.Errorf("change below accuracy applied: %v, %v", changed, err)
	}
	if l.Pending() {
		t.Errorf("ignored change scheduled a render")
	}
	if changed, _ := p.Adjust(ParamExposure, 0.006); !changed {
		t.Errorf("change above accuracy ignored")
	}
	if _, err := p.Adjust(ParamExposure, math.NaN()); err == nil {
		t.Errorf("expected error for NaN")
	}
}

func TestActionsAndSensitivity(t *testing.T) {
	p, l := newTestPreview(t, testChart(), &identityDeveloper{}, testConf(32))
	c := p.Conf()
	if p.Sensitive(ActionResetExposure) || p.Sensitive(ActionResetWB) || p.Sensitive(ActionSpotWB) {
		t.Errorf("reset actions sensitive on defaults")
	}
	if _, err := p.Adjust(ParamChanMul0, 3); err != nil {
		t.Fatal(err)
	}
	if !p.Sensitive(ActionResetWB) || c.WB != config.ManualWB {
		t.Errorf("manual multiplier not reflected, wb=%q", c.WB)
	}
	if err := p.Do(ActionResetWB); err != nil {
		t.Fatal(err)
	}
	if c.ChanMul != p.InitialChanMul() || c.WB != config.CameraWB {
		t.Errorf("reset WB gave %v %q", c.ChanMul, c.WB)
	}
	if _, err := p.Adjust(ParamGamma, 0.6); err != nil {
		t.Fatal(err)
	}
	if !p.Sensitive(ActionResetGamma) {
		t.Errorf("reset gamma not sensitive after edit")
	}
	if err := p.Do(ActionResetGamma); err != nil {
		t.Fatal(err)
	}
	if c.ActiveProfile(config.ProfileIn).Gamma != develop.DefaultGamma {
		t.Errorf("gamma=%g after reset", c.ActiveProfile(config.ProfileIn).Gamma)
	}
	l.RunPending()
	if p.Passes() != 1 {
		t.Errorf("passes=%d; want 1 after coalesced renders", p.Passes())
	}
}

func TestZoomRebuildsBaseImage(t *testing.T) {
	img := raw.NewTestChart(40, 40, 3, 255, 0, 1)
	conf := testConf(32)
	conf.Scale = 4
	p, l := newTestPreview(t, img, &identityDeveloper{}, conf)
	render(p, l, RenderDefault)
	if p.Frame().Width != 10 {
		t.Fatalf("frame width=%d; want 10", p.Frame().Width)
	}
	if err := p.Do(ActionZoomIn); err != nil {
		t.Fatal(err)
	}
	l.RunPending()
	if p.Conf().Scale != 3 || p.Frame().Width != 13 || p.Frame().Height != 13 {
		t.Errorf("after zoom in scale=%d frame %dx%d; want 3 13x13", p.Conf().Scale, p.Frame().Width, p.Frame().Height)
	}
	if err := p.SetZoom(50); err != nil {
		t.Fatal(err)
	}
	l.RunPending()
	if p.Frame().Width != 20 {
		t.Errorf("zoom 50%% frame width=%d; want 20", p.Frame().Width)
	}
}

func TestMemoryBudgetCapsBaseImage(t *testing.T) {
	img := raw.NewTestChart(400, 200, 3, 255, 0, 1)
	conf := testConf(32)
	p, err := New(NewContext(io.Discard, 1), loop.New(4), &identityDeveloper{}, conf, img)
	if err != nil {
		t.Fatal(err)
	}
	if n := p.BaseImage().Width * p.BaseImage().Height; n > p.maxPixels() {
		t.Errorf("base image has %d pixels, budget %d", n, p.maxPixels())
	}
}

func TestEnumNames(t *testing.T) {
	for a := ActionResetWB; a <= ActionSpotWB; a++ {
		if back, err := ActionFromString(a.String()); err != nil || back != a {
			t.Errorf("action %v round trip gave %v, %v", a, back, err)
		}
	}
	for tg := ToggleAutoExposure; tg <= ToggleUnderExp; tg++ {
		if back, err := ToggleFromString(tg.String()); err != nil || back != tg {
			t.Errorf("toggle %v round trip gave %v, %v", tg, back, err)
		}
	}
	for par := ParamExposure; par <= ParamChanMul3; par++ {
		if back, err := ParamFromString(par.String()); err != nil || back != par {
			t.Errorf("param %v round trip gave %v, %v", par, back, err)
		}
	}
	if _, err := RenderModeFromString("bogus"); err == nil {
		t.Errorf("expected error for unknown render mode")
	}
}

func TestRawHistogramOverlayCurves(t *testing.T) {
	// All samples are 0, so column 97 (bin 96) carries overlay curves only
	img := raw.NewImage(2, 2, 3, 4095)
	p, l := newTestPreview(t, img, &saturatingDeveloper{}, testConf(32))
	render(p, l, RenderDefault)
	b, h := p.RawHistogramBitmap(), p.Conf().RawHistogramHeight

	// Gray probes develop to 76 and 77, that is heights 18 and 19. Pure probes develop
	// to 127 and 128, both height 31. The blue channel is drawn last
	full, half, black := [3]uint8{0, 0, 255}, [3]uint8{0, 0, 127}, [3]uint8{}
	tcs := []struct {
		y    int
		want [3]uint8
	}{
		{17, black}, {18, full}, {19, full}, {20, half}, {25, half}, {30, half}, {31, full}, {32, black},
	}
	for _, tc := range tcs {
		r, g, bl := b.At(97, h-tc.y)
		if got := [3]uint8{r, g, bl}; got != tc.want {
			t.Errorf("overlay at height %d=%v; want %v", tc.y, got, tc.want)
		}
	}
}

func TestLiveHistogramLogScale(t *testing.T) {
	// 12 pixels of a major color and 4 of a minor one. Height 30 of the minor bar is
	// only reached with log scaling
	img := raw.NewImage(4, 4, 3, 255)
	for i := range img.Data {
		if i < 12 {
			img.Data[i] = raw.Pixel{100, 50, 200}
		} else {
			img.Data[i] = raw.Pixel{60, 60, 120}
		}
	}
	tcs := []struct {
		mode config.HistogramMode
		bin  int
		ch   int // -1 for the combined channel, drawn white
	}{
		{config.HistogramRGB, 120, 2},
		{config.HistogramRGBStacked, 120, 2},
		{config.HistogramLuminosity, 66, -1},
		{config.HistogramValue, 120, -1},
		{config.HistogramSaturation, 127, -1},
	}
	for _, tc := range tcs {
		for _, scale := range []config.Scale{config.ScaleLinear, config.ScaleLog} {
			conf := testConf(32)
			conf.HistogramMode, conf.LiveHistogramScale = tc.mode, scale
			p, l := newTestPreview(t, img, &identityDeveloper{}, conf)
			render(p, l, RenderDefault)
			b, h := p.LiveHistogramBitmap(), conf.LiveHistogramHeight
			r, g, bl := b.At(tc.bin+1, h-30)
			var lit bool
			if tc.ch < 0 {
				lit = r == 255 && g == 255 && bl == 255
			} else {
				lit = [3]uint8{r, g, bl}[tc.ch] == 255
			}
			if want := scale == config.ScaleLog; lit != want {
				t.Errorf("mode %v scale %v: bin %d at height 30=(%d,%d,%d); lit %v, want %v", tc.mode, scale, tc.bin, r, g, bl, lit, want)
			}
			if r, g, bl := b.At(tc.bin+1, h); tc.ch < 0 && (r != 255 || g != 255 || bl != 255) {
				t.Errorf("mode %v scale %v: bin %d base=(%d,%d,%d); want white", tc.mode, scale, tc.bin, r, g, bl)
			}
		}
	}
}

func TestSaturationOfBlack(t *testing.T) {
	img := raw.NewImage(3, 2, 3, 255)
	conf := testConf(32)
	conf.HistogramMode = config.HistogramSaturation
	p, l := newTestPreview(t, img, &identityDeveloper{}, conf)
	render(p, l, RenderDefault)
	if n := p.LiveHistogram().Count(0, stats.Combined); n != 6 {
		t.Errorf("saturation bin 0=%d; want 6", n)
	}
}

func TestSpotBetweenZoomAndRestart(t *testing.T) {
	img := raw.NewTestChart(40, 40, 3, 255, 0, 1)
	conf := testConf(32)
	conf.Scale = 4
	p, l := newTestPreview(t, img, &identityDeveloper{}, conf)
	render(p, l, RenderDefault)
	if err := p.Do(ActionZoomIn); err != nil {
		t.Fatal(err)
	}
	if p.Frame().Width != 10 || p.BaseImage().Width != 13 {
		t.Fatalf("frame %d base %d; want 10 and 13 before the restart", p.Frame().Width, p.BaseImage().Width)
	}
	p.SpotPress(12, 12)
	p.SpotDrag(0, 0)
	if _, ok := p.SpotAverage(); !ok {
		t.Errorf("no spot average on the previous frame")
	}
	if r := p.spotRect(p.Frame().Width, p.Frame().Height); r != image.Rect(0, 0, 10, 10) {
		t.Errorf("spot rect on frame=%v; want (0,0)-(10,10)", r)
	}
	p.Composite()
	p.SpotWB()
	l.RunPending()
	p.SpotRelease(12, 12)
	if r := p.spotRect(p.Frame().Width, p.Frame().Height); !r.In(image.Rect(0, 0, 13, 13)) || r.Empty() {
		t.Errorf("spot rect after restart=%v", r)
	}
}

func TestBatchRestoresOnError(t *testing.T) {
	p, _ := newTestPreview(t, testChart(), &identityDeveloper{}, testConf(32))
	if err := p.Batch(func(c *config.Conf) error {
		c.Exposure = 2
		c.Curves[c.CurveIndex].Points = nil
		return nil
	}); err == nil {
		t.Fatal("expected error for a curve without anchors")
	}
	if v, err := p.Value(ParamBlack); err != nil || v != 0 {
		t.Errorf("black=%g, %v; want 0", v, err)
	}
	if p.Conf().Exposure != 0 {
		t.Errorf("exposure=%g; want 0 after failed batch", p.Conf().Exposure)
	}
	if err := p.Batch(func(c *config.Conf) error {
		c.Saturation = 3
		return errors.New("rejected")
	}); err == nil {
		t.Fatal("expected error from batch function")
	}
	if p.Conf().Saturation != config.DefaultSaturation {
		t.Errorf("saturation=%g; want default after failed batch", p.Conf().Saturation)
	}
}

func TestZoomSensitivity(t *testing.T) {
	tcs := []struct {
		scale   int
		zoom    float64
		in, out bool
	}{
		{2, 50, false, true},
		{20, 5, true, false},
		{4, 25, true, true},
		{0, config.MaxZoom, false, true},
		{0, config.MinZoom, true, false},
		{0, 30, true, true},
	}
	for _, tc := range tcs {
		conf := testConf(32)
		conf.Scale, conf.Zoom = tc.scale, tc.zoom
		p, _ := newTestPreview(t, testChart(), &identityDeveloper{}, conf)
		if in, out := p.Sensitive(ActionZoomIn), p.Sensitive(ActionZoomOut); in != tc.in || out != tc.out {
			t.Errorf("scale %d zoom %g: zoom in %v out %v; want %v %v", tc.scale, tc.zoom, in, out, tc.in, tc.out)
		}
	}
}
