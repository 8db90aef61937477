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

package config

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/mlnoga/rawpreview/internal/develop"
	"github.com/mlnoga/rawpreview/internal/raw"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Check(); err != nil {
		t.Errorf("default configuration invalid: %v", err)
	}
}

func TestUnmarshalKeepsDefaults(t *testing.T) {
	var c Conf
	err := json.Unmarshal([]byte(`{"exposure":1.5,"histogramMode":"luminosity","autoBlack":"enabled","intent":"saturation"}`), &c)
	if err != nil {
		t.Fatal(err)
	}
	if c.Exposure != 1.5 {
		t.Errorf("exposure=%g; want 1.5", c.Exposure)
	}
	if c.HistogramMode != HistogramLuminosity {
		t.Errorf("histogram mode=%v; want luminosity", c.HistogramMode)
	}
	if c.AutoBlack != AutoEnabled {
		t.Errorf("auto black=%v; want enabled", c.AutoBlack)
	}
	if c.Intent != develop.Saturation {
		t.Errorf("intent=%v; want saturation", c.Intent)
	}
	def := Default()
	if c.Saturation != def.Saturation || c.ChunkRows != def.ChunkRows || c.WB != def.WB {
		t.Errorf("unspecified fields lost their defaults: %+v", c)
	}
	if len(c.Curves) != len(def.Curves) {
		t.Errorf("curves=%d; want %d", len(c.Curves), len(def.Curves))
	}
}

func TestUnmarshalRejectsInvalid(t *testing.T) {
	tcs := []string{
		`{"curveIndex":7}`,
		`{"histogramMode":"bogus"}`,
		`{"scale":50}`,
		`{"chunkRows":0}`,
		`{"curves":[{"name":"Manual curve","points":[{"x":0,"y":0},{"x":1,"y":1}]},{"name":"Linear curve","points":[]}]}`,
		`{"baseCurves":[{"name":"Manual curve","points":[{"x":0.5,"y":0},{"x":0.2,"y":1}]},{"name":"Linear curve","points":[{"x":0,"y":0},{"x":1,"y":1}]}]}`,
		`{"chanMul":[0,1,1,0]}`,
		`{"chanMul":[1,-1,1,0]}`,
		`{"scale":0,"zoom":80}`,
		`{"scale":0,"zoom":2}`,
	}
	for _, tc := range tcs {
		var c Conf
		if err := json.Unmarshal([]byte(tc), &c); err == nil {
			t.Errorf("expected error for %s", tc)
		}
	}
}

func TestUnmarshalZoomMode(t *testing.T) {
	var c Conf
	if err := json.Unmarshal([]byte(`{"scale":0,"zoom":50}`), &c); err != nil {
		t.Fatal(err)
	}
	if c.Scale != 0 || c.Zoom != MaxZoom {
		t.Errorf("scale=%d zoom=%g; want 0 and %g", c.Scale, c.Zoom, MaxZoom)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	c := Default()
	c.AutoExposure = AutoApply
	c.LiveHistogramScale = ScaleLog
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"autoExposure":"apply"`) {
		t.Errorf("enum not encoded as text: %s", b)
	}
	var back Conf
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back.AutoExposure != AutoApply || back.LiveHistogramScale != ScaleLog {
		t.Errorf("round trip lost enums: %v %v", back.AutoExposure, back.LiveHistogramScale)
	}
}

func TestAsYaml(t *testing.T) {
	s, err := Default().AsYaml()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(s, "Camera WB") || !strings.Contains(s, "exposure") {
		t.Errorf("yaml misses fields:\n%s", s)
	}
}

func TestSetProfileGammaByIndex(t *testing.T) {
	c := Default()
	active := c.ActiveProfile(ProfileIn)
	if err := c.SetProfileGamma(ProfileIn, 1, 0.6); err != nil {
		t.Fatal(err)
	}
	if c.ActiveProfile(ProfileIn) != active {
		t.Errorf("editing profile 1 changed the active profile 0")
	}
	if c.Profiles[ProfileIn][1].Gamma != 0.6 {
		t.Errorf("gamma=%g; want 0.6", c.Profiles[ProfileIn][1].Gamma)
	}
	if err := c.SetProfileGamma(ProfileIn, 5, 0.6); err == nil {
		t.Errorf("expected error for out of range profile")
	}
	c.ResetGamma()
	if c.ActiveProfile(ProfileIn).Gamma != develop.DefaultGamma {
		t.Errorf("reset gamma=%g; want %g", c.ActiveProfile(ProfileIn).Gamma, develop.DefaultGamma)
	}
}

func TestRemoveProfile(t *testing.T) {
	c := Default()
	i := c.AddProfile(ProfileIn, develop.Profile{Name: "custom", Gamma: 0.5})
	if c.ProfileIndex[ProfileIn] != i {
		t.Errorf("added profile not selected")
	}
	if err := c.RemoveProfile(ProfileIn, i); err != nil {
		t.Fatal(err)
	}
	if c.ProfileIndex[ProfileIn] != i-1 {
		t.Errorf("index=%d after removal; want %d", c.ProfileIndex[ProfileIn], i-1)
	}
	if err := c.RemoveProfile(ProfileIn, 0); err == nil {
		t.Errorf("expected error removing built-in profile")
	}
}

func TestParamsDoNotAliasCurves(t *testing.T) {
	c := Default()
	if err := c.EditCurve(develop.Curve{Points: []develop.Point{{X: 0.1, Y: 0}, {X: 1, Y: 1}}}); err != nil {
		t.Fatal(err)
	}
	img := raw.NewImage(1, 1, 3, 255)
	p := c.Params(img)
	p.Curve.Points[0].X = 0.4
	if c.Black() != 0.1 {
		t.Errorf("black=%g after editing params; want 0.1", c.Black())
	}
	if p.RGBMax != 255 || p.Colors != 3 {
		t.Errorf("params took rgbMax %d colors %d", p.RGBMax, p.Colors)
	}
}

func TestBlackAndCurveResets(t *testing.T) {
	c := Default()
	if err := c.EditCurve(develop.Curve{Points: []develop.Point{{X: 0, Y: 0}, {X: 0.5, Y: 0.7}, {X: 1, Y: 1}}}); err != nil {
		t.Fatal(err)
	}
	if c.CurveIndex != ManualCurve {
		t.Errorf("edited curve not selected")
	}
	if err := c.SetBlack(0.2); err != nil {
		t.Fatal(err)
	}
	c.ResetCurve()
	curve := c.ActiveCurve()
	if len(curve.Points) != 2 || curve.Points[0].X != 0.2 || curve.Points[1] != (develop.Point{X: 1, Y: 1}) {
		t.Errorf("reset manual curve=%v; want black kept and two anchors", curve.Points)
	}
	if err := c.SetBlack(1); err == nil {
		t.Errorf("expected error for black point right of the white anchor")
	}

	c.CurveIndex = LinearCurve
	c.ResetCurve()
	if c.CurveIndex != LinearCurve {
		t.Errorf("curve index=%d; want linear", c.CurveIndex)
	}
	c.BaseCurveIndex = ManualCurve
	c.BaseCurves[ManualCurve].Points = append(c.BaseCurves[ManualCurve].Points, develop.Point{X: 1, Y: 1})
	c.ResetBaseCurve()
	if len(c.ActiveBaseCurve().Points) != 2 {
		t.Errorf("reset base curve has %d anchors; want 2", len(c.ActiveBaseCurve().Points))
	}
}

func TestRemoveCurveAdjustsIndex(t *testing.T) {
	c := Default()
	a, _ := c.AddCurve(develop.LinearCurve("a"))
	b, _ := c.AddCurve(develop.LinearCurve("b"))
	if err := c.RemoveCurve(b); err != nil {
		t.Fatal(err)
	}
	if c.CurveIndex != a {
		t.Errorf("curve index=%d; want %d", c.CurveIndex, a)
	}
	if err := c.RemoveCurve(LinearCurve); err == nil {
		t.Errorf("expected error removing built-in curve")
	}
	if err := c.RemoveBaseCurve(UserCurves); err == nil {
		t.Errorf("expected error removing missing base curve")
	}
}

func TestZoomSteps(t *testing.T) {
	tcs := []struct {
		scale   int
		zoom    float64
		in, out int
	}{
		{4, 25, 3, 5},
		{2, 50, 2, 3},
		{20, 5, 19, 20},
		{0, 30, 3, 4},
		{0, 25, 3, 5},
	}
	for _, tc := range tcs {
		c := Default()
		c.Scale, c.Zoom = tc.scale, tc.zoom
		c.ZoomIn()
		if c.Scale != tc.in {
			t.Errorf("zoom in from scale=%d zoom=%g gave %d; want %d", tc.scale, tc.zoom, c.Scale, tc.in)
		}
		c.Scale, c.Zoom = tc.scale, tc.zoom
		c.ZoomOut()
		if c.Scale != tc.out {
			t.Errorf("zoom out from scale=%d zoom=%g gave %d; want %d", tc.scale, tc.zoom, c.Scale, tc.out)
		}
		if c.Zoom != 100/float64(c.Scale) {
			t.Errorf("zoom=%g not matching scale %d", c.Zoom, c.Scale)
		}
	}
}

func TestInvalidateAuto(t *testing.T) {
	c := Default()
	c.AutoExposure = AutoEnabled
	c.InvalidateAuto()
	if c.AutoExposure != AutoApply || c.AutoBlack != AutoDisabled {
		t.Errorf("auto states %v %v; want apply disabled", c.AutoExposure, c.AutoBlack)
	}
}

func TestSetChanMul(t *testing.T) {
	c := Default()
	if err := c.SetChanMul(0, 2); err != nil {
		t.Fatal(err)
	}
	if c.WB != ManualWB || c.ChanMul[0] != 2 {
		t.Errorf("wb=%q chanMul=%v", c.WB, c.ChanMul)
	}
	if err := c.SetChanMul(1, 0); err == nil {
		t.Errorf("expected error for zero multiplier")
	}
	c.ResetWB([raw.MaxColors]float64{1.5, 1, 1.2, 0})
	if c.WB != CameraWB || c.ChanMul[0] != 1.5 {
		t.Errorf("reset wb=%q chanMul=%v", c.WB, c.ChanMul)
	}
}
