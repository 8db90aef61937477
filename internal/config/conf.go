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

// Package config holds the adjustable parameters of the preview.
package config

import (
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v2"

	"github.com/mlnoga/rawpreview/internal/develop"
	"github.com/mlnoga/rawpreview/internal/raw"
)

// White balance presets
const (
	CameraWB = "Camera WB"
	AutoWB   = "Auto WB"
	SpotWB   = "Spot WB"
	ManualWB = "Manual WB"
)

// Profile kinds
const (
	ProfileIn    = 0
	ProfileOut   = 1
	ProfileKinds = 2
)

// Indices of the built-in curves, in both base and luminosity collections
const (
	ManualCurve = 0
	LinearCurve = 1
	UserCurves  = 2 // First index of user-added curves
)

// Index of the first user-added profile, per kind
const UserProfiles = 2

// Limits of numeric parameters
const (
	ExposureMin   = -3.0
	ExposureMax   = 3.0
	SaturationMax = 8.0
	MinScale      = 2
	MaxScale      = 20
	MinZoom       = 5.0
	MaxZoom       = 50.0
)

// Default values
const (
	DefaultExposure   = 0.0
	DefaultSaturation = 1.0
	DefaultBlack      = 0.0
	DefaultHisHeight  = 128
	DefaultScale      = 4
	DefaultChunkRows  = 32
)

// All adjustable parameters of the preview
type Conf struct {
	WB             string                          `json:"wb"`
	ChanMul        [raw.MaxColors]float64          `json:"chanMul"`
	Exposure       float64                         `json:"exposure"`
	Saturation     float64                         `json:"saturation"`
	Unclip         bool                            `json:"unclip"`
	AutoExposure   AutoState                       `json:"autoExposure"`
	AutoBlack      AutoState                       `json:"autoBlack"`
	Intent         develop.Intent                  `json:"intent"`
	Profiles       [ProfileKinds][]develop.Profile `json:"profiles"`
	ProfileIndex   [ProfileKinds]int               `json:"profileIndex"`
	BaseCurves     []develop.Curve                 `json:"baseCurves"`
	BaseCurveIndex int                             `json:"baseCurveIndex"`
	Curves         []develop.Curve                 `json:"curves"`
	CurveIndex     int                             `json:"curveIndex"`

	HistogramMode       HistogramMode `json:"histogramMode"`
	RawHistogramScale   Scale         `json:"rawHistogramScale"`
	LiveHistogramScale  Scale         `json:"liveHistogramScale"`
	RawHistogramHeight  int           `json:"rawHistogramHeight"`
	LiveHistogramHeight int           `json:"liveHistogramHeight"`
	OverExp             bool          `json:"overExp"`
	UnderExp            bool          `json:"underExp"`

	Zoom      float64 `json:"zoom"`      // Zoom in percent of the full image, used when Scale is 0
	Scale     int     `json:"scale"`     // Shrink factor, 0 selects Zoom
	ChunkRows int     `json:"chunkRows"` // Rows developed per cooperative step
}

// Creates a configuration with default values
func Default() *Conf {
	return &Conf{
		WB:           CameraWB,
		ChanMul:      [raw.MaxColors]float64{1, 1, 1, 0},
		Exposure:     DefaultExposure,
		Saturation:   DefaultSaturation,
		AutoExposure: AutoDisabled,
		AutoBlack:    AutoDisabled,
		Intent:       develop.Perceptual,
		Profiles: [ProfileKinds][]develop.Profile{
			{develop.DefaultInputProfile(), develop.SRGBInputProfile()},
			{{Name: develop.ProfileSRGB}, {Name: develop.ProfileLinear}},
		},
		BaseCurves:          []develop.Curve{develop.LinearCurve("Manual curve"), develop.LinearCurve("Linear curve")},
		BaseCurveIndex:      LinearCurve,
		Curves:              []develop.Curve{develop.LinearCurve("Manual curve"), develop.LinearCurve("Linear curve")},
		CurveIndex:          LinearCurve,
		HistogramMode:       HistogramRGB,
		RawHistogramScale:   ScaleLinear,
		LiveHistogramScale:  ScaleLinear,
		RawHistogramHeight:  DefaultHisHeight,
		LiveHistogramHeight: DefaultHisHeight,
		Zoom:                100.0 / DefaultScale,
		Scale:               DefaultScale,
		ChunkRows:           DefaultChunkRows,
	}
}

// Unmarshal a configuration from JSON, with default values for unspecified fields
func (c *Conf) UnmarshalJSON(data []byte) error {
	type defaults Conf
	def := defaults(*Default())
	err := json.Unmarshal(data, &def)
	if err != nil {
		return err
	}
	*c = Conf(def)
	return c.Check()
}

// Returns a deep copy
func (c *Conf) Clone() *Conf {
	out := *c
	for k := range c.Profiles {
		out.Profiles[k] = append([]develop.Profile(nil), c.Profiles[k]...)
	}
	out.BaseCurves = cloneCurves(c.BaseCurves)
	out.Curves = cloneCurves(c.Curves)
	return &out
}

func cloneCurves(cs []develop.Curve) []develop.Curve {
	out := make([]develop.Curve, len(cs))
	for i, c := range cs {
		out[i] = c.Clone()
	}
	return out
}

// Validates indices and ranges
func (c *Conf) Check() error {
	for k := range c.Profiles {
		if c.ProfileIndex[k] < 0 || c.ProfileIndex[k] >= len(c.Profiles[k]) {
			return fmt.Errorf("profile index %d of kind %d out of range [0,%d)", c.ProfileIndex[k], k, len(c.Profiles[k]))
		}
	}
	if c.BaseCurveIndex < 0 || c.BaseCurveIndex >= len(c.BaseCurves) {
		return fmt.Errorf("base curve index %d out of range [0,%d)", c.BaseCurveIndex, len(c.BaseCurves))
	}
	if c.CurveIndex < 0 || c.CurveIndex >= len(c.Curves) {
		return fmt.Errorf("curve index %d out of range [0,%d)", c.CurveIndex, len(c.Curves))
	}
	if len(c.BaseCurves) < UserCurves || len(c.Curves) < UserCurves {
		return fmt.Errorf("built-in curves missing")
	}
	for _, cs := range [][]develop.Curve{c.BaseCurves, c.Curves} {
		for _, curve := range cs {
			if err := curve.Check(); err != nil {
				return err
			}
		}
	}
	for i, m := range c.ChanMul {
		if m < 0 || (m == 0 && i < raw.MaxColors-1) || math.IsNaN(m) {
			return fmt.Errorf("channel multiplier %d is %g, must be positive", i, m)
		}
	}
	if c.Scale != 0 && (c.Scale < 1 || c.Scale > MaxScale) {
		return fmt.Errorf("scale %d out of range [1,%d]", c.Scale, MaxScale)
	}
	if c.Scale == 0 && (c.Zoom < MinZoom || c.Zoom > MaxZoom) {
		return fmt.Errorf("zoom %g%% out of range [%g,%g]", c.Zoom, MinZoom, MaxZoom)
	}
	if c.RawHistogramHeight < 1 || c.LiveHistogramHeight < 1 {
		return fmt.Errorf("histogram heights %d and %d must be positive", c.RawHistogramHeight, c.LiveHistogramHeight)
	}
	if c.ChunkRows < 1 {
		return fmt.Errorf("chunk rows %d must be positive", c.ChunkRows)
	}
	return nil
}

// Returns the configuration in YAML format
func (c *Conf) AsYaml() (string, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Returns the active profile of the given kind
func (c *Conf) ActiveProfile(kind int) develop.Profile {
	return c.Profiles[kind][c.ProfileIndex[kind]]
}

// Selects the active profile of the given kind
func (c *Conf) SelectProfile(kind, i int) error {
	if i < 0 || i >= len(c.Profiles[kind]) {
		return fmt.Errorf("profile %d of kind %d out of range", i, kind)
	}
	c.ProfileIndex[kind] = i
	return nil
}

// Sets the gamma of profile i of the given kind
func (c *Conf) SetProfileGamma(kind, i int, gamma float64) error {
	if i < 0 || i >= len(c.Profiles[kind]) {
		return fmt.Errorf("profile %d of kind %d out of range", i, kind)
	}
	c.Profiles[kind][i].Gamma = gamma
	return nil
}

// Sets the linearity of profile i of the given kind
func (c *Conf) SetProfileLinear(kind, i int, linear float64) error {
	if i < 0 || i >= len(c.Profiles[kind]) {
		return fmt.Errorf("profile %d of kind %d out of range", i, kind)
	}
	c.Profiles[kind][i].Linear = linear
	return nil
}

// Sets whether profile i of the given kind applies the camera matrix
func (c *Conf) SetProfileUseMatrix(kind, i int, useMatrix bool) error {
	if i < 0 || i >= len(c.Profiles[kind]) {
		return fmt.Errorf("profile %d of kind %d out of range", i, kind)
	}
	c.Profiles[kind][i].UseMatrix = useMatrix
	return nil
}

// Appends a profile of the given kind and selects it
func (c *Conf) AddProfile(kind int, p develop.Profile) int {
	c.Profiles[kind] = append(c.Profiles[kind], p)
	c.ProfileIndex[kind] = len(c.Profiles[kind]) - 1
	return c.ProfileIndex[kind]
}

// Removes a user-added profile. If the active one was the last in the list,
// its predecessor becomes active
func (c *Conf) RemoveProfile(kind, i int) error {
	ps := c.Profiles[kind]
	if i < UserProfiles || i >= len(ps) {
		return fmt.Errorf("cannot remove profile %d of kind %d", i, kind)
	}
	c.Profiles[kind] = append(ps[:i], ps[i+1:]...)
	if c.ProfileIndex[kind] >= len(c.Profiles[kind]) {
		c.ProfileIndex[kind] = len(c.Profiles[kind]) - 1
	}
	return nil
}

// Restores the default gamma of the active input profile
func (c *Conf) ResetGamma() {
	i := c.ProfileIndex[ProfileIn]
	c.Profiles[ProfileIn][i].Gamma = ProfileDefaultGamma(c.Profiles[ProfileIn][i])
}

// Restores the default linearity of the active input profile
func (c *Conf) ResetLinear() {
	i := c.ProfileIndex[ProfileIn]
	c.Profiles[ProfileIn][i].Linear = ProfileDefaultLinear(c.Profiles[ProfileIn][i])
}

// Default gamma of a profile
func ProfileDefaultGamma(p develop.Profile) float64 {
	if p.Name == develop.ProfileSRGB {
		return 0
	}
	return develop.DefaultGamma
}

// Default linearity of a profile
func ProfileDefaultLinear(p develop.Profile) float64 {
	if p.Name == develop.ProfileSRGB {
		return 0
	}
	return develop.DefaultLinear
}

// Returns the active base curve
func (c *Conf) ActiveBaseCurve() develop.Curve { return c.BaseCurves[c.BaseCurveIndex] }

// Returns the active luminosity curve
func (c *Conf) ActiveCurve() develop.Curve { return c.Curves[c.CurveIndex] }

// Selects the active base curve
func (c *Conf) SelectBaseCurve(i int) error {
	if i < 0 || i >= len(c.BaseCurves) {
		return fmt.Errorf("base curve %d out of range", i)
	}
	c.BaseCurveIndex = i
	return nil
}

// Selects the active luminosity curve
func (c *Conf) SelectCurve(i int) error {
	if i < 0 || i >= len(c.Curves) {
		return fmt.Errorf("curve %d out of range", i)
	}
	c.CurveIndex = i
	return nil
}

// Stores an edited base curve as the manual curve and selects it
func (c *Conf) EditBaseCurve(curve develop.Curve) error {
	if err := curve.Check(); err != nil {
		return err
	}
	curve = curve.Clone()
	curve.Name = c.BaseCurves[ManualCurve].Name
	c.BaseCurves[ManualCurve], c.BaseCurveIndex = curve, ManualCurve
	return nil
}

// Stores an edited luminosity curve as the manual curve and selects it
func (c *Conf) EditCurve(curve develop.Curve) error {
	if err := curve.Check(); err != nil {
		return err
	}
	curve = curve.Clone()
	curve.Name = c.Curves[ManualCurve].Name
	c.Curves[ManualCurve], c.CurveIndex = curve, ManualCurve
	return nil
}

// Sets anchor n of luminosity curve i
func (c *Conf) SetCurvePoint(i, n int, p develop.Point) error {
	if i < 0 || i >= len(c.Curves) {
		return fmt.Errorf("curve %d out of range", i)
	}
	curve := c.Curves[i]
	if n < 0 || n >= len(curve.Points) {
		return fmt.Errorf("anchor %d of curve %q out of range", n, curve.Name)
	}
	if n+1 < len(curve.Points) && p.X >= curve.Points[n+1].X {
		return fmt.Errorf("anchor %d of curve %q must stay left of its successor", n, curve.Name)
	}
	curve.Points[n] = p
	return nil
}

// Black point, the x of anchor 0 of the active luminosity curve
func (c *Conf) Black() float64 { return c.Curves[c.CurveIndex].Points[0].X }

// Sets the black point of the active luminosity curve
func (c *Conf) SetBlack(black float64) error {
	return c.SetCurvePoint(c.CurveIndex, 0, develop.Point{X: black, Y: 0})
}

// Resets the base curve. The manual curve is straightened, any other selection
// falls back to the linear curve
func (c *Conf) ResetBaseCurve() {
	if c.BaseCurveIndex == ManualCurve {
		c.BaseCurves[ManualCurve].Points = []develop.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}
	} else {
		c.BaseCurveIndex = LinearCurve
	}
}

// Resets the luminosity curve. The manual curve keeps its black point
func (c *Conf) ResetCurve() {
	if c.CurveIndex == ManualCurve {
		black := c.Curves[ManualCurve].Points[0]
		c.Curves[ManualCurve].Points = []develop.Point{black, {X: 1, Y: 1}}
	} else {
		c.CurveIndex = LinearCurve
	}
}

// Appends a user curve to the base collection and selects it
func (c *Conf) AddBaseCurve(curve develop.Curve) (int, error) {
	if err := curve.Check(); err != nil {
		return 0, err
	}
	c.BaseCurves = append(c.BaseCurves, curve.Clone())
	c.BaseCurveIndex = len(c.BaseCurves) - 1
	return c.BaseCurveIndex, nil
}

// Appends a user curve to the luminosity collection and selects it
func (c *Conf) AddCurve(curve develop.Curve) (int, error) {
	if err := curve.Check(); err != nil {
		return 0, err
	}
	c.Curves = append(c.Curves, curve.Clone())
	c.CurveIndex = len(c.Curves) - 1
	return c.CurveIndex, nil
}

// Removes a user-added base curve
func (c *Conf) RemoveBaseCurve(i int) error {
	var err error
	c.BaseCurves, c.BaseCurveIndex, err = removeCurve(c.BaseCurves, c.BaseCurveIndex, i)
	return err
}

// Removes a user-added luminosity curve
func (c *Conf) RemoveCurve(i int) error {
	var err error
	c.Curves, c.CurveIndex, err = removeCurve(c.Curves, c.CurveIndex, i)
	return err
}

func removeCurve(cs []develop.Curve, active, i int) ([]develop.Curve, int, error) {
	if i < UserCurves || i >= len(cs) {
		return cs, active, fmt.Errorf("cannot remove curve %d", i)
	}
	cs = append(cs[:i], cs[i+1:]...)
	if active >= len(cs) {
		active = len(cs) - 1
	}
	return cs, active, nil
}

// Resets the white balance to the camera multipliers found on load
func (c *Conf) ResetWB(initial [raw.MaxColors]float64) {
	c.WB, c.ChanMul = CameraWB, initial
}

// Sets channel multiplier i, switching to the manual preset
func (c *Conf) SetChanMul(i int, v float64) error {
	if i < 0 || i >= raw.MaxColors {
		return fmt.Errorf("channel %d out of range", i)
	}
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("invalid channel multiplier %g", v)
	}
	c.ChanMul[i], c.WB = v, ManualWB
	return nil
}

// Marks enabled automatic adjustments for recomputation
func (c *Conf) InvalidateAuto() {
	c.AutoExposure.Invalidate()
	c.AutoBlack.Invalidate()
}

// Decreases the shrink factor by one step within [MinScale, MaxScale]. If the zoom
// percentage is in use, steps to the next larger integer zoom
func (c *Conf) ZoomIn() {
	if c.Scale == 0 {
		c.clampZoomForStep()
		c.Scale = int(math.Floor(100 / c.Zoom))
		if float64(c.Scale) == 100/c.Zoom {
			c.Scale--
		}
	} else {
		c.Scale--
	}
	if c.Scale < MinScale {
		c.Scale = MinScale
	}
	if c.Scale > MaxScale {
		c.Scale = MaxScale
	}
	c.Zoom = 100.0 / float64(c.Scale)
}

// Increases the shrink factor by one step within [MinScale, MaxScale]. If the zoom
// percentage is in use, steps to the next smaller integer zoom
func (c *Conf) ZoomOut() {
	if c.Scale == 0 {
		c.clampZoomForStep()
		c.Scale = int(math.Ceil(100 / c.Zoom))
		if float64(c.Scale) == 100/c.Zoom {
			c.Scale++
		}
	} else {
		c.Scale++
	}
	if c.Scale < MinScale {
		c.Scale = MinScale
	}
	if c.Scale > MaxScale {
		c.Scale = MaxScale
	}
	c.Zoom = 100.0 / float64(c.Scale)
}

func (c *Conf) clampZoomForStep() {
	if c.Zoom < 100.0/MaxScale {
		c.Zoom = 100.0 / (MaxScale + 1)
	}
}

// Sets the zoom percentage, which takes precedence over the shrink factor
func (c *Conf) SetZoom(percent float64) {
	c.Zoom = math.Max(MinZoom, math.Min(MaxZoom, percent))
	c.Scale = 0
}

// Color pipeline parameters for the given raw image
func (c *Conf) Params(img *raw.Image) *develop.Params {
	in := c.ActiveProfile(ProfileIn)
	return &develop.Params{
		RGBMax:     img.RGBMax,
		Exposure:   c.Exposure,
		Unclip:     c.Unclip,
		ChanMul:    c.ChanMul,
		Colors:     img.Colors,
		UseMatrix:  in.UseMatrix,
		Input:      in,
		Output:     c.ActiveProfile(ProfileOut),
		Intent:     c.Intent,
		Saturation: c.Saturation,
		BaseCurve:  c.ActiveBaseCurve().Clone(),
		Curve:      c.ActiveCurve().Clone(),
	}
}
