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
	"github.com/mlnoga/rawpreview/internal/develop"
)

// User actions without a value
type Action int

const (
	ActionResetWB Action = iota
	ActionResetGamma
	ActionResetLinear
	ActionResetExposure
	ActionResetSaturation
	ActionResetBlack
	ActionResetBaseCurve
	ActionResetCurve
	ActionZoomIn
	ActionZoomOut
	ActionSpotWB
)

var actionNames = []string{"resetWB", "resetGamma", "resetLinear", "resetExposure", "resetSaturation",
	"resetBlack", "resetBaseCurve", "resetCurve", "zoomIn", "zoomOut", "spotWB"}

func (a Action) String() string { return enumName(actionNames, int(a)) }

// Parses an action name
func ActionFromString(s string) (Action, error) {
	i, err := enumParse(actionNames, s, "action")
	return Action(i), err
}

// Boolean options
type Toggle int

const (
	ToggleAutoExposure Toggle = iota
	ToggleAutoBlack
	ToggleUnclip
	ToggleUseMatrix
	ToggleOverExp
	ToggleUnderExp
)

var toggleNames = []string{"autoExposure", "autoBlack", "unclip", "useMatrix", "overExp", "underExp"}

func (t Toggle) String() string { return enumName(toggleNames, int(t)) }

// Parses a toggle name
func ToggleFromString(s string) (Toggle, error) {
	i, err := enumParse(toggleNames, s, "toggle")
	return Toggle(i), err
}

// Numeric parameters
type Param int

const (
	ParamExposure Param = iota
	ParamSaturation
	ParamGamma
	ParamLinear
	ParamBlack
	ParamZoom
	ParamChanMul0
	ParamChanMul1
	ParamChanMul2
	ParamChanMul3
)

var paramNames = []string{"exposure", "saturation", "gamma", "linear", "black", "zoom",
	"chanMul0", "chanMul1", "chanMul2", "chanMul3"}

// Number of displayed decimals per parameter. Changes below half a unit of
// the last displayed digit are ignored
var paramAccuracy = []int{2, 3, 2, 2, 3, 0, 3, 3, 3, 3}

func (p Param) String() string { return enumName(paramNames, int(p)) }

// Parses a parameter name
func ParamFromString(s string) (Param, error) {
	i, err := enumParse(paramNames, s, "parameter")
	return Param(i), err
}

// Dispatches an action and re-renders
func (p *Preview) Do(a Action) error {
	if p.Frozen() {
		return nil
	}
	c := p.conf
	switch a {
	case ActionResetWB:
		c.ResetWB(p.initialChanMul)
	case ActionResetGamma:
		c.ResetGamma()
	case ActionResetLinear:
		c.ResetLinear()
	case ActionResetExposure:
		c.Exposure, c.AutoExposure = config.DefaultExposure, config.AutoDisabled
	case ActionResetSaturation:
		c.Saturation = config.DefaultSaturation
	case ActionResetBlack:
		if err := c.SetBlack(config.DefaultBlack); err != nil {
			return err
		}
		c.AutoBlack = config.AutoDisabled
	case ActionResetBaseCurve:
		c.ResetBaseCurve()
	case ActionResetCurve:
		c.ResetCurve()
	case ActionZoomIn:
		return p.ZoomIn()
	case ActionZoomOut:
		return p.ZoomOut()
	case ActionSpotWB:
		p.SpotWB()
		return nil
	default:
		return fmt.Errorf("unknown action %d", a)
	}
	p.ParameterChanged()
	return nil
}

// Sets a boolean option and re-renders
func (p *Preview) Set(t Toggle, on bool) error {
	if p.Frozen() {
		return nil
	}
	c := p.conf
	switch t {
	case ToggleAutoExposure:
		c.AutoExposure = autoState(on)
	case ToggleAutoBlack:
		c.AutoBlack = autoState(on)
	case ToggleUnclip:
		c.Unclip = on
		c.AutoExposure.Invalidate()
	case ToggleUseMatrix:
		if err := c.SetProfileUseMatrix(config.ProfileIn, c.ProfileIndex[config.ProfileIn], on); err != nil {
			return err
		}
		c.AutoExposure.Invalidate()
	case ToggleOverExp:
		c.OverExp = on
	case ToggleUnderExp:
		c.UnderExp = on
	default:
		return fmt.Errorf("unknown toggle %d", t)
	}
	p.update()
	return nil
}

// Turning an adjustment on schedules it for the next render
func autoState(on bool) config.AutoState {
	if on {
		return config.AutoApply
	}
	return config.AutoDisabled
}

// Current value of a numeric parameter
func (p *Preview) Value(par Param) (float64, error) {
	c := p.conf
	switch par {
	case ParamExposure:
		return c.Exposure, nil
	case ParamSaturation:
		return c.Saturation, nil
	case ParamGamma:
		return c.ActiveProfile(config.ProfileIn).Gamma, nil
	case ParamLinear:
		return c.ActiveProfile(config.ProfileIn).Linear, nil
	case ParamBlack:
		return c.Black(), nil
	case ParamZoom:
		return c.Zoom, nil
	case ParamChanMul0, ParamChanMul1, ParamChanMul2, ParamChanMul3:
		return c.ChanMul[par-ParamChanMul0], nil
	}
	return 0, fmt.Errorf("unknown parameter %d", par)
}

// Sets a numeric parameter and re-renders. Returns false if the change was below
// the display accuracy of the parameter and therefore ignored
func (p *Preview) Adjust(par Param, v float64) (bool, error) {
	if p.Frozen() {
		return false, nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false, fmt.Errorf("invalid value %g for %s", v, par)
	}
	old, err := p.Value(par)
	if err != nil {
		return false, err
	}
	if math.Abs(old-v) < math.Pow(10, -float64(paramAccuracy[par]))/2 {
		return false, nil
	}

	c := p.conf
	in := c.ProfileIndex[config.ProfileIn]
	switch par {
	case ParamExposure:
		c.Exposure = math.Max(config.ExposureMin, math.Min(config.ExposureMax, v))
		c.AutoExposure = config.AutoDisabled
		c.AutoBlack.Invalidate()
	case ParamSaturation:
		c.Saturation = math.Max(0, math.Min(config.SaturationMax, v))
		c.InvalidateAuto()
	case ParamGamma:
		err = c.SetProfileGamma(config.ProfileIn, in, v)
		c.InvalidateAuto()
	case ParamLinear:
		err = c.SetProfileLinear(config.ProfileIn, in, v)
		c.InvalidateAuto()
	case ParamBlack:
		err = c.SetBlack(v)
		c.AutoBlack = config.AutoDisabled
	case ParamZoom:
		return true, p.SetZoom(v)
	case ParamChanMul0, ParamChanMul1, ParamChanMul2, ParamChanMul3:
		err = c.SetChanMul(int(par-ParamChanMul0), v)
		c.InvalidateAuto()
	}
	if err != nil {
		return false, err
	}
	p.update()
	return true, nil
}

// Reports whether an action would change anything, for enabling reset buttons
func (p *Preview) Sensitive(a Action) bool {
	c := p.conf
	switch a {
	case ActionResetWB:
		return c.WB != config.CameraWB || c.ChanMul != p.initialChanMul
	case ActionResetGamma:
		in := c.ActiveProfile(config.ProfileIn)
		return math.Abs(in.Gamma-config.ProfileDefaultGamma(in)) > 0.001
	case ActionResetLinear:
		in := c.ActiveProfile(config.ProfileIn)
		return math.Abs(in.Linear-config.ProfileDefaultLinear(in)) > 0.001
	case ActionResetExposure:
		return math.Abs(c.Exposure-config.DefaultExposure) > 0.001
	case ActionResetSaturation:
		return math.Abs(c.Saturation-config.DefaultSaturation) > 0.001
	case ActionResetBlack:
		p0 := c.ActiveCurve().Points[0]
		return p0.X != 0 || p0.Y != 0
	case ActionResetBaseCurve:
		return !isStraight(c.ActiveBaseCurve().Points, 0)
	case ActionResetCurve:
		return !isStraight(c.ActiveCurve().Points, 1)
	case ActionZoomIn:
		if c.Scale == 0 {
			return c.Zoom < config.MaxZoom
		}
		return c.Scale > config.MinScale
	case ActionZoomOut:
		if c.Scale == 0 {
			return c.Zoom > 100.0/config.MaxScale
		}
		return c.Scale < config.MaxScale
	case ActionSpotWB:
		return p.spot.Valid()
	}
	return false
}

// Reports whether a curve is the two anchor identity, checking anchors from index first on
func isStraight(points []develop.Point, first int) bool {
	if len(points) != 2 {
		return false
	}
	if first == 0 && (points[0].X != 0 || points[0].Y != 0) {
		return false
	}
	return points[1].X == 1 && points[1].Y == 1
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("unknown(%d)", i)
	}
	return names[i]
}

func enumParse(names []string, s, what string) (int, error) {
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", what, s)
}
