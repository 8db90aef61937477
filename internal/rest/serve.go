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

// Package rest exposes a preview over HTTP. All handlers run their preview
// calls on the loop goroutine, which owns the preview.
package rest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mlnoga/rawpreview/internal/bitmap"
	"github.com/mlnoga/rawpreview/internal/config"
	"github.com/mlnoga/rawpreview/internal/loop"
	"github.com/mlnoga/rawpreview/internal/preview"
	"github.com/mlnoga/rawpreview/internal/stats"
	"github.com/mlnoga/rawpreview/web"
)

type Server struct {
	loop *loop.Loop
	pv   *preview.Preview
}

func NewServer(l *loop.Loop, pv *preview.Preview) *Server {
	return &Server{loop: l, pv: pv}
}

// Builds the gin engine with all routes on top of the given middleware
func (s *Server) Router(middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware...)
	r.GET("/", getIndex)
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.POST("/render", s.postRender)
			v1.GET("/conf", s.getConf)
			v1.PUT("/conf", s.putConf)
			v1.POST("/param", s.postParam)
			v1.POST("/action", s.postAction)
			v1.POST("/toggle", s.postToggle)
			v1.POST("/wb", s.postWB)
			v1.GET("/spot", s.getSpot)
			v1.POST("/spot", s.postSpot)
			v1.DELETE("/spot", s.deleteSpot)
			v1.POST("/spot/wb", s.postSpotWB)
			v1.GET("/stats", s.getStats)
			v1.GET("/bitmap/:name", s.getBitmap)
		}
	}
	return r
}

// Runs the loop and serves HTTP on addr until ctx is cancelled
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router(gin.Logger(), gin.Recovery())}
	loopErr := make(chan error, 1)
	go func() { loopErr <- s.loop.Run(ctx) }()
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	s.loop.Post(func() { s.pv.Render(preview.RenderDefault) })
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		err = nil
	}
	if lerr := <-loopErr; err == nil && lerr != context.Canceled {
		err = lerr
	}
	return err
}

// Runs fn on the loop goroutine. Writes an error response and returns false on failure
func (s *Server) invoke(c *gin.Context, fn func() error) bool {
	var err error
	if ierr := s.loop.Invoke(c.Request.Context(), func() { err = fn() }); ierr != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ierr.Error()})
		return false
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func getIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

func getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

func (s *Server) postRender(c *gin.Context) {
	mode, err := preview.RenderModeFromString(c.DefaultQuery("mode", preview.RenderDefault.String()))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.invoke(c, func() error { s.pv.Render(mode); return nil }) {
		c.JSON(http.StatusAccepted, gin.H{"mode": mode.String()})
	}
}

func (s *Server) getConf(c *gin.Context) {
	var conf *config.Conf
	if s.invoke(c, func() error { conf = s.pv.Conf().Clone(); return nil }) {
		c.JSON(http.StatusOK, conf)
	}
}

func (s *Server) putConf(c *gin.Context) {
	var conf config.Conf
	if err := c.ShouldBindJSON(&conf); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.invoke(c, func() error {
		return s.pv.Batch(func(cur *config.Conf) error {
			*cur = conf
			if cur.WB == config.CameraWB {
				cur.ChanMul = s.pv.InitialChanMul()
			}
			return nil
		})
	}) {
		c.JSON(http.StatusAccepted, &conf)
	}
}

type paramArgs struct {
	Param string  `json:"param" binding:"required"`
	Value float64 `json:"value"`
}

func (s *Server) postParam(c *gin.Context) {
	var args paramArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	par, err := preview.ParamFromString(args.Param)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var changed bool
	var value float64
	if s.invoke(c, func() (err error) {
		if changed, err = s.pv.Adjust(par, args.Value); err != nil {
			return err
		}
		value, err = s.pv.Value(par)
		return err
	}) {
		c.JSON(http.StatusOK, gin.H{"param": par.String(), "value": value, "changed": changed})
	}
}

type actionArgs struct {
	Action string `json:"action" binding:"required"`
}

func (s *Server) postAction(c *gin.Context) {
	var args actionArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := preview.ActionFromString(args.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.invoke(c, func() error { return s.pv.Do(a) }) {
		c.JSON(http.StatusAccepted, gin.H{"action": a.String()})
	}
}

type toggleArgs struct {
	Toggle string `json:"toggle" binding:"required"`
	On     bool   `json:"on"`
}

func (s *Server) postToggle(c *gin.Context) {
	var args toggleArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := preview.ToggleFromString(args.Toggle)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.invoke(c, func() error { return s.pv.Set(t, args.On) }) {
		c.JSON(http.StatusAccepted, gin.H{"toggle": t.String(), "on": args.On})
	}
}

type wbArgs struct {
	Preset string `json:"preset" binding:"required"`
}

func (s *Server) postWB(c *gin.Context) {
	var args wbArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var mul [4]float64
	if s.invoke(c, func() error {
		err := s.pv.SetWBPreset(args.Preset)
		mul = s.pv.Conf().ChanMul
		return err
	}) {
		c.JSON(http.StatusAccepted, gin.H{"preset": args.Preset, "chanMul": mul})
	}
}

type spotArgs struct {
	Phase string `json:"phase" binding:"required"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
}

type spotResult struct {
	Spot    preview.Spot `json:"spot"`
	Valid   bool         `json:"valid"`
	Average [3]float64   `json:"average"`
	Hex     string       `json:"hex,omitempty"`
}

func (s *Server) currentSpot() spotResult {
	avg, ok := s.pv.SpotAverage()
	hex, _ := s.pv.SpotHex()
	return spotResult{Spot: s.pv.Spot(), Valid: ok, Average: avg, Hex: hex}
}

func (s *Server) getSpot(c *gin.Context) {
	var res spotResult
	if s.invoke(c, func() error { res = s.currentSpot(); return nil }) {
		c.JSON(http.StatusOK, res)
	}
}

func (s *Server) postSpot(c *gin.Context) {
	var args spotArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var res spotResult
	if s.invoke(c, func() error {
		switch args.Phase {
		case "press":
			s.pv.SpotPress(args.X, args.Y)
		case "drag":
			s.pv.SpotDrag(args.X, args.Y)
		case "release":
			s.pv.SpotRelease(args.X, args.Y)
		default:
			return fmt.Errorf("unknown spot phase %q", args.Phase)
		}
		res = s.currentSpot()
		return nil
	}) {
		c.JSON(http.StatusOK, res)
	}
}

func (s *Server) deleteSpot(c *gin.Context) {
	if s.invoke(c, func() error { s.pv.ClearSpot(); return nil }) {
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) postSpotWB(c *gin.Context) {
	var mul [4]float64
	if s.invoke(c, func() error {
		if !s.pv.Spot().Valid() {
			return fmt.Errorf("no spot selected")
		}
		s.pv.SpotWB()
		mul = s.pv.Conf().ChanMul
		return nil
	}) {
		c.JSON(http.StatusAccepted, gin.H{"chanMul": mul})
	}
}

type statsResult struct {
	Passes     int               `json:"passes"`
	Idle       bool              `json:"idle"`
	Progress   float64           `json:"progress"`
	Mode       string            `json:"mode"`
	Statistics *stats.Statistics `json:"statistics"`
	Text       string            `json:"text,omitempty"`
}

func (s *Server) getStats(c *gin.Context) {
	var res statsResult
	if s.invoke(c, func() error {
		res = statsResult{
			Passes:   s.pv.Passes(),
			Idle:     s.pv.Idle(),
			Progress: s.pv.Progress(),
			Mode:     s.pv.Mode().String(),
		}
		if st := s.pv.Statistics(); st != nil {
			cp := *st
			res.Statistics, res.Text = &cp, cp.String()
		}
		return nil
	}) {
		c.JSON(http.StatusOK, res)
	}
}

func (s *Server) getBitmap(c *gin.Context) {
	name := c.Param("name")
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "missing file suffix"})
		return
	}
	base, suffix := name[:dot], name[dot:]
	var b *bitmap.RGB
	if !s.invoke(c, func() error {
		switch base {
		case "raw":
			b = s.pv.RawHistogramBitmap()
		case "live":
			b = s.pv.LiveHistogramBitmap()
		case "frame":
			b = s.pv.Frame()
		case "composite":
			b = s.pv.Composite()
			return nil
		default:
			return fmt.Errorf("unknown bitmap %q", base)
		}
		if b != nil {
			b = b.Clone()
		}
		return nil
	}) {
		return
	}
	if b == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not rendered yet"})
		return
	}

	var buf bytes.Buffer
	if err := b.Write(&buf, suffix, 95); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, contentType(suffix), buf.Bytes())
}

func contentType(suffix string) string {
	switch strings.ToLower(suffix) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	}
	return "image/png"
}
