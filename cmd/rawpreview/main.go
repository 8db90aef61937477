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

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"

	rp "github.com/mlnoga/rawpreview/internal"
	"github.com/mlnoga/rawpreview/internal/config"
	"github.com/mlnoga/rawpreview/internal/develop"
	"github.com/mlnoga/rawpreview/internal/loop"
	"github.com/mlnoga/rawpreview/internal/preview"
	"github.com/mlnoga/rawpreview/internal/raw"
	"github.com/mlnoga/rawpreview/internal/rest"
	"github.com/mlnoga/rawpreview/internal/sheet"
)

const version = "0.1.0"

var totalMiBs = memory.TotalMemory() / 1024 / 1024

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")

var out = flag.String("out", "out.jpg", "save developed preview to `file`, format by suffix .jpg, .png or .tif")
var quality = flag.Int("quality", 95, "JPEG quality")
var contact = flag.String("sheet", "", "save contact sheet of preview, histograms and statistics to PNG `file`")
var rawHist = flag.String("rawHist", "", "save raw histogram to `file`")
var liveHist = flag.String("liveHist", "", "save live histogram to `file`")
var log = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of output file with .log")
var confFile = flag.String("conf", "", "load settings from JSON `file`. Flags given explicitly override it")
var verbose = flag.Bool("verbose", false, "print the effective settings as YAML")

var exposure = flag.Float64("exposure", config.DefaultExposure, "exposure correction in EV, within [-3,3]")
var saturation = flag.Float64("saturation", config.DefaultSaturation, "saturation, within [0,8]")
var black = flag.Float64("black", config.DefaultBlack, "black point of the luminosity curve, within [0,1)")
var gamma = flag.Float64("gamma", develop.DefaultGamma, "gamma of the input profile, 0 selects sRGB companding")
var linear = flag.Float64("linear", develop.DefaultLinear, "linearity of the input profile")
var autoExp = flag.Bool("autoExposure", false, "determine exposure automatically")
var autoBlack = flag.Bool("autoBlack", false, "determine black point automatically")
var unclip = flag.Bool("unclip", false, "do not clip highlights after white balance")
var intent = flag.String("intent", develop.Perceptual.String(), "rendering intent, one of perceptual, relative, saturation, absolute")
var wb = flag.String("wb", "camera", "white balance, one of camera, auto, spot, manual")
var chanMul = flag.String("chanMul", "", "manual channel multipliers `r,g,b[,g2]`, implies -wb manual")
var spot = flag.String("spot", "", "spot region `x1,y1,x2,y2` in full image coordinates")
var mode = flag.String("mode", preview.RenderDefault.String(), "render mode, one of default, overexposed, underexposed")
var overExp = flag.Bool("overExp", false, "show overexposed pixels in black")
var underExp = flag.Bool("underExp", false, "show underexposed pixels in white")
var histMode = flag.String("histMode", config.HistogramRGB.String(), "live histogram mode, one of rgb, r+g+b, luminosity, value, saturation")
var logHist = flag.Bool("logHist", false, "use logarithmic histogram scales")
var scale = flag.Int("scale", config.DefaultScale, "shrink factor of the preview, 0 uses -zoom")
var zoom = flag.Float64("zoom", 100.0/config.DefaultScale, "zoom of the preview in percent of the full image, with -scale 0")
var chunk = flag.Int("chunk", config.DefaultChunkRows, "rows developed per cooperative step")
var memMiB = flag.Int("memory", int(totalMiBs/4), "MiB of memory for the preview, default 1/4 of physical memory")

var demoW = flag.Int("demoWidth", 1200, "width of the demo test chart")
var demoH = flag.Int("demoHeight", 800, "height of the demo test chart")

var addr = flag.String("addr", ":8080", "listen address of the REST server")
var chroot = flag.String("chroot", "", "chroot to `dir` before serving, requires root")
var setuid = flag.Int("setuid", -1, "change user id before serving, -1 keeps it")

func main() {
	logWriter := rp.Log
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(logWriter, `Rawpreview Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (render|stats|demo|serve|legal|version) (img0.tif ... imgn.tif)

Commands:
  render  Develop the preview of a single image and save it
  stats   Show developed preview statistics of the input images as CSV
  demo    Develop the preview of a synthetic test chart
  serve   Serve an interactive preview of a single image, or the test chart, over HTTP
  legal   Show license and attribution information
  version Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Initialize logging to file in addition to stdout, if selected
	if *log == "%auto" {
		if *out != "" {
			*log = strings.TrimSuffix(*out, filepath.Ext(*out)) + ".log"
		} else {
			*log = ""
		}
	}
	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}
	if *log != "" && (args[0] == "render" || args[0] == "demo" || args[0] == "stats") {
		if err := rp.LogAlsoToFile(*log); err != nil {
			rp.LogFatalf("Unable to open logfile '%s'\n", *log)
		}
	}

	// Enable CPU profiling if flagged
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			rp.LogFatalf("Could not create CPU profile: %s\n", err.Error())
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			rp.LogFatalf("Could not start CPU profile: %s\n", err.Error())
		}
		defer pprof.StopCPUProfile()
	}

	var err error
	switch args[0] {
	case "render":
		if len(args) != 2 {
			rp.LogFatalf("Need exactly one input file to render\n")
		}
		logSystem()
		err = cmdRender(args[1])

	case "demo":
		logSystem()
		err = cmdDemo()

	case "stats":
		err = cmdStats(args[1:])

	case "serve":
		logSystem()
		err = cmdServe(args[1:])

	case "legal":
		fmt.Fprint(logWriter, legal)

	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)
		return

	case "help", "?":
		flag.Usage()
		return

	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	if err != nil {
		rp.LogFatalf("Error: %s\n", err.Error())
	}
	fmt.Fprintf(logWriter, "\nDone after %v\n", time.Since(start))
	rp.LogSync()
}

// Logs CPU features and the memory budget
func logSystem() {
	rp.LogPrintf("Running on %s with %d physical and %d logical cores, AVX2 %v\n",
		cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores, cpuid.CPU.AVX2())
	rp.LogPrintf("Using %d MiB of %d MiB physical memory for the preview, %d cores\n", *memMiB, totalMiBs, runtime.GOMAXPROCS(0))
}

// Builds the configuration from the settings file and explicitly given flags
func buildConf() (*config.Conf, error) {
	conf := config.Default()
	if *confFile != "" {
		data, err := os.ReadFile(*confFile)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, conf); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", *confFile, err)
		}
	}

	var err error
	set := func(e error) {
		if err == nil {
			err = e
		}
	}
	in := conf.ProfileIndex[config.ProfileIn]
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "exposure":
			conf.Exposure = *exposure
		case "saturation":
			conf.Saturation = *saturation
		case "black":
			set(conf.SetBlack(*black))
		case "gamma":
			set(conf.SetProfileGamma(config.ProfileIn, in, *gamma))
		case "linear":
			set(conf.SetProfileLinear(config.ProfileIn, in, *linear))
		case "autoExposure":
			conf.AutoExposure = autoState(*autoExp)
		case "autoBlack":
			conf.AutoBlack = autoState(*autoBlack)
		case "unclip":
			conf.Unclip = *unclip
		case "intent":
			set(conf.Intent.UnmarshalText([]byte(*intent)))
		case "wb":
			set(setWB(conf, *wb))
		case "overExp":
			conf.OverExp = *overExp
		case "underExp":
			conf.UnderExp = *underExp
		case "histMode":
			set(conf.HistogramMode.UnmarshalText([]byte(*histMode)))
		case "logHist":
			if *logHist {
				conf.RawHistogramScale, conf.LiveHistogramScale = config.ScaleLog, config.ScaleLog
			}
		case "scale":
			conf.Scale = *scale
		case "zoom":
			conf.Zoom = *zoom
		case "chunk":
			conf.ChunkRows = *chunk
		}
	})
	if err != nil {
		return nil, err
	}
	if *chanMul != "" {
		var m [raw.MaxColors]float64
		n, err := fmt.Sscanf(*chanMul, "%g,%g,%g,%g", &m[0], &m[1], &m[2], &m[3])
		if n < 3 {
			return nil, fmt.Errorf("invalid channel multipliers '%s': %v", *chanMul, err)
		}
		for i := 0; i < n; i++ {
			if err := conf.SetChanMul(i, m[i]); err != nil {
				return nil, err
			}
		}
	}
	if err := conf.Check(); err != nil {
		return nil, err
	}
	if *verbose {
		if y, err := conf.AsYaml(); err == nil {
			rp.LogPrintf("Settings:\n%s\n", y)
		}
	}
	return conf, nil
}

func autoState(on bool) config.AutoState {
	if on {
		return config.AutoApply
	}
	return config.AutoDisabled
}

func setWB(conf *config.Conf, name string) error {
	switch name {
	case "camera":
		conf.WB = config.CameraWB
	case "auto":
		conf.WB = config.AutoWB
	case "spot":
		if *spot == "" {
			return fmt.Errorf("spot white balance needs a -spot region")
		}
		conf.WB = config.SpotWB
	case "manual":
		conf.WB = config.ManualWB
	default:
		return fmt.Errorf("unknown white balance '%s'", name)
	}
	return nil
}

func parseSpot(s string) (preview.Spot, error) {
	var sp preview.Spot
	if _, err := fmt.Sscanf(s, "%d,%d,%d,%d", &sp.X1, &sp.Y1, &sp.X2, &sp.Y2); err != nil {
		return preview.NoSpot, fmt.Errorf("invalid spot '%s': %w", s, err)
	}
	if !sp.Valid() || sp.Y1 < 0 || sp.X2 < 0 || sp.Y2 < 0 {
		return preview.NoSpot, fmt.Errorf("invalid spot '%s': negative coordinates", s)
	}
	return sp, nil
}

// Creates a preview of img with the command line settings, on a fresh loop
func newPreview(img *raw.Image) (*preview.Preview, *loop.Loop, error) {
	conf, err := buildConf()
	if err != nil {
		return nil, nil, err
	}
	l := loop.New(64)
	pv, err := preview.New(preview.NewContext(rp.Log, *memMiB), l, develop.NewPipeline(), conf, img)
	if err != nil {
		return nil, nil, err
	}
	if *spot != "" {
		sp, err := parseSpot(*spot)
		if err != nil {
			return nil, nil, err
		}
		pv.SetSpot(sp)
		if conf.WB == config.SpotWB {
			pv.SpotWB()
		}
	}
	return pv, l, nil
}

// Develops a preview to completion in the configured render mode
func developPreview(pv *preview.Preview, l *loop.Loop) error {
	m, err := preview.RenderModeFromString(*mode)
	if err != nil {
		return err
	}
	pv.Render(m)
	steps := l.RunPending()
	if pv.Statistics() == nil {
		return fmt.Errorf("development failed")
	}
	rp.LogPrintf("Developed in %d steps\n", steps)
	return nil
}

func cmdRender(fileName string) error {
	img, err := raw.LoadFile(fileName, rp.Log)
	if err != nil {
		return err
	}
	return renderImage(img, fileName)
}

func cmdDemo() error {
	img := raw.NewTestChart(*demoW, *demoH, 3, 0xffff, 0.01, 42)
	rp.LogPrintf("Created %s test chart\n", img.DimensionsToString())
	return renderImage(img, "test chart")
}

func renderImage(img *raw.Image, title string) error {
	pv, l, err := newPreview(img)
	if err != nil {
		return err
	}
	if err := developPreview(pv, l); err != nil {
		return err
	}
	rp.LogPrintf("%s\n", pv.Statistics().String())
	if avg, ok := pv.SpotAverage(); ok {
		hex, _ := pv.SpotHex()
		rp.LogPrintf("Spot %v = %s\n", avg, hex)
	}

	if *out != "" {
		rp.LogPrintf("Writing preview to %s\n", *out)
		if err := pv.Composite().WriteToFile(*out, *quality); err != nil {
			return err
		}
	}
	if *rawHist != "" {
		if err := pv.RawHistogramBitmap().WriteToFile(*rawHist, *quality); err != nil {
			return err
		}
	}
	if *liveHist != "" {
		if err := pv.LiveHistogramBitmap().WriteToFile(*liveHist, *quality); err != nil {
			return err
		}
	}
	if *contact != "" {
		rp.LogPrintf("Writing contact sheet to %s\n", *contact)
		if err := sheet.SavePNG(pv, title, *contact); err != nil {
			return err
		}
	}
	return nil
}

func cmdStats(fileNames []string) error {
	var expanded []string
	for _, pattern := range fileNames {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return err
		}
		expanded = append(expanded, matches...)
	}
	if len(expanded) == 0 {
		return fmt.Errorf("no input files")
	}
	lines := []string{}
	for _, fileName := range expanded {
		img, err := raw.LoadFile(fileName, rp.Log)
		if err != nil {
			return err
		}
		pv, l, err := newPreview(img)
		if err != nil {
			return err
		}
		if err := developPreview(pv, l); err != nil {
			return fmt.Errorf("%s: %w", fileName, err)
		}
		if len(lines) == 0 {
			lines = append(lines, "File,"+pv.Statistics().ToCSVHeader())
		}
		lines = append(lines, fileName+","+pv.Statistics().ToCSVLine())
	}
	rp.LogPrintf("\n%s\n", strings.Join(lines, "\n"))
	return nil
}

func cmdServe(args []string) error {
	var img *raw.Image
	var err error
	switch len(args) {
	case 0:
		img = raw.NewTestChart(*demoW, *demoH, 3, 0xffff, 0.01, 42)
	case 1:
		if img, err = raw.LoadFile(args[0], rp.Log); err != nil {
			return err
		}
	default:
		return fmt.Errorf("serve takes at most one input file")
	}
	pv, l, err := newPreview(img)
	if err != nil {
		return err
	}
	if err := rest.MakeSandbox(*chroot, *setuid, rp.Log); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	rp.LogPrintf("Serving preview on %s\n", *addr)
	return rest.NewServer(l, pv).Serve(ctx, *addr)
}
