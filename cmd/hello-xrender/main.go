/*
Command hello-xrender shapes a line of text and draws it to an X11 window,
using glyph sets of the RENDER extension.

	hello-xrender [flags] <font-file> <text>

The glyph sequence produced by the shaper is printed to stdout. The window
stays open until a key is pressed in it.

Exit status is 1 for usage errors, 2 if the font, the display or a suitable
picture format is not available, and 3 if the display server rejects a request.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/npillmayer/xshape/backend/x11"
	"github.com/npillmayer/xshape/backend/xrender"
	"github.com/npillmayer/xshape/core"
	"github.com/npillmayer/xshape/core/dimen"
	"github.com/npillmayer/xshape/core/font"
	"github.com/npillmayer/xshape/core/locate/resources"
	"github.com/npillmayer/xshape/core/parameters"
	"github.com/npillmayer/xshape/engine/glyphing"
	"github.com/npillmayer/xshape/engine/glyphing/gotext"
	"github.com/npillmayer/xshape/engine/glyphing/harfbuzz"
	"github.com/npillmayer/xshape/engine/glyphing/monospace"
	"github.com/npillmayer/xshape/engine/glyphing/raster"
	"github.com/pterm/pterm"
	"golang.org/x/text/language"
)

// tracer traces with key 'xshape.cli'
func tracer() tracing.Trace {
	return tracing.Select("xshape.cli")
}

// traceKeys are the tracing keys of all packages involved in a run.
var traceKeys = []string{
	"xshape.cli", "xshape.fonts", "xshape.resources", "xshape.glyphs",
	"xshape.raster", "xshape.xrender", "xshape.x11",
}

// fontTimeout limits the time spent loading a font.
const fontTimeout = 10 * time.Second

func main() {
	initDisplay()
	if err := run(os.Args[1:], os.Stdout); err != nil {
		core.UserError(err)
		os.Exit(core.ExitStatus(err))
	}
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// options holds the command line.
type options struct {
	fontname string
	text     string
	display  string
	trace    string
	conf     testconfig.Conf
}

// parseArgs reads flags and positional arguments. Flags are translated
// into configuration keys understood by package parameters.
func parseArgs(args []string, errout io.Writer) (options, error) {
	opts := options{}
	fs := flag.NewFlagSet("hello-xrender", flag.ContinueOnError)
	fs.SetOutput(errout)
	size := fs.Float64("size", 36, "font size in points")
	shaper := fs.String("shaper", parameters.HarfBuzz, "shaping engine [harfbuzz|gotext|monospace]")
	dir := fs.String("dir", "", "text direction [ltr|rtl|ttb|btt], empty to guess")
	lang := fs.String("lang", "", "BCP 47 language tag, empty to guess")
	coalesce := fs.Bool("coalesce", false, "share glyph runs between glyphs without position delta")
	placeholder := fs.Bool("placeholder", false, "upload blank placeholder glyphs instead of outlines")
	width := fs.Int("width", 32, "glyph id width in composite requests [8|16|32]")
	fs.StringVar(&opts.display, "display", "", "X display to connect to")
	fs.StringVar(&opts.trace, "trace", "Error", "trace level [Debug|Info|Error]")
	fs.Usage = func() {
		fmt.Fprintf(errout, "Usage: hello-xrender [flags] <font-file> <text>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return opts, core.WrapError(err, core.EINVALID, "invalid command line")
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return opts, core.Error(core.EINVALID, "expected a font file and a text")
	}
	opts.fontname, opts.text = fs.Arg(0), fs.Arg(1)
	opts.conf = testconfig.Conf{
		"font.size":          strconv.FormatFloat(*size, 'g', -1, 64),
		"shaper":             *shaper,
		"render.coalesce":    strconv.FormatBool(*coalesce),
		"render.glyphwidth":  strconv.Itoa(*width),
		"raster.placeholder": strconv.FormatBool(*placeholder),
		"text.direction":     *dir,
		"text.language":      *lang,
	}
	return opts, nil
}

// setupTracing configures a trace2go root tracer with a Go log adapter.
func setupTracing(level string) error {
	switch level {
	case "Debug", "Info", "Error":
	default:
		return core.Error(core.EINVALID, "invalid trace level: %s", level)
	}
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter": "go",
		"trace.root":      level,
	}
	for _, key := range traceKeys {
		conf["trace."+key] = level
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		return core.WrapError(err, core.EINTERNAL, "error configuring tracing")
	}
	tracing.SetTraceSelector(trace2go.Selector())
	return nil
}

func run(args []string, out io.Writer) error {
	opts, err := parseArgs(args, os.Stderr)
	if err != nil {
		return err
	}
	if err = setupTracing(opts.trace); err != nil {
		return err
	}
	params, err := parameters.FromConfig(opts.conf)
	if err != nil {
		return err
	}
	if _, err = xrender.ParseStrategy(params.Strategy); err != nil {
		return err
	}
	var (
		tc     *font.TypeCase
		shaper glyphing.Shaper
		conn   *x11.Conn
		win    *x11.Window
		text   *xrender.Text
	)
	// Release functions are registered in teardown order and tolerate
	// resources not yet acquired.
	res := &x11.Resources{}
	res.Add("graphics contexts", func() error { return win.FreeGCs() })
	res.Add("text", func() error { return text.Free() })
	res.Add("window", func() error { return win.Free() })
	res.Add("shaper", func() error {
		if shaper == nil {
			return nil
		}
		return shaper.Close()
	})
	res.Add("typecase", func() error { return tc.Close() })
	res.Add("connection", func() error { return conn.Close() })
	defer res.Release()
	//
	ctx, cancel := context.WithTimeout(context.Background(), fontTimeout)
	defer cancel()
	if tc, err = resources.ResolveTypeCase(opts.fontname, params.FontSize).Await(ctx); err != nil {
		if core.Code(err) == core.EINTERNAL {
			err = core.WrapError(err, core.EFONT, "cannot load font %s", opts.fontname)
		}
		return err
	}
	var rasterizer raster.Rasterizer
	shaper, rasterizer = engines(params, tc)
	seq, err := shape(shaper, tc, opts.text, params)
	if err != nil {
		return err
	}
	report(out, seq, tc)
	//
	if conn, err = x11.Connect(opts.display); err != nil {
		return err
	}
	margin := params.Margin()
	w, h := seq.Extent(margin, params.FontSize)
	size := dimen.Point{X: int(math.Ceil(w)), Y: int(math.Ceil(h))}
	if win, err = conn.CreateWindow("hello-xrender", size); err != nil {
		return err
	}
	text, err = xrender.Prepare(xrender.CacheFormats(conn), conn.Screen.RootVisual, win.Drawable(), seq, rasterizer,
		xrender.Encoder{Policy: policy(params), Width: params.GlyphWidth},
		origin(seq.Direction, tc, margin, params.FontSize), size)
	if err != nil {
		return err
	}
	loop := &x11.Loop{
		Events:   conn.X,
		Map:      win.Map,
		Redraw:   text.Draw,
		Teardown: res.Release,
	}
	pterm.Info.Println("Press any key in the window to quit")
	return loop.Run()
}

// engines selects shaper and rasterizer.
func engines(params parameters.Run, tc *font.TypeCase) (glyphing.Shaper, raster.Rasterizer) {
	var shaper glyphing.Shaper
	switch params.Shaper {
	case parameters.GoText:
		shaper = gotext.NewShaper()
	case parameters.Monospace:
		shaper = monospace.NewShaper(nil)
	default:
		shaper = harfbuzz.NewShaper()
	}
	if params.Placeholder {
		return shaper, raster.Placeholder{}
	}
	return shaper, raster.NewOutlines(tc)
}

func shape(shaper glyphing.Shaper, tc *font.TypeCase, text string, params parameters.Run) (glyphing.GlyphSequence, error) {
	sp := glyphing.Params{Font: tc}
	var err error
	if sp.Direction, err = glyphing.ParseDirection(params.Direction); err != nil {
		return glyphing.GlyphSequence{}, core.WrapError(err, core.EINVALID, "invalid direction")
	}
	if params.Language != "" {
		if sp.Language, err = language.Parse(params.Language); err != nil {
			return glyphing.GlyphSequence{}, core.WrapError(err, core.EINVALID,
				"invalid language tag %q", params.Language)
		}
	}
	seq, err := shaper.Shape(text, sp)
	if err != nil {
		return seq, err
	}
	tracer().Infof("shaped %d glyphs, direction %s", seq.Len(), seq.Direction)
	return seq, nil
}

func policy(params parameters.Run) xrender.RunPolicy {
	if params.Coalesce {
		return xrender.Coalesce
	}
	return xrender.OneGlyphPerRun
}

// origin is the start of the baseline within the window. Horizontal text is
// centered vertically within a line of height size, vertical text is
// centered horizontally.
func origin(dir glyphing.Direction, tc *font.TypeCase, margin, size float64) dimen.Point {
	if dir.IsVertical() {
		return dimen.Point{X: int(math.Round(margin + size*.5)), Y: int(math.Round(margin))}
	}
	m := tc.Metrics()
	baseline := (size-dimen.Pixels(m.Height))*.5 + dimen.Pixels(m.Ascent)
	return dimen.Point{X: int(math.Round(margin)), Y: int(math.Round(margin + baseline))}
}
