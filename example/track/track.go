/*
Example code showing how to track a region through a video file and write the
annotated result to a new video, or to a directory of PNG images
*/
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	bartrack "github.com/swdee/go-bartrack"
	"github.com/swdee/go-bartrack/geometry"
	"github.com/swdee/go-bartrack/opencv"
	"github.com/swdee/go-bartrack/raster"
	"github.com/swdee/go-bartrack/render"
	"github.com/swdee/go-bartrack/selector"
	"github.com/swdee/go-bartrack/tracker"
	"github.com/swdee/go-bartrack/video"
	"gocv.io/x/gocv"
)

func main() {

	// read in cli flags
	vidFile := flag.String("v", "../data/barbell.mp4", "Video file to run object tracking on")
	cfgFile := flag.String("c", "", "Config file (yaml, json or toml)")
	outFile := flag.String("o", "../data/barbell-tracked.mp4", "Output video file, or directory of PNG images when using the raster renderer")
	roi := flag.String("roi", "", "Region to track as a drag in view coordinates, format x0,y0,x1,y1")
	viewSize := flag.String("view", "", "View size to render into, format WxH, defaults to the video size")
	detect := flag.Bool("detect", false, "Seed regions from rectangles detected on the first frame")
	level := flag.String("level", "", "Tracking level [accurate|fast], overrides config")
	rendererType := flag.String("r", "gocv", "Renderer to use [gocv|raster]")
	mil := flag.Bool("mil", false, "Use the MIL tracker instead of the contrib CSRT/KCF trackers")
	workers := flag.Int("w", 0, "Number of trackers to update in parallel, 0 uses the number of CPUs")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if err := run(logger, *vidFile, *cfgFile, *outFile, *roi, *viewSize, *detect,
		*level, *rendererType, *mil, *workers); err != nil {
		logger.Error("Tracking failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, vidFile, cfgFile, outFile, roi, viewSize string,
	detect bool, level, rendererType string, mil bool, workers int) error {

	cfg, err := bartrack.LoadConfig(cfgFile)

	if err != nil {
		return err
	}

	if level != "" {
		cfg.TrackingLevel = level
	}

	if detect {
		cfg.Detector.Enabled = true
	}

	// probe the video for its display size and frame rate
	src, err := video.Open(vidFile, opencv.OpenCapture)

	if err != nil {
		return err
	}

	display := src.DisplaySize()
	fps := src.NominalFrameRate()
	src.Close()

	if fps <= 0 {
		fps = cfg.DefaultFrameRate
	}

	view := display

	if viewSize != "" {
		if view, err = parseSize(viewSize); err != nil {
			return err
		}
	}

	logger.Info("Opened video", "file", vidFile, "display", display,
		"view", view, "fps", fps)

	factory := opencv.ContribTrackers

	if mil {
		factory = opencv.MILTrackers
	}

	engine := opencv.NewEngine(factory, workers, logger)
	defer engine.Close()

	sess, err := bartrack.NewSession(vidFile, opencv.OpenCapture, engine, cfg, logger)

	if err != nil {
		return err
	}

	sess.SetViewSize(view)

	// regions detected on the first frame seed the session
	var detector tracker.RectangleDetector

	if cfg.Detector.Enabled {
		detector = opencv.NewRectangleDetector(cfg.Detector)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	regions, err := sess.DisplayFirstFrame(ctx, detector)

	if err != nil {
		logger.Warn("Rectangle detection failed", "error", err)
	}

	if roi != "" {
		region, err := selectRegion(logger, roi, display, view, len(regions))

		if err != nil {
			return err
		}

		regions = append(regions, region)
	}

	if len(regions) == 0 {
		return errors.New("no regions to track, use -roi or -detect")
	}

	logger.Info("Tracking regions", "count", len(regions))

	var done <-chan struct{}
	var summary func() bartrack.Summary

	switch rendererType {
	case "raster":
		canvas := raster.NewCanvas(raster.PNGDir(outFile), logger)
		sess.SetRenderer(canvas)
		done = canvas.Done()
		summary = canvas.Summary

	case "gocv":
		writer := &lazyWriter{file: outFile, fps: fps}
		defer writer.Close()

		overlay := render.NewOverlay(writer, logger)
		defer overlay.Close()

		sess.SetRenderer(overlay)
		done = overlay.Done()
		summary = overlay.Summary

	default:
		return errors.Errorf("unknown renderer %q, use 'gocv' or 'raster'", rendererType)
	}

	err = sess.Run(ctx, regions)

	<-done
	s := summary()

	logger.Info("Tracking finished", "run", s.RunID, "frames", s.Frames,
		"cancelled", s.Cancelled, "lost_frames", s.LostFrames,
		"trajectory_points", s.TrajectoryPoints, "output", outFile)

	if errors.Is(err, bartrack.ErrObjectTrackingFailed) {
		// tracking was lost on some frames but the output is still usable
		logger.Warn("Tracking was lost during the video", "error", err)
		return nil
	}

	return err
}

// selectRegion turns a drag given as x0,y0,x1,y1 in view coordinates into a
// region the same way a pointer drag over the view would
func selectRegion(logger *slog.Logger, roi string, display, view geometry.Size,
	created int) (tracker.Region, error) {

	vals, err := parseFloats(roi, 4)

	if err != nil {
		return tracker.Region{}, errors.Wrap(err, "invalid -roi")
	}

	sel := selector.New(logger)
	sel.SetFrameGeometry(display, view)

	start := geometry.Pt(vals[0], vals[1])
	translation := geometry.Pt(vals[2]-vals[0], vals[3]-vals[1])

	sel.DragChanged(start, translation)

	region, err := sel.DragEnded(start, translation)

	if err != nil {
		return tracker.Region{}, err
	}

	// keep the palette order following any detected regions
	region.Color = tracker.PaletteColor(created)

	return region, nil
}

// lazyWriter opens the output video on the first frame, once the rendered
// view size is known
type lazyWriter struct {
	file   string
	fps    float64
	writer *gocv.VideoWriter
}

// Write adds a rendered view to the output video
func (w *lazyWriter) Write(img gocv.Mat) error {

	if w.writer == nil {
		writer, err := gocv.VideoWriterFile(w.file, "mp4v", w.fps, img.Cols(),
			img.Rows(), true)

		if err != nil {
			return errors.Wrapf(err, "error opening output video %s", w.file)
		}

		w.writer = writer
	}

	return w.writer.Write(img)
}

// Close finalises the output video
func (w *lazyWriter) Close() error {

	if w.writer == nil {
		return nil
	}

	return w.writer.Close()
}

// parseSize parses a WxH size
func parseSize(s string) (geometry.Size, error) {

	parts := strings.SplitN(strings.ToLower(s), "x", 2)

	if len(parts) != 2 {
		return geometry.Size{}, errors.Errorf("invalid size %q, use WxH", s)
	}

	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))

	if err != nil {
		return geometry.Size{}, errors.Wrapf(err, "invalid width in %q", s)
	}

	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))

	if err != nil {
		return geometry.Size{}, errors.Wrapf(err, "invalid height in %q", s)
	}

	if w <= 0 || h <= 0 {
		return geometry.Size{}, errors.Errorf("size %q must be positive", s)
	}

	return geometry.Sz(float64(w), float64(h)), nil
}

// parseFloats parses a comma delimited list of exactly n numbers
func parseFloats(s string, n int) ([]float64, error) {

	parts := strings.Split(s, ",")

	if len(parts) != n {
		return nil, errors.Errorf("expected %d values, got %d", n, len(parts))
	}

	vals := make([]float64, n)

	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)

		if err != nil {
			return nil, errors.Wrapf(err, "value %d", i)
		}

		vals[i] = v
	}

	return vals, nil
}
