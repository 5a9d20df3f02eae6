/*
Example code showing how to stream a tracked video to a browser as MJPEG.
Open http://localhost:8080/stream?roi=x0,y0,x1,y1 with the region to track
given as a drag in view coordinates, or ?detect=true to track rectangles
found on the first frame
*/
package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	bartrack "github.com/swdee/go-bartrack"
	"github.com/swdee/go-bartrack/geometry"
	"github.com/swdee/go-bartrack/opencv"
	"github.com/swdee/go-bartrack/render"
	"github.com/swdee/go-bartrack/selector"
	"github.com/swdee/go-bartrack/tracker"
	"github.com/swdee/go-bartrack/video"
	"gocv.io/x/gocv"
)

// Demo defines the struct for running the streaming tracking demo
type Demo struct {
	// vidFile is the video tracked for every client
	vidFile string
	// cfg holds the session settings
	cfg bartrack.Config
	// display is the video's display size
	display geometry.Size
	// view is the size of the streamed images
	view    geometry.Size
	workers int
	logger  *slog.Logger
}

// NewDemo returns an instance of Demo, a streaming HTTP server showing video
// with the tracking overlay
func NewDemo(vidFile string, cfg bartrack.Config, view geometry.Size,
	workers int, logger *slog.Logger) (*Demo, error) {

	src, err := video.Open(vidFile, opencv.OpenCapture)

	if err != nil {
		return nil, err
	}

	defer src.Close()

	d := &Demo{
		vidFile: vidFile,
		cfg:     cfg,
		display: src.DisplaySize(),
		view:    view,
		workers: workers,
		logger:  logger,
	}

	if d.view.IsEmpty() {
		d.view = d.display
	}

	logger.Info("Opened video", "file", vidFile, "display", d.display,
		"view", d.view)

	return d, nil
}

// SetRouter registers the demo routes
func (d *Demo) SetRouter() *gin.Engine {

	r := gin.Default()

	r.GET("/stream", d.Stream)

	apiRoutes := r.Group("/api")
	apiRoutes.GET("/rectangles", d.Rectangles)

	return r
}

// newSession creates a session with its own tracker engine, the engine must
// be closed by the caller
func (d *Demo) newSession() (*bartrack.Session, *opencv.Engine, error) {

	engine := opencv.NewEngine(opencv.ContribTrackers, d.workers, d.logger)

	sess, err := bartrack.NewSession(d.vidFile, opencv.OpenCapture, engine,
		d.cfg, d.logger)

	if err != nil {
		engine.Close()
		return nil, nil, err
	}

	sess.SetViewSize(d.view)

	return sess, engine, nil
}

// Rectangles returns the rectangles detected on the first frame as view
// space corners
func (d *Demo) Rectangles(ctx *gin.Context) {

	sess, engine, err := d.newSession()

	if err != nil {
		ctx.Status(http.StatusInternalServerError)
		return
	}

	defer engine.Close()

	regions, err := sess.DisplayFirstFrame(ctx.Request.Context(),
		opencv.NewRectangleDetector(d.cfg.Detector))

	if err != nil {
		d.logger.Warn("Rectangle detection failed", "error", err)
		ctx.Status(http.StatusInternalServerError)
		return
	}

	mapper := geometry.NewMapper(d.display, d.view)
	out := make([][]geometry.Point, len(regions))

	for i, r := range regions {
		out[i] = mapper.PolygonToView(r.Corners[:], geometry.TrackerNormalized)
	}

	ctx.JSON(http.StatusOK, out)
}

// Stream is the HTTP handler used to stream tracked video frames to the
// browser.  The session stops when the client disconnects
func (d *Demo) Stream(ctx *gin.Context) {

	d.logger.Info("New client connection established")

	sess, engine, err := d.newSession()

	if err != nil {
		ctx.Status(http.StatusInternalServerError)
		return
	}

	defer engine.Close()

	var detector tracker.RectangleDetector

	if ctx.Query("detect") == "true" {
		detector = opencv.NewRectangleDetector(d.cfg.Detector)
	}

	regions, err := sess.DisplayFirstFrame(ctx.Request.Context(), detector)

	if err != nil {
		d.logger.Warn("Rectangle detection failed", "error", err)
	}

	if roi := ctx.Query("roi"); roi != "" {
		region, err := d.selectRegion(roi, len(regions))

		if err != nil {
			ctx.String(http.StatusNotAcceptable, err.Error())
			return
		}

		regions = append(regions, region)
	}

	if len(regions) == 0 {
		ctx.String(http.StatusNotAcceptable, "no regions to track, use roi or detect")
		return
	}

	ctx.Header("Content-Type", "multipart/x-mixed-replace; boundary=frame")

	overlay := render.NewOverlay(render.SinkFunc(func(img gocv.Mat) error {
		return writeJPEG(ctx.Writer, img)
	}), d.logger)
	defer overlay.Close()

	sess.SetRenderer(overlay)

	err = sess.Run(ctx.Request.Context(), regions)

	if err != nil && !errors.Is(err, bartrack.ErrObjectTrackingFailed) {
		d.logger.Error("Error during tracking", "error", err)
	}

	s := overlay.Summary()

	d.logger.Info("Client stream finished", "run", s.RunID, "frames", s.Frames,
		"cancelled", s.Cancelled)
}

// selectRegion converts a drag given as x0,y0,x1,y1 in view coordinates into
// a region
func (d *Demo) selectRegion(roi string, created int) (tracker.Region, error) {

	parts := strings.Split(roi, ",")

	if len(parts) != 4 {
		return tracker.Region{}, errors.Errorf("invalid roi %q, use x0,y0,x1,y1", roi)
	}

	var vals [4]float64

	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)

		if err != nil {
			return tracker.Region{}, errors.Wrapf(err, "invalid roi %q", roi)
		}

		vals[i] = v
	}

	sel := selector.New(d.logger)
	sel.SetFrameGeometry(d.display, d.view)

	start := geometry.Pt(vals[0], vals[1])
	translation := geometry.Pt(vals[2]-vals[0], vals[3]-vals[1])

	region, err := sel.DragEnded(start, translation)

	if err != nil {
		return tracker.Region{}, err
	}

	region.Color = tracker.PaletteColor(created)

	return region, nil
}

// writeJPEG encodes the image and writes it as the next multipart frame
func writeJPEG(w gin.ResponseWriter, img gocv.Mat) error {

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)

	if err != nil {
		return errors.Wrap(err, "error encoding frame")
	}

	defer buf.Close()

	w.Write([]byte("--frame\r\n"))
	w.Write([]byte("Content-Type: image/jpeg\r\n\r\n"))
	w.Write(buf.GetBytes())
	w.Write([]byte("\r\n"))

	// Flush the buffer
	w.Flush()

	return nil
}

func main() {

	// read in cli flags
	vidFile := flag.String("v", "../data/barbell.mp4", "Video file to track and stream")
	cfgFile := flag.String("c", "", "Config file (yaml, json or toml)")
	httpAddr := flag.String("a", "localhost:8080", "HTTP Address to run server on, format address:port")
	viewW := flag.Int("vw", 0, "Width of the streamed view, 0 uses the video size")
	viewH := flag.Int("vh", 0, "Height of the streamed view, 0 uses the video size")
	workers := flag.Int("w", 0, "Number of trackers to update in parallel, 0 uses the number of CPUs")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := bartrack.LoadConfig(*cfgFile)

	if err != nil {
		logger.Error("Error loading config", "error", err)
		os.Exit(1)
	}

	// play back at the video frame rate
	cfg.Pace = true

	demo, err := NewDemo(*vidFile, cfg,
		geometry.Sz(float64(*viewW), float64(*viewH)), *workers, logger)

	if err != nil {
		logger.Error("Error creating demo", "error", err)
		os.Exit(1)
	}

	logger.Info("Open browser and view video", "url", "http://"+*httpAddr+"/stream")

	if err := demo.SetRouter().Run(*httpAddr); err != nil {
		logger.Error("HTTP server stopped", "error", err)
		os.Exit(1)
	}
}
