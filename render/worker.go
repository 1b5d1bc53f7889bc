// Package render runs the display goroutine: it reads the 5-way switch,
// scrolls the metric list and redraws the panel only when something
// visible changed.
package render

import (
	"context"
	"log/slog"
	"time"

	"github.com/harveysanders/envdisplay/gfx"
	"github.com/harveysanders/envdisplay/input"
	"github.com/harveysanders/envdisplay/link"
	"github.com/harveysanders/envdisplay/logging"
	"github.com/harveysanders/envdisplay/scroll"
	"github.com/harveysanders/envdisplay/telemetry"
)

const (
	// DefaultTick is the render loop period (20 Hz).
	DefaultTick = 50 * time.Millisecond
	// DefaultHold is how long a directional view stays on screen.
	DefaultHold = time.Second
	// DefaultTitle is printed in the header bar.
	DefaultTitle = "Sensor Data"
)

// Config configures a Worker.
type Config struct {
	Layout    Layout
	Animated  bool
	Smoothing float32
	Tick      time.Duration
	Hold      time.Duration
	Title     string
	Logger    *slog.Logger
}

// Worker is the render loop. All of its state is owned by the goroutine
// calling Tick or Run.
type Worker struct {
	canvas gfx.Canvas
	input  *input.Reader
	store  *telemetry.Store
	status *link.Status
	scroll *scroll.Model
	cfg    Config
	log    *slog.Logger

	width, height int16

	view      View
	viewUntil time.Time
	pending   bool // A view change or reset is waiting to be drawn.
	drawn     bool
	rendered  uint64 // Store version on screen.

	linkUp, subscribed bool // Status on screen.

	buf    []byte
	frames uint32
}

// New returns a Worker drawing on c. status may be nil when there is no
// link to report.
func New(c gfx.Canvas, in *input.Reader, store *telemetry.Store, status *link.Status, cfg Config) *Worker {
	if cfg.Layout.ItemHeight == 0 {
		cfg.Layout = Cards
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	if cfg.Hold <= 0 {
		cfg.Hold = DefaultHold
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	logger := logging.OrDiscard(cfg.Logger)
	if status == nil {
		status = &link.Status{}
	}
	w, h := c.Size()
	snap, _ := store.Read()
	geo := cfg.Layout.Geometry(len(metricsFor(snap)), h)
	return &Worker{
		canvas: c,
		input:  in,
		store:  store,
		status: status,
		scroll: scroll.NewModel(geo, cfg.Animated, cfg.Smoothing),
		cfg:    cfg,
		log:    logger,
		width:  w,
		height: h,
		buf:    make([]byte, 0, 32),
	}
}

// View returns the view currently selected.
func (w *Worker) View() View { return w.view }

// Scroll returns the scroll model.
func (w *Worker) Scroll() *scroll.Model { return w.scroll }

// Frames returns how many frames were drawn.
func (w *Worker) Frames() uint32 { return w.frames }

// Run ticks at the configured rate until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.Tick)
	defer ticker.Stop()
	for {
		w.Tick(time.Now())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick runs one render step and reports whether a frame was drawn. A frame
// is drawn only when the telemetry version changed, a view change is
// pending, the link status changed or the scroll animation moved.
func (w *Worker) Tick(now time.Time) bool {
	w.handleInput(w.input.Poll(now), now)

	if w.view != ViewMetrics && !now.Before(w.viewUntil) {
		w.setView(ViewMetrics, now)
	}

	snap, version := w.store.Read()
	w.scroll.SetItemCount(len(metricsFor(snap)))
	moved := w.scroll.Step()

	linkUp, subscribed := w.status.LinkUp(), w.status.Subscribed()
	statusChanged := linkUp != w.linkUp || subscribed != w.subscribed

	var redraw bool
	switch {
	case !w.drawn || w.pending:
		redraw = true
	case w.view != ViewMetrics:
		// Directional views show no telemetry; the return to the metric
		// view sets pending and picks up anything that changed meanwhile.
	default:
		redraw = version != w.rendered || statusChanged || moved
	}
	if !redraw {
		return false
	}

	w.linkUp, w.subscribed = linkUp, subscribed
	switch w.view {
	case ViewLeft:
		w.drawArrowLeft()
	case ViewRight:
		w.drawArrowRight()
	case ViewCenter:
		w.drawCenterOK()
	default:
		w.drawMetrics(snap, version > 0)
		w.rendered = version
		w.store.MarkClean(version)
	}
	if err := w.canvas.Display(); err != nil {
		w.log.Error("render:display-failed", slog.String("err", err.Error()))
	}
	w.pending = false
	w.drawn = true
	w.frames++
	w.log.Debug("render:redraw",
		slog.String("view", w.view.String()),
		slog.Uint64("version", version),
		slog.Int("offset", w.scroll.Offset()),
	)
	return true
}

// handleInput turns button presses into scroll deltas and view requests.
func (w *Worker) handleInput(p input.Pressed, now time.Time) {
	if !p.Any() {
		return
	}
	pitch := int(w.cfg.Layout.Pitch())
	switch {
	case p.Has(input.Up):
		w.scrollBy(-pitch, now)
	case p.Has(input.Down):
		w.scrollBy(pitch, now)
	}
	// A view edge on the same tick as a scroll edge still applies.
	switch {
	case p.Has(input.Left):
		w.setView(ViewLeft, now)
	case p.Has(input.Right):
		w.setView(ViewRight, now)
	case p.Has(input.Center):
		w.scroll.Reset()
		w.setView(ViewCenter, now)
	}
}

func (w *Worker) scrollBy(delta int, now time.Time) {
	if w.view != ViewMetrics {
		w.setView(ViewMetrics, now)
	}
	if w.scroll.Scroll(delta) {
		w.pending = true
		w.log.Debug("render:scroll", slog.Int("target", w.scroll.Target()))
	}
}

func (w *Worker) setView(v View, now time.Time) {
	w.view = v
	w.viewUntil = now.Add(w.cfg.Hold)
	w.pending = true
	w.log.Debug("render:view", slog.String("view", v.String()))
}
