// Package display renders the chrono position on a terminal.
package display

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/leandrodaf/midichrono/sdk/contracts"
	"github.com/leandrodaf/midichrono/sdk/timecode"
	"github.com/mattn/go-isatty"
)

const defaultInterval = 50 * time.Millisecond

// Option configures a Display.
type Option func(*Display)

// WithInterval sets the minimum time between two redraws.
func WithInterval(d time.Duration) Option {
	return func(disp *Display) {
		disp.interval = d
	}
}

// WithLogger reports dropped destinations through logger as well.
func WithLogger(logger contracts.Logger) Option {
	return func(disp *Display) {
		disp.logger = logger
	}
}

// Display is a contracts.Listener that prints "STATE HH:MM:SS.FF BBB.BB.TT". On a
// terminal it redraws one line in place; otherwise it prints one line per redraw.
type Display struct {
	out      io.Writer
	inPlace  bool
	interval time.Duration
	logger   contracts.Logger
	trailing func(func())

	mu       sync.Mutex
	state    contracts.TransportState
	code     timecode.TimeCode
	tick     uint64
	last     string
	lastDraw time.Time
}

var _ contracts.Listener = (*Display)(nil)
var _ contracts.ErrorListener = (*Display)(nil)

// New creates a display writing to out.
func New(out io.Writer, opts ...Option) *Display {
	d := &Display{
		out:      out,
		inPlace:  isTerminal(out),
		interval: defaultInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.trailing = debounce.New(d.interval)
	return d
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// OnStart marks the transport running and redraws at once.
func (d *Display) OnStart(code timecode.TimeCode) {
	d.update(func() {
		d.state = contracts.Running
		d.code = code
	}, true)
}

// OnStop marks the transport stopped and redraws at once.
func (d *Display) OnStop(code timecode.TimeCode) {
	d.update(func() {
		d.state = contracts.Stopped
		d.code = code
	}, true)
}

// OnSeek shows the new position at once.
func (d *Display) OnSeek(code timecode.TimeCode, tick uint64) {
	d.update(func() {
		d.code = code
		d.tick = tick
	}, true)
}

// OnQuarterFrame updates the time code; the redraw is throttled.
func (d *Display) OnQuarterFrame(code timecode.TimeCode, _ uint8) {
	d.update(func() {
		d.code = code
	}, false)
}

// OnClockPulse updates the bar/beat position; the redraw is throttled.
func (d *Display) OnClockPulse(tick uint64) {
	d.update(func() {
		d.tick = tick
	}, false)
}

// OnSendError logs the dropped destination when a logger is set.
func (d *Display) OnSendError(dest contracts.Destination, err error) {
	if d.logger != nil {
		d.logger.Warn("destination dropped",
			d.logger.Field().String("destination", dest.String()),
			d.logger.Field().Error("error", err))
	}
}

// Line returns the most recently drawn line.
func (d *Display) Line() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Flush draws the current state now and, on a terminal, ends the line.
func (d *Display) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drawLocked(time.Now())
	if d.inPlace {
		fmt.Fprintln(d.out)
	}
}

// update applies mutate and redraws at most once per interval. A change that falls
// inside the interval is drawn by the trailing debounce once events go quiet.
func (d *Display) update(mutate func(), force bool) {
	d.mu.Lock()
	mutate()
	now := time.Now()
	if force || now.Sub(d.lastDraw) >= d.interval {
		d.drawLocked(now)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	d.trailing(func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.drawLocked(time.Now())
	})
}

func (d *Display) drawLocked(now time.Time) {
	line := Format(d.state, d.code, d.tick)
	d.lastDraw = now
	if line == d.last {
		return
	}
	d.last = line
	if d.inPlace {
		fmt.Fprintf(d.out, "\r%s", line)
		return
	}
	fmt.Fprintln(d.out, line)
}

// Format renders one status line.
func Format(state contracts.TransportState, code timecode.TimeCode, tick uint64) string {
	return fmt.Sprintf("%-7s %s %s", state, code, timecode.NewBarBeat(tick))
}
