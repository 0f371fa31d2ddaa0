// Package engine implements the chrono: the transport state machine that owns the tick
// position, drives clock pulses and MTC quarter frames from one time base, and
// broadcasts encoded sync messages through the destination registry.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/midichrono/internal/registry"
	"github.com/leandrodaf/midichrono/sdk/contracts"
	"github.com/leandrodaf/midichrono/sdk/syncmsg"
	"github.com/leandrodaf/midichrono/sdk/timecode"
)

// Tempo limits in BPM.
const (
	MinTempo = 20
	MaxTempo = 300
)

var (
	ErrClosed           = errors.New("chrono is closed")
	ErrInvalidTempo     = errors.New("tempo out of range")
	ErrInvalidFrameRate = errors.New("invalid frame rate")
	ErrSeekOutOfRange   = errors.New("seek target beyond song position range")
)

// Engine is the chrono state machine. All transitions and every pulse-driven emission
// happen under mu, so the timing goroutine never observes a half-applied transition.
type Engine struct {
	logger   contracts.Logger
	registry *registry.Registry
	notify   *dispatcher

	mu       sync.Mutex
	state    contracts.TransportState
	tick     uint64
	code     timecode.TimeCode
	timebase timecode.Timebase
	closed   bool
	gen      uint64 // bumped on every start/stop so a stale driver exits

	pulseAnchor   time.Time
	pulses        uint64 // pulses emitted since pulseAnchor
	quarterAnchor time.Time
	quarters      uint64 // quarter frames emitted since quarterAnchor
	piece         uint8

	stopDriver chan struct{}
	wake       chan struct{}
	wg         sync.WaitGroup

	now       func() time.Time
	autoDrive bool
}

// New validates options and returns a stopped engine at tick 0.
func New(opts contracts.ClientOptions) (*Engine, error) {
	if opts.Tempo < MinTempo || opts.Tempo > MaxTempo {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTempo, opts.Tempo)
	}
	if !opts.FrameRate.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrameRate, opts.FrameRate)
	}

	e := &Engine{
		logger:    opts.Logger,
		notify:    newDispatcher(opts.Logger, opts.Listener, opts.ListenerBuffer),
		timebase:  timecode.Timebase{Tempo: opts.Tempo, Rate: opts.FrameRate},
		wake:      make(chan struct{}, 1),
		now:       time.Now,
		autoDrive: true,
	}
	e.registry = registry.New(opts.Logger, e.notify.sendError)
	e.code = e.timebase.TimeCode(0)

	opts.Logger.Info("Chrono created",
		opts.Logger.Field().Int("tempo", opts.Tempo),
		opts.Logger.Field().String("frameRate", opts.FrameRate.String()))
	return e, nil
}

// Start moves Stopped to Running. From the zero position clock subscribers receive
// Start, otherwise Continue; MTC subscribers receive a full time code.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.state == contracts.Running {
		e.logger.Debug("Start ignored; chrono already running")
		return nil
	}

	if e.registry.HasClock() {
		msg := syncmsg.ClockContinue()
		if e.code.IsZero() {
			msg = syncmsg.ClockStart()
		}
		if err := e.sendClock(msg); err != nil {
			return err
		}
	}
	if err := e.sendFullTimeCode(); err != nil {
		return err
	}

	e.state = contracts.Running
	e.gen++
	now := e.now()
	e.anchorPulses(now)
	e.anchorQuarters(now)
	e.notify.start(e.code)

	e.logger.Info("Chrono started",
		e.logger.Field().Uint64("tick", e.tick),
		e.logger.Field().Stringer("timecode", e.code))

	if e.autoDrive {
		e.stopDriver = make(chan struct{})
		e.wg.Add(1)
		go e.drive(e.gen, e.stopDriver)
	}
	return nil
}

// Stop moves Running to Stopped, keeping the position. Clock subscribers receive Stop
// and MTC subscribers a full time code. No pulse-driven message is emitted afterwards.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	return e.stopLocked()
}

func (e *Engine) stopLocked() error {
	if e.state != contracts.Running {
		e.logger.Debug("Stop ignored; chrono not running")
		return nil
	}

	e.state = contracts.Stopped
	e.gen++
	if e.stopDriver != nil {
		close(e.stopDriver)
		e.stopDriver = nil
	}

	if e.registry.HasClock() {
		if err := e.sendClock(syncmsg.ClockStop()); err != nil {
			return err
		}
	}
	if err := e.sendFullTimeCode(); err != nil {
		return err
	}
	e.notify.stop(e.code)

	e.logger.Info("Chrono stopped",
		e.logger.Field().Uint64("tick", e.tick),
		e.logger.Field().Stringer("timecode", e.code))
	return nil
}

// Rewind seeks to tick 0.
func (e *Engine) Rewind() error {
	return e.Seek(0)
}

// Seek sets the position and announces it: a song position pointer to clock
// subscribers and a full time code to MTC subscribers. Targets past the 14-bit song
// position range are rejected.
func (e *Engine) Seek(target uint64) error {
	spp, err := syncmsg.SongPositionFromTick(target)
	if err != nil {
		return fmt.Errorf("%w: %d", ErrSeekOutOfRange, target)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}

	e.tick = target
	e.code = e.timebase.TimeCode(target)

	if e.registry.HasClock() {
		if err := e.sendClock(spp); err != nil {
			return err
		}
	}
	if err := e.sendFullTimeCode(); err != nil {
		return err
	}

	if e.state == contracts.Running {
		now := e.now()
		e.anchorPulses(now)
		e.anchorQuarters(now)
		e.poke()
	}
	e.notify.seek(e.code, e.tick)

	e.logger.Debug("Chrono seek",
		e.logger.Field().Uint64("tick", e.tick),
		e.logger.Field().Stringer("timecode", e.code))
	return nil
}

// SetTempo changes the clock tempo. The tick is kept, so the time code moves: MTC
// subscribers receive a full time code and the listener a seek. While running, both
// streams are re-anchored at the current instant and the quarter-frame cycle restarts
// at piece 0.
func (e *Engine) SetTempo(bpm int) error {
	if bpm < MinTempo || bpm > MaxTempo {
		return fmt.Errorf("%w: %d", ErrInvalidTempo, bpm)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.timebase.Tempo == bpm {
		return nil
	}
	e.timebase.Tempo = bpm
	e.code = e.timebase.TimeCode(e.tick)

	if e.state == contracts.Running {
		now := e.now()
		e.anchorPulses(now)
		e.anchorQuarters(now)
		e.poke()
	}
	if err := e.sendFullTimeCode(); err != nil {
		return err
	}
	e.notify.seek(e.code, e.tick)

	e.logger.Info("Tempo changed",
		e.logger.Field().Int("tempo", bpm),
		e.logger.Field().Duration("pulse", e.pulseOffset(1)))
	return nil
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() contracts.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return contracts.Snapshot{
		State:   e.state,
		Tick:    e.tick,
		Code:    e.code,
		BarBeat: timecode.NewBarBeat(e.tick),
		Tempo:   e.timebase.Tempo,
	}
}

// RegisterForClock subscribes dest to clock-family messages.
func (e *Engine) RegisterForClock(dest contracts.Destination, enabled bool) {
	e.registry.RegisterForClock(dest, enabled)
}

// RegisterForMTC subscribes dest to MTC-family messages.
func (e *Engine) RegisterForMTC(dest contracts.Destination, enabled bool) {
	e.registry.RegisterForMTC(dest, enabled)
}

// Deregister removes dest from both categories.
func (e *Engine) Deregister(dest contracts.Destination) {
	e.registry.Deregister(dest)
}

// Close stops the transport if it is running, then waits for the timing and
// dispatch goroutines to finish.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	err := e.stopLocked()
	e.closed = true
	e.mu.Unlock()

	e.wg.Wait()
	e.notify.close()
	e.logger.Info("Chrono closed")
	return err
}

func (e *Engine) sendClock(msg syncmsg.Message) error {
	data, err := syncmsg.Encode(msg)
	if err != nil {
		e.logger.Error("Encoding clock message failed",
			e.logger.Field().String("message", msg.String()),
			e.logger.Field().Error("error", err))
		return err
	}
	e.registry.BroadcastClock(data)
	return nil
}

func (e *Engine) sendMTC(msg syncmsg.Message) error {
	data, err := syncmsg.Encode(msg)
	if err != nil {
		e.logger.Error("Encoding MTC message failed",
			e.logger.Field().String("message", msg.String()),
			e.logger.Field().Error("error", err))
		return err
	}
	e.registry.BroadcastMTC(data)
	return nil
}

func (e *Engine) sendFullTimeCode() error {
	if !e.registry.HasMTC() {
		return nil
	}
	return e.sendMTC(syncmsg.FullTimeCode(e.code))
}
