package engine

import (
	"runtime"
	"time"

	"github.com/leandrodaf/midichrono/sdk/contracts"
	"github.com/leandrodaf/midichrono/sdk/syncmsg"
	"github.com/leandrodaf/midichrono/sdk/timecode"
)

var pulseBytes = syncmsg.MustEncode(syncmsg.ClockPulse())

// drive is the timing goroutine. Pulses and quarter frames are computed as offsets from
// anchors taken on the same clock, so the two streams cannot drift apart; waking late
// emits every message that became due, in time order.
func (e *Engine) drive(gen uint64, stop <-chan struct{}) {
	defer e.wg.Done()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		next, ok := e.step(gen, e.now())
		if !ok {
			return
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-stop:
			timer.Stop()
			return
		case <-e.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// step emits everything due at now and returns when the next message is due.
// It returns false once the run identified by gen has ended.
func (e *Engine) step(gen uint64, now time.Time) (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.state != contracts.Running || e.gen != gen {
		return time.Time{}, false
	}

	for {
		pulseAt := e.pulseAnchor.Add(e.pulseOffset(e.pulses + 1))
		quarterAt := e.quarterAnchor.Add(e.quarterOffset(e.quarters))

		switch {
		case !pulseAt.After(now) && !pulseAt.After(quarterAt):
			e.pulse()
		case !quarterAt.After(now):
			e.quarterFrame()
		default:
			if pulseAt.Before(quarterAt) {
				return pulseAt, true
			}
			return quarterAt, true
		}
	}
}

// pulseOffset is the time of pulse k after the pulse anchor, computed without
// accumulating rounding error.
func (e *Engine) pulseOffset(k uint64) time.Duration {
	perMinute := uint64(e.timebase.Tempo) * timecode.TicksPerBeat
	return time.Duration(k * uint64(time.Minute) / perMinute)
}

// quarterOffset is the time of quarter frame q after the quarter-frame anchor.
func (e *Engine) quarterOffset(q uint64) time.Duration {
	perSecond := uint64(e.timebase.Rate.FramesPerSecond()) * 4
	return time.Duration(q * uint64(time.Second) / perSecond)
}

func (e *Engine) anchorPulses(now time.Time) {
	e.pulseAnchor = now
	e.pulses = 0
}

// anchorQuarters restarts the MTC cycle at piece 0, emitted immediately.
func (e *Engine) anchorQuarters(now time.Time) {
	e.quarterAnchor = now
	e.quarters = 0
	e.piece = 0
}

// poke wakes the driver so it picks up a new anchor.
func (e *Engine) poke() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Engine) pulse() {
	e.pulses++
	e.tick++
	e.code = e.timebase.TimeCode(e.tick)
	if e.registry.HasClock() {
		e.registry.BroadcastClock(pulseBytes)
	}
	e.notify.clockPulse(e.tick)
}

func (e *Engine) quarterFrame() {
	piece := e.piece
	e.piece = (e.piece + 1) % syncmsg.QuarterFramePieces
	e.quarters++

	if e.registry.HasMTC() {
		// Errors are already logged; the timing goroutine carries on.
		_ = e.sendMTC(syncmsg.QuarterFrame(piece, e.code))
	}
	e.notify.quarterFrame(e.code, piece)
}
