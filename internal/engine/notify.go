package engine

import (
	"sync/atomic"

	"github.com/leandrodaf/midichrono/sdk/contracts"
	"github.com/leandrodaf/midichrono/sdk/timecode"
)

const defaultListenerBuffer = 256

type eventKind uint8

const (
	eventStart eventKind = iota
	eventStop
	eventSeek
	eventQuarterFrame
	eventClockPulse
	eventSendError
)

type event struct {
	kind  eventKind
	code  timecode.TimeCode
	tick  uint64
	piece uint8
	dest  contracts.Destination
	err   error
}

// dispatcher decouples the listener from the timing goroutine: posting never blocks,
// and notifications that do not fit in the buffer are dropped and counted.
type dispatcher struct {
	logger   contracts.Logger
	listener contracts.Listener
	events   chan event
	done     chan struct{}
	dropped  atomic.Uint64
}

func newDispatcher(logger contracts.Logger, listener contracts.Listener, size int) *dispatcher {
	d := &dispatcher{logger: logger, listener: listener, done: make(chan struct{})}
	if listener == nil {
		close(d.done)
		return d
	}
	if size <= 0 {
		size = defaultListenerBuffer
	}
	d.events = make(chan event, size)
	go d.run()
	return d
}

func (d *dispatcher) run() {
	defer close(d.done)
	errListener, _ := d.listener.(contracts.ErrorListener)

	for ev := range d.events {
		switch ev.kind {
		case eventStart:
			d.listener.OnStart(ev.code)
		case eventStop:
			d.listener.OnStop(ev.code)
		case eventSeek:
			d.listener.OnSeek(ev.code, ev.tick)
		case eventQuarterFrame:
			d.listener.OnQuarterFrame(ev.code, ev.piece)
		case eventClockPulse:
			d.listener.OnClockPulse(ev.tick)
		case eventSendError:
			if errListener != nil {
				errListener.OnSendError(ev.dest, ev.err)
			}
		}
	}
}

func (d *dispatcher) post(ev event) {
	if d.events == nil {
		return
	}
	select {
	case d.events <- ev:
	default:
		n := d.dropped.Add(1)
		d.logger.Debug("Listener buffer full; notification dropped",
			d.logger.Field().Uint64("dropped", n))
	}
}

func (d *dispatcher) start(code timecode.TimeCode) {
	d.post(event{kind: eventStart, code: code})
}

func (d *dispatcher) stop(code timecode.TimeCode) {
	d.post(event{kind: eventStop, code: code})
}

func (d *dispatcher) seek(code timecode.TimeCode, tick uint64) {
	d.post(event{kind: eventSeek, code: code, tick: tick})
}

func (d *dispatcher) quarterFrame(code timecode.TimeCode, piece uint8) {
	d.post(event{kind: eventQuarterFrame, code: code, piece: piece})
}

func (d *dispatcher) clockPulse(tick uint64) {
	d.post(event{kind: eventClockPulse, tick: tick})
}

// sendError is the registry's error reporter.
func (d *dispatcher) sendError(dest contracts.Destination, err error) {
	d.post(event{kind: eventSendError, dest: dest, err: err})
}

// close drains pending notifications and waits for the listener to return.
// No post may happen afterwards.
func (d *dispatcher) close() {
	if d.events != nil {
		close(d.events)
	}
	<-d.done
}
