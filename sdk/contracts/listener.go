package contracts

import "github.com/leandrodaf/midichrono/sdk/timecode"

// Listener receives position and transport updates for display. Callbacks run on a
// dispatch goroutine owned by the chrono, never on its timing goroutine, but they must
// still return quickly: a slow listener causes notifications to be dropped.
type Listener interface {
	OnStart(code timecode.TimeCode)
	OnStop(code timecode.TimeCode)
	OnSeek(code timecode.TimeCode, tick uint64)
	OnQuarterFrame(code timecode.TimeCode, piece uint8)
	OnClockPulse(tick uint64)
}

// ErrorListener is optionally implemented by a Listener that wants to hear about
// destinations dropped after a failed send.
type ErrorListener interface {
	OnSendError(dest Destination, err error)
}

// NopListener ignores every notification. Embed it to implement only some callbacks.
type NopListener struct{}

func (NopListener) OnStart(timecode.TimeCode)               {}
func (NopListener) OnStop(timecode.TimeCode)                {}
func (NopListener) OnSeek(timecode.TimeCode, uint64)        {}
func (NopListener) OnQuarterFrame(timecode.TimeCode, uint8) {}
func (NopListener) OnClockPulse(uint64)                     {}
