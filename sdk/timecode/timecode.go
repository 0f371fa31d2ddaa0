// Package timecode models a transport position both as an SMPTE-style time code and as a
// monotonically increasing tick counter at a fixed 24 PPQN, 4/4 meter.
package timecode

import (
	"errors"
	"fmt"
	"strings"
)

// Fixed meter and resolution.
const (
	TicksPerBeat      = 24
	BeatsPerBar       = 4
	TicksPerBar       = TicksPerBeat * BeatsPerBar
	TicksPerSixteenth = TicksPerBeat / 4

	// DefaultTempo is the tempo, in BPM, used by FromTick and ToTick.
	DefaultTempo = 120
)

// ErrUnknownFrameRate is returned by ParseFrameRate for unsupported rates.
var ErrUnknownFrameRate = errors.New("unknown frame rate")

// FrameRate is one of the four SMPTE rates MIDI Time Code can carry.
// The zero value means "unset".
type FrameRate uint8

const (
	RateUnset    FrameRate = 0
	Rate24       FrameRate = 24
	Rate25       FrameRate = 25
	Rate2997Drop FrameRate = 29
	Rate30       FrameRate = 30
)

// Valid reports whether r is one of the supported rates.
func (r FrameRate) Valid() bool {
	switch r {
	case Rate24, Rate25, Rate2997Drop, Rate30:
		return true
	}
	return false
}

// FramesPerSecond returns the nominal frame count per second. Drop-frame uses the nominal 30.
// Unsupported rates return 0.
func (r FrameRate) FramesPerSecond() int {
	switch r {
	case Rate24:
		return 24
	case Rate25:
		return 25
	case Rate2997Drop, Rate30:
		return 30
	}
	return 0
}

// Code returns the two-bit rate identifier used on the MTC wire.
func (r FrameRate) Code() (uint8, bool) {
	switch r {
	case Rate24:
		return 0, true
	case Rate25:
		return 1, true
	case Rate2997Drop:
		return 2, true
	case Rate30:
		return 3, true
	}
	return 0, false
}

func (r FrameRate) String() string {
	switch r {
	case Rate24:
		return "24"
	case Rate25:
		return "25"
	case Rate2997Drop:
		return "29.97df"
	case Rate30:
		return "30"
	case RateUnset:
		return "unset"
	}
	return fmt.Sprintf("FrameRate(%d)", uint8(r))
}

// ParseFrameRate accepts "24", "25", "29.97", "29.97df" and "30".
func ParseFrameRate(s string) (FrameRate, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "24":
		return Rate24, nil
	case "25":
		return Rate25, nil
	case "29.97", "29.97df", "2997", "29":
		return Rate2997Drop, nil
	case "30":
		return Rate30, nil
	}
	return RateUnset, fmt.Errorf("%w: %q", ErrUnknownFrameRate, s)
}

// TimeCode is an immutable position value. SubFrame holds the exact remainder of the
// tick to frame division, in units of 1/(tempo*TicksPerBeat) of a frame, so a TimeCode
// produced by a Timebase converts back to the same tick.
type TimeCode struct {
	Hour     uint8
	Minute   uint8
	Second   uint8
	Frame    uint8
	SubFrame uint32
	Rate     FrameRate
}

// IsZero reports whether the position is exactly the start of the transport.
// The rate is not part of the position.
func (tc TimeCode) IsZero() bool {
	return tc.Hour == 0 && tc.Minute == 0 && tc.Second == 0 && tc.Frame == 0 && tc.SubFrame == 0
}

// Valid reports whether every field is in range for the time code's rate.
func (tc TimeCode) Valid() bool {
	if !tc.Rate.Valid() {
		return false
	}
	return tc.Hour < 24 && tc.Minute < 60 && tc.Second < 60 && int(tc.Frame) < tc.Rate.FramesPerSecond()
}

// String renders HH:MM:SS.FF.
func (tc TimeCode) String() string {
	return fmt.Sprintf("%02d:%02d:%02d.%02d", tc.Hour, tc.Minute, tc.Second, tc.Frame)
}

// Timebase maps ticks to wall-clock positions at a tempo and frame rate.
type Timebase struct {
	Tempo int // BPM
	Rate  FrameRate
}

func (tb Timebase) ticksPerMinute() uint64 {
	if tb.Tempo <= 0 {
		panic(fmt.Sprintf("timecode: invalid tempo %d", tb.Tempo))
	}
	return uint64(tb.Tempo) * TicksPerBeat
}

func framesPerSecond(r FrameRate) uint64 {
	fps := r.FramesPerSecond()
	if fps == 0 {
		panic(fmt.Sprintf("timecode: invalid frame rate %v", r))
	}
	return uint64(fps)
}

// TimeCode converts a tick to a time code. Positions past 24 hours wrap.
// It panics if the tempo or rate is invalid.
func (tb Timebase) TimeCode(tick uint64) TimeCode {
	fps := framesPerSecond(tb.Rate)
	tpm := tb.ticksPerMinute()

	scaled := tick * fps * 60
	frames := scaled / tpm
	rem := scaled % tpm
	frames %= fps * 86400

	seconds := frames / fps
	return TimeCode{
		Hour:     uint8(seconds / 3600),
		Minute:   uint8(seconds / 60 % 60),
		Second:   uint8(seconds % 60),
		Frame:    uint8(frames % fps),
		SubFrame: uint32(rem),
		Rate:     tb.Rate,
	}
}

// Tick converts a time code back to a tick. The time code's own rate wins when it is set.
func (tb Timebase) Tick(tc TimeCode) uint64 {
	rate := tc.Rate
	if !rate.Valid() {
		rate = tb.Rate
	}
	fps := framesPerSecond(rate)
	tpm := tb.ticksPerMinute()

	seconds := (uint64(tc.Hour)*60+uint64(tc.Minute))*60 + uint64(tc.Second)
	frames := seconds*fps + uint64(tc.Frame)
	return (frames*tpm + uint64(tc.SubFrame)) / (fps * 60)
}

// FromTick converts a tick to a time code at DefaultTempo.
func FromTick(tick uint64, rate FrameRate) TimeCode {
	return Timebase{Tempo: DefaultTempo, Rate: rate}.TimeCode(tick)
}

// ToTick converts a time code produced by FromTick back to its tick.
func ToTick(tc TimeCode) uint64 {
	return Timebase{Tempo: DefaultTempo, Rate: tc.Rate}.Tick(tc)
}
