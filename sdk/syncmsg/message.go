// Package syncmsg encodes MIDI synchronization messages: timing clock, transport,
// song position pointer and MIDI Time Code.
package syncmsg

import (
	"fmt"

	"github.com/leandrodaf/midichrono/sdk/timecode"
)

// Kind identifies the variant held by a Message.
type Kind uint8

const (
	KindClockPulse Kind = iota + 1
	KindClockStart
	KindClockStop
	KindClockContinue
	KindSongPosition
	KindFullTimeCode
	KindQuarterFrame
)

// Wire status bytes.
const (
	StatusQuarterFrame  byte = 0xF1
	StatusSongPosition  byte = 0xF2
	StatusTimingClock   byte = 0xF8
	StatusStart         byte = 0xFA
	StatusContinue      byte = 0xFB
	StatusStop          byte = 0xFC
	StatusSysExStart    byte = 0xF0
	StatusSysExEnd      byte = 0xF7
)

const (
	// MaxSongPosition is the largest 14-bit song position pointer.
	MaxSongPosition = 0x3FFF
	// QuarterFramePieces is the number of quarter-frame messages in one full MTC cycle.
	QuarterFramePieces = 8
)

func (k Kind) String() string {
	switch k {
	case KindClockPulse:
		return "ClockPulse"
	case KindClockStart:
		return "ClockStart"
	case KindClockStop:
		return "ClockStop"
	case KindClockContinue:
		return "ClockContinue"
	case KindSongPosition:
		return "SongPositionPointer"
	case KindFullTimeCode:
		return "FullTimeCode"
	case KindQuarterFrame:
		return "QuarterFrame"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Message is a synchronization event. Only the fields relevant to Kind are meaningful.
type Message struct {
	Kind     Kind
	Beat16th uint16            // KindSongPosition
	Piece    uint8             // KindQuarterFrame
	Code     timecode.TimeCode // KindFullTimeCode, KindQuarterFrame
}

func ClockPulse() Message    { return Message{Kind: KindClockPulse} }
func ClockStart() Message    { return Message{Kind: KindClockStart} }
func ClockStop() Message     { return Message{Kind: KindClockStop} }
func ClockContinue() Message { return Message{Kind: KindClockContinue} }

// SongPositionPointer positions receivers at beat16th sixteenth notes (6 clock pulses each).
func SongPositionPointer(beat16th uint16) Message {
	return Message{Kind: KindSongPosition, Beat16th: beat16th}
}

// SongPositionFromTick computes the pointer for a tick, truncating to the sixteenth.
func SongPositionFromTick(tick uint64) (Message, error) {
	pos := tick / timecode.TicksPerSixteenth
	if pos > MaxSongPosition {
		return Message{}, fmt.Errorf("%w: tick %d", ErrPositionOutOfRange, tick)
	}
	return SongPositionPointer(uint16(pos)), nil
}

// FullTimeCode asserts an absolute position in a single message.
func FullTimeCode(code timecode.TimeCode) Message {
	return Message{Kind: KindFullTimeCode, Code: code}
}

// QuarterFrame carries one of the eight nibbles of code.
func QuarterFrame(piece uint8, code timecode.TimeCode) Message {
	return Message{Kind: KindQuarterFrame, Piece: piece, Code: code}
}

// IsClock reports whether the message belongs to the clock family (clock, transport, SPP).
func (m Message) IsClock() bool {
	switch m.Kind {
	case KindClockPulse, KindClockStart, KindClockStop, KindClockContinue, KindSongPosition:
		return true
	}
	return false
}

func (m Message) String() string {
	switch m.Kind {
	case KindSongPosition:
		return fmt.Sprintf("%s{%d}", m.Kind, m.Beat16th)
	case KindFullTimeCode:
		return fmt.Sprintf("%s{%s@%s}", m.Kind, m.Code, m.Code.Rate)
	case KindQuarterFrame:
		return fmt.Sprintf("%s{%d %s@%s}", m.Kind, m.Piece, m.Code, m.Code.Rate)
	}
	return m.Kind.String()
}
