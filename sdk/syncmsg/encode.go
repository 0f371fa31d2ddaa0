package syncmsg

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/midichrono/sdk/timecode"
	"gitlab.com/gomidi/midi/v2"
)

// Encoding errors. They indicate a malformed Message and are never produced for
// messages built from valid positions.
var (
	ErrUnknownMessage     = errors.New("unknown sync message kind")
	ErrInvalidPiece       = errors.New("quarter-frame piece out of range")
	ErrInvalidFrameRate   = errors.New("invalid frame rate")
	ErrInvalidTimeCode    = errors.New("time code field out of range")
	ErrPositionOutOfRange = errors.New("song position exceeds 14 bits")
)

// Encode returns the wire bytes for m.
func Encode(m Message) ([]byte, error) {
	switch m.Kind {
	case KindClockPulse:
		return midi.TimingClock(), nil
	case KindClockStart:
		return midi.Start(), nil
	case KindClockStop:
		return midi.Stop(), nil
	case KindClockContinue:
		return midi.Continue(), nil
	case KindSongPosition:
		if m.Beat16th > MaxSongPosition {
			return nil, fmt.Errorf("%w: %d", ErrPositionOutOfRange, m.Beat16th)
		}
		// midi.SPP puts the MSB first; the wire order is LSB, MSB.
		return []byte{StatusSongPosition, byte(m.Beat16th & 0x7F), byte((m.Beat16th >> 7) & 0x7F)}, nil
	case KindFullTimeCode:
		return encodeFullTimeCode(m.Code)
	case KindQuarterFrame:
		return encodeQuarterFrame(m.Piece, m.Code)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownMessage, m.Kind)
}

// MustEncode is Encode for messages the caller has already validated. It panics on error.
func MustEncode(m Message) []byte {
	b, err := Encode(m)
	if err != nil {
		panic(err)
	}
	return b
}

func checkTimeCode(tc timecode.TimeCode) (uint8, error) {
	rate, ok := tc.Rate.Code()
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFrameRate, tc.Rate)
	}
	if !tc.Valid() {
		return 0, fmt.Errorf("%w: %s@%s", ErrInvalidTimeCode, tc, tc.Rate)
	}
	return rate, nil
}

// encodeFullTimeCode builds the universal real-time SysEx full frame:
// F0 7F 7F 01 01 hr mn sc fr F7, with the rate in bits 5-6 of hr.
func encodeFullTimeCode(tc timecode.TimeCode) ([]byte, error) {
	rate, err := checkTimeCode(tc)
	if err != nil {
		return nil, err
	}
	return midi.SysEx([]byte{
		0x7F, 0x7F, 0x01, 0x01,
		rate<<5 | tc.Hour,
		tc.Minute,
		tc.Second,
		tc.Frame,
	}), nil
}

func encodeQuarterFrame(piece uint8, tc timecode.TimeCode) ([]byte, error) {
	if piece >= QuarterFramePieces {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPiece, piece)
	}
	rate, err := checkTimeCode(tc)
	if err != nil {
		return nil, err
	}

	var nibble uint8
	switch piece {
	case 0:
		nibble = tc.Frame & 0x0F
	case 1:
		nibble = tc.Frame >> 4 & 0x01
	case 2:
		nibble = tc.Second & 0x0F
	case 3:
		nibble = tc.Second >> 4 & 0x03
	case 4:
		nibble = tc.Minute & 0x0F
	case 5:
		nibble = tc.Minute >> 4 & 0x03
	case 6:
		nibble = tc.Hour & 0x0F
	case 7:
		nibble = rate<<1 | tc.Hour>>4&0x01
	}
	return midi.MTC(piece<<4 | nibble), nil
}
