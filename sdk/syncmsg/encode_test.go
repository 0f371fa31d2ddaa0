package syncmsg

import (
	"testing"

	"github.com/leandrodaf/midichrono/sdk/timecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRealtime(t *testing.T) {
	cases := map[Kind][]byte{
		KindClockPulse:    {0xF8},
		KindClockStart:    {0xFA},
		KindClockContinue: {0xFB},
		KindClockStop:     {0xFC},
	}
	for kind, want := range cases {
		got, err := Encode(Message{Kind: kind})
		require.NoError(t, err)
		assert.Equal(t, want, got, kind.String())
	}
}

func TestEncodeSongPosition(t *testing.T) {
	got, err := Encode(SongPositionPointer(24))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xF2, 24, 0}, got)

	got, err = Encode(SongPositionPointer(0x3FFF))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xF2, 0x7F, 0x7F}, got)

	got, err = Encode(SongPositionPointer(300))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xF2, 300 & 0x7F, 300 >> 7}, got)

	_, err = Encode(SongPositionPointer(0x4000))
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
}

func TestSongPositionFromTickTruncates(t *testing.T) {
	m, err := SongPositionFromTick(144)
	require.NoError(t, err)
	assert.Equal(t, uint16(24), m.Beat16th)

	m, err = SongPositionFromTick(149)
	require.NoError(t, err)
	assert.Equal(t, uint16(24), m.Beat16th)

	_, err = SongPositionFromTick((MaxSongPosition + 1) * 6)
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
}

func TestEncodeFullTimeCode(t *testing.T) {
	tc := timecode.TimeCode{Hour: 1, Minute: 2, Second: 3, Frame: 4, Rate: timecode.Rate30}
	got, err := Encode(FullTimeCode(tc))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xF0, 0x7F, 0x7F, 0x01, 0x01, 0x61, 2, 3, 4, 0xF7}, got)

	tc.Rate = timecode.Rate24
	got, err = Encode(FullTimeCode(tc))
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), got[5])
}

func TestFullTimeCodeIsSingleSysExFrame(t *testing.T) {
	tc := timecode.TimeCode{Hour: 23, Minute: 59, Second: 59, Frame: 24, Rate: timecode.Rate25}
	got := MustEncode(FullTimeCode(tc))

	require.Len(t, got, 10)
	assert.Equal(t, StatusSysExStart, got[0])
	assert.Equal(t, StatusSysExEnd, got[len(got)-1])
	assert.Equal(t, []byte{0x7F, 0x7F, 0x01, 0x01, 1<<5 | 23, 59, 59, 24}, got[1:9])
	for _, b := range got[1 : len(got)-1] {
		assert.Less(t, b, byte(0x80), "data bytes stay 7-bit")
	}
}

func TestEncodeQuarterFrames(t *testing.T) {
	// 23:59:58.29 @ 30 fps
	tc := timecode.TimeCode{Hour: 23, Minute: 59, Second: 58, Frame: 29, Rate: timecode.Rate30}
	want := [][]byte{
		{0xF1, 0x0D},
		{0xF1, 0x11},
		{0xF1, 0x2A},
		{0xF1, 0x33},
		{0xF1, 0x4B},
		{0xF1, 0x53},
		{0xF1, 0x67},
		{0xF1, 0x77},
	}
	for piece := uint8(0); piece < QuarterFramePieces; piece++ {
		got, err := Encode(QuarterFrame(piece, tc))
		require.NoError(t, err)
		assert.Equal(t, want[piece], got, "piece %d", piece)
	}
}

func TestEncodeQuarterFrameRateBits(t *testing.T) {
	tc := timecode.TimeCode{Rate: timecode.Rate25}
	got, err := Encode(QuarterFrame(7, tc))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xF1, 0x72}, got)

	tc.Rate = timecode.Rate2997Drop
	got, err = Encode(QuarterFrame(7, tc))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xF1, 0x74}, got)
}

func TestEncodeRejectsMalformed(t *testing.T) {
	valid := timecode.TimeCode{Rate: timecode.Rate30}

	_, err := Encode(QuarterFrame(8, valid))
	assert.ErrorIs(t, err, ErrInvalidPiece)

	_, err = Encode(FullTimeCode(timecode.TimeCode{}))
	assert.ErrorIs(t, err, ErrInvalidFrameRate)

	_, err = Encode(QuarterFrame(0, timecode.TimeCode{Frame: 25, Rate: timecode.Rate25}))
	assert.ErrorIs(t, err, ErrInvalidTimeCode)

	_, err = Encode(Message{})
	assert.ErrorIs(t, err, ErrUnknownMessage)

	assert.Panics(t, func() { MustEncode(QuarterFrame(9, valid)) })
}

func TestIsClock(t *testing.T) {
	assert.True(t, ClockPulse().IsClock())
	assert.True(t, SongPositionPointer(1).IsClock())
	assert.False(t, FullTimeCode(timecode.TimeCode{}).IsClock())
	assert.False(t, QuarterFrame(0, timecode.TimeCode{}).IsClock())
}
