package timecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allRates = []FrameRate{Rate24, Rate25, Rate2997Drop, Rate30}

func TestRoundTripAtDefaultTempo(t *testing.T) {
	for _, rate := range allRates {
		for tick := uint64(0); tick < 5000; tick++ {
			tc := FromTick(tick, rate)
			require.True(t, tc.Valid(), "rate %v tick %d gave %+v", rate, tick, tc)
			require.Equal(t, tick, ToTick(tc), "rate %v", rate)
		}
	}
}

func TestRoundTripAcrossTempos(t *testing.T) {
	ticks := []uint64{0, 1, 5, 23, 24, 95, 96, 144, 1001, 98303, 600_000}
	for _, rate := range allRates {
		for _, tempo := range []int{20, 97, 120, 133, 300} {
			tb := Timebase{Tempo: tempo, Rate: rate}
			for _, tick := range ticks {
				assert.Equal(t, tick, tb.Tick(tb.TimeCode(tick)), "tempo %d rate %v", tempo, rate)
			}
		}
	}
}

func TestFromTickFields(t *testing.T) {
	// 120 BPM, 24 PPQN: 48 ticks per second.
	assert.Equal(t, TimeCode{Second: 1, Rate: Rate30}, FromTick(48, Rate30))
	assert.Equal(t, TimeCode{Minute: 1, Second: 2, Frame: 15, Rate: Rate30}, FromTick(48*62+24, Rate30))
	assert.Equal(t, TimeCode{Hour: 1, Rate: Rate25}, FromTick(48*3600, Rate25))

	tc := FromTick(1, Rate30)
	assert.Equal(t, uint8(0), tc.Frame)
	assert.NotZero(t, tc.SubFrame)
}

func TestIsZero(t *testing.T) {
	assert.True(t, TimeCode{}.IsZero())
	assert.True(t, FromTick(0, Rate30).IsZero())
	assert.Equal(t, TimeCode{Rate: Rate30}, FromTick(0, Rate30))
	assert.False(t, FromTick(1, Rate30).IsZero())
	assert.False(t, TimeCode{Frame: 1}.IsZero())
}

func TestWrapsAfterTwentyFourHours(t *testing.T) {
	day := uint64(48 * 86400)
	assert.Equal(t, FromTick(100, Rate24), FromTick(day+100, Rate24))
}

func TestBarBeatDistribution(t *testing.T) {
	for tick := uint64(0); tick < 2000; tick++ {
		bb := NewBarBeat(tick)
		assert.Equal(t, tick/96, bb.Bar)
		assert.Equal(t, (tick/24)%4, bb.Beat)
		assert.Equal(t, tick%24, bb.SubBeat)
		assert.Equal(t, tick, bb.Tick())
	}
	assert.Equal(t, BarBeat{Bar: 0, Beat: 1, SubBeat: 0}, NewBarBeat(24))
	assert.Equal(t, "02.03.05", NewBarBeat(96+48+5).String())
}

func TestFrameRateHelpers(t *testing.T) {
	assert.Equal(t, 30, Rate2997Drop.FramesPerSecond())
	assert.Equal(t, 0, RateUnset.FramesPerSecond())
	assert.False(t, FrameRate(31).Valid())

	code, ok := Rate25.Code()
	assert.True(t, ok)
	assert.Equal(t, uint8(1), code)

	r, err := ParseFrameRate("29.97df")
	require.NoError(t, err)
	assert.Equal(t, Rate2997Drop, r)

	_, err = ParseFrameRate("60")
	assert.ErrorIs(t, err, ErrUnknownFrameRate)
}

func TestTimebasePanicsOnInvalidRate(t *testing.T) {
	assert.Panics(t, func() { Timebase{Tempo: 120, Rate: FrameRate(7)}.TimeCode(10) })
	assert.Panics(t, func() { Timebase{Tempo: 0, Rate: Rate30}.TimeCode(10) })
}

func TestString(t *testing.T) {
	assert.Equal(t, "00:01:02.15", TimeCode{Minute: 1, Second: 2, Frame: 15}.String())
}
