package display

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/leandrodaf/midichrono/internal/logger"
	"github.com/leandrodaf/midichrono/sdk/contracts"
	"github.com/leandrodaf/midichrono/sdk/timecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFormat(t *testing.T) {
	code := timecode.FromTick(144, timecode.Rate30)
	assert.Equal(t, "running 00:00:03.00 02.03.00", Format(contracts.Running, code, 144))
	assert.Equal(t, "stopped 00:00:00.00 01.01.00", Format(contracts.Stopped, timecode.TimeCode{}, 0))
}

func TestTransitionsDrawImmediately(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf, WithInterval(time.Hour))

	d.OnStart(timecode.TimeCode{Rate: timecode.Rate30})
	d.OnSeek(timecode.FromTick(144, timecode.Rate30), 144)
	d.OnStop(timecode.FromTick(144, timecode.Rate30))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "running 00:00:00.00 01.01.00", lines[0])
	assert.Equal(t, "running 00:00:03.00 02.03.00", lines[1])
	assert.Equal(t, "stopped 00:00:03.00 02.03.00", lines[2])
	assert.False(t, d.inPlace, "a buffer is not a terminal")
}

func TestPulsesAreCoalesced(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf, WithInterval(20*time.Millisecond))
	d.OnStart(timecode.TimeCode{Rate: timecode.Rate30})

	for tick := uint64(1); tick <= 24; tick++ {
		d.OnClockPulse(tick)
	}

	require.Eventually(t, func() bool {
		return d.Line() == "running 00:00:00.00 01.02.00"
	}, time.Second, 5*time.Millisecond)
}

func TestFlushDrawsCurrentState(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf, WithInterval(time.Hour))
	d.OnStart(timecode.TimeCode{Rate: timecode.Rate30})
	d.OnClockPulse(6)

	d.Flush()
	assert.Equal(t, "running 00:00:00.00 01.01.06", d.Line())
}

func TestOnSendErrorLogs(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf, WithLogger(logger.NewZapLoggerFrom(zaptest.NewLogger(t))))

	assert.NotPanics(t, func() {
		d.OnSendError(contracts.Destination{Handle: contracts.NewHandle()}, errors.New("gone"))
	})
	assert.Empty(t, buf.String())
}
