package midi

import (
	"testing"

	"github.com/leandrodaf/midichrono/internal/engine"
	"github.com/leandrodaf/midichrono/internal/logger"
	"github.com/leandrodaf/midichrono/internal/midi/oscbridge"
	"github.com/leandrodaf/midichrono/sdk/contracts"
	"github.com/leandrodaf/midichrono/sdk/timecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestApplyDefaultOptions(t *testing.T) {
	options, err := applyDefaultOptions()
	require.NoError(t, err)

	assert.NotNil(t, options.Logger)
	assert.Equal(t, timecode.DefaultTempo, options.Tempo)
	assert.Equal(t, timecode.Rate30, options.FrameRate)
	assert.Equal(t, defaultListenerBuffer, options.ListenerBuffer)
	require.NotNil(t, options.CoreMIDIConfig)
	assert.Equal(t, "MIDI Chrono", options.CoreMIDIConfig.ClientName)
}

func TestApplyDefaultOptionsKeepsExplicitValues(t *testing.T) {
	options, err := applyDefaultOptions(
		contracts.WithTempo(90),
		contracts.WithFrameRate(timecode.Rate25),
		contracts.WithListenerBuffer(8),
		contracts.WithCoreMIDIConfig(contracts.CoreMIDIConfig{ClientName: "Rig", PortName: "Out"}),
	)
	require.NoError(t, err)

	assert.Equal(t, 90, options.Tempo)
	assert.Equal(t, timecode.Rate25, options.FrameRate)
	assert.Equal(t, 8, options.ListenerBuffer)
	assert.Equal(t, "Rig", options.CoreMIDIConfig.ClientName)
}

func TestNewChrono(t *testing.T) {
	chrono, err := NewChrono(contracts.WithLogger(logger.NewZapLoggerFrom(zaptest.NewLogger(t))))
	require.NoError(t, err)
	defer chrono.Close()

	snap := chrono.Snapshot()
	assert.Equal(t, contracts.Stopped, snap.State)
	assert.Equal(t, timecode.DefaultTempo, snap.Tempo)
	assert.Equal(t, timecode.Rate30, snap.Code.Rate)
	assert.Zero(t, snap.Tick)
}

func TestNewChronoRejectsBadTempo(t *testing.T) {
	_, err := NewChrono(
		contracts.WithLogger(logger.NewZapLoggerFrom(zaptest.NewLogger(t))),
		contracts.WithTempo(400),
	)
	assert.ErrorIs(t, err, engine.ErrInvalidTempo)
}

func TestNewOSCTransport(t *testing.T) {
	log := contracts.WithLogger(logger.NewZapLoggerFrom(zaptest.NewLogger(t)))

	_, err := NewOSCTransport(log)
	assert.ErrorIs(t, err, oscbridge.ErrNoPeers)

	tr, err := NewOSCTransport(log, contracts.WithOSCPeers("127.0.0.1:57120"))
	require.NoError(t, err)
	defer tr.Stop()

	devices, err := tr.ListDevices()
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "127.0.0.1:57120", devices[0].Name)
}
