package midi

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/midichrono/internal/midi/mididarwin"
	"github.com/leandrodaf/midichrono/internal/midi/midirtmidi"
	"github.com/leandrodaf/midichrono/internal/midi/midiwindows"
	"github.com/leandrodaf/midichrono/internal/midi/oscbridge"
	"github.com/leandrodaf/midichrono/sdk/contracts"
)

// ErrUnsupportedOS is returned when the operating system has no MIDI output transport.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// transportInitializers maps OS names to the matching output transport.
var transportInitializers = map[string]func(*contracts.ClientOptions) (contracts.Transport, error){
	"darwin":  mididarwin.NewTransport,  // CoreMIDI destinations.
	"windows": midiwindows.NewTransport, // winmm output devices.
	"linux":   midirtmidi.NewTransport,  // ALSA through rtmidi.
}

// NewTransport creates the MIDI output transport for the current operating system.
//
// Returns:
//   - contracts.Transport: The device transport.
//   - error: ErrUnsupportedOS, or an initialization failure.
func NewTransport(opts ...contracts.Option) (contracts.Transport, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	if initializer, exists := transportInitializers[runtime.GOOS]; exists {
		return initializer(&options)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, runtime.GOOS)
}

// NewOSCTransport creates a transport whose devices are the configured OSC peers.
func NewOSCTransport(opts ...contracts.Option) (contracts.Transport, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}
	return oscbridge.NewTransport(&options)
}
