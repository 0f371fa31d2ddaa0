//go:build !windows
// +build !windows

package midiwindows

import (
	"fmt"

	"github.com/leandrodaf/midichrono/sdk/contracts"
)

type dummyTransport struct {
	logger contracts.Logger
}

// NewTransport initializes a dummy transport for non-Windows systems.
func NewTransport(options *contracts.ClientOptions) (contracts.Transport, error) {
	options.Logger.Info("Using dummy winmm transport for non-Windows system")
	return &dummyTransport{logger: options.Logger}, nil
}

// ListDevices logs a warning and returns an error indicating that winmm is unavailable on this platform.
func (m *dummyTransport) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy winmm transport")
	return nil, fmt.Errorf("winmm output is not available on this platform")
}

// Open logs a warning and returns an error indicating that winmm is unavailable on this platform.
func (m *dummyTransport) Open(int) (contracts.Handle, error) {
	m.logger.Warn("Open called on dummy winmm transport")
	return contracts.Handle{}, fmt.Errorf("winmm output is not available on this platform")
}

func (m *dummyTransport) Close(contracts.Handle) error {
	return fmt.Errorf("winmm output is not available on this platform")
}

func (m *dummyTransport) Send(contracts.Handle, []byte) error {
	return fmt.Errorf("winmm output is not available on this platform")
}

func (m *dummyTransport) IsOpen(contracts.Handle) bool {
	return false
}

// Stop logs a warning indicating that Stop was called on the dummy transport.
func (m *dummyTransport) Stop() error {
	m.logger.Warn("Stop called on dummy winmm transport")
	return nil
}
