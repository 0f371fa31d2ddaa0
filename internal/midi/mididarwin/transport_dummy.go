//go:build !darwin
// +build !darwin

package mididarwin

import (
	"errors"

	"github.com/leandrodaf/midichrono/sdk/contracts"
)

var errUnavailable = errors.New("CoreMIDI is not available on this platform")

type dummyTransport struct {
	logger contracts.Logger
}

// NewTransport returns a transport that fails every call on non-macOS systems.
func NewTransport(options *contracts.ClientOptions) (contracts.Transport, error) {
	options.Logger.Info("Using dummy CoreMIDI transport for non-macOS system")
	return &dummyTransport{logger: options.Logger}, nil
}

func (m *dummyTransport) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy CoreMIDI transport")
	return nil, errUnavailable
}

func (m *dummyTransport) Open(int) (contracts.Handle, error) {
	m.logger.Warn("Open called on dummy CoreMIDI transport")
	return contracts.Handle{}, errUnavailable
}

func (m *dummyTransport) Close(contracts.Handle) error {
	return errUnavailable
}

func (m *dummyTransport) Send(contracts.Handle, []byte) error {
	return errUnavailable
}

func (m *dummyTransport) IsOpen(contracts.Handle) bool {
	return false
}

func (m *dummyTransport) Stop() error {
	m.logger.Warn("Stop called on dummy CoreMIDI transport")
	return nil
}
