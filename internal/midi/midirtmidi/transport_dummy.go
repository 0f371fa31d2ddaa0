//go:build !linux
// +build !linux

package midirtmidi

import (
	"errors"

	"github.com/leandrodaf/midichrono/sdk/contracts"
)

var errUnavailable = errors.New("rtmidi output is only wired on linux")

type dummyTransport struct {
	logger contracts.Logger
}

// NewTransport returns a transport that fails every call on non-Linux systems.
func NewTransport(options *contracts.ClientOptions) (contracts.Transport, error) {
	options.Logger.Info("Using dummy rtmidi transport for non-Linux system")
	return &dummyTransport{logger: options.Logger}, nil
}

func (m *dummyTransport) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy rtmidi transport")
	return nil, errUnavailable
}

func (m *dummyTransport) Open(int) (contracts.Handle, error) {
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
	return nil
}
