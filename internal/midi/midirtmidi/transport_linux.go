//go:build linux
// +build linux

package midirtmidi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/midichrono/sdk/contracts"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
	"go.uber.org/multierr"
)

var (
	ErrNoMIDIDevices     = errors.New("no MIDI output ports found")
	ErrInvalidMIDIDevice = errors.New("invalid MIDI device")
	ErrUnknownHandle     = errors.New("unknown MIDI handle")
	ErrPortScanTimeout   = errors.New("timed out listing MIDI ports")
)

// portScanTimeout bounds driver enumeration, which can hang when the MIDI service does.
const portScanTimeout = 3 * time.Second

// Transport sends sync messages to rtmidi output ports.
type Transport struct {
	logger contracts.Logger
	mu     sync.RWMutex
	open   map[contracts.Handle]drivers.Out
}

// NewTransport creates an rtmidi output transport.
func NewTransport(options *contracts.ClientOptions) (contracts.Transport, error) {
	options.Logger.Info("rtmidi output transport created")
	return &Transport{
		logger: options.Logger,
		open:   make(map[contracts.Handle]drivers.Out),
	}, nil
}

func outPorts() ([]drivers.Out, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()

	select {
	case outs := <-ch:
		return outs, nil
	case <-time.After(portScanTimeout):
		return nil, ErrPortScanTimeout
	}
}

// ListDevices lists the rtmidi output ports.
func (m *Transport) ListDevices() ([]contracts.DeviceInfo, error) {
	outs, err := outPorts()
	if err != nil {
		return nil, err
	}
	if len(outs) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(outs))
	for i, out := range outs {
		devices[i] = contracts.DeviceInfo{
			Index:      i,
			Name:       out.String(),
			EntityName: out.String(),
		}
	}
	return devices, nil
}

// Open opens the output port at index.
func (m *Transport) Open(index int) (contracts.Handle, error) {
	outs, err := outPorts()
	if err != nil {
		return contracts.Handle{}, err
	}
	if index < 0 || index >= len(outs) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("index", index))
		return contracts.Handle{}, ErrInvalidMIDIDevice
	}

	out := outs[index]
	if err := out.Open(); err != nil {
		return contracts.Handle{}, fmt.Errorf("opening MIDI port %q: %w", out.String(), err)
	}

	h := contracts.NewHandle()
	m.mu.Lock()
	m.open[h] = out
	m.mu.Unlock()

	m.logger.Info("MIDI output port opened",
		m.logger.Field().Int("index", index),
		m.logger.Field().String("name", out.String()),
		m.logger.Field().String("handle", h.String()))
	return h, nil
}

// Close closes the port behind h.
func (m *Transport) Close(h contracts.Handle) error {
	m.mu.Lock()
	out, ok := m.open[h]
	delete(m.open, h)
	m.mu.Unlock()
	if !ok {
		return ErrUnknownHandle
	}
	return out.Close()
}

// Send writes one message to the port behind h.
func (m *Transport) Send(h contracts.Handle, data []byte) error {
	m.mu.RLock()
	out, ok := m.open[h]
	m.mu.RUnlock()
	if !ok {
		return ErrUnknownHandle
	}
	return out.Send(data)
}

// IsOpen reports whether the port behind h is open.
func (m *Transport) IsOpen(h contracts.Handle) bool {
	m.mu.RLock()
	out, ok := m.open[h]
	m.mu.RUnlock()
	return ok && out.IsOpen()
}

// Stop closes every port and the driver.
func (m *Transport) Stop() error {
	m.mu.Lock()
	open := m.open
	m.open = make(map[contracts.Handle]drivers.Out)
	m.mu.Unlock()

	var err error
	for _, out := range open {
		if cerr := out.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("closing MIDI port %q: %w", out.String(), cerr))
		}
	}
	gomidi.CloseDriver()
	m.logger.Info("rtmidi output transport stopped")
	return err
}
