//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midichrono/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for CoreMIDI output handling.
var (
	ErrNoMIDIDevices     = errors.New("no MIDI destinations found")
	ErrInvalidMIDIDevice = errors.New("invalid MIDI device")
	ErrUnknownHandle     = errors.New("unknown MIDI handle")
	ErrCreateOutputPort  = errors.New("error creating output port")
)

// Transport sends sync messages to CoreMIDI destinations through one output port.
type Transport struct {
	logger contracts.Logger
	client coremidi.Client
	port   coremidi.OutputPort
	mu     sync.RWMutex
	open   map[contracts.Handle]coremidi.Destination
}

// NewTransport creates the CoreMIDI client and its output port.
func NewTransport(options *contracts.ClientOptions) (contracts.Transport, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}
	port, err := coremidi.NewOutputPort(client, options.CoreMIDIConfig.PortName)
	if err != nil {
		options.Logger.Error(ErrCreateOutputPort.Error())
		return nil, fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
	}
	options.Logger.Info("CoreMIDI output transport created",
		options.Logger.Field().String("client", options.CoreMIDIConfig.ClientName))

	return &Transport{
		logger: options.Logger,
		client: client,
		port:   port,
		open:   make(map[contracts.Handle]coremidi.Destination),
	}, nil
}

// ListDevices returns every CoreMIDI destination.
func (m *Transport) ListDevices() ([]contracts.DeviceInfo, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	if len(destinations) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(destinations))
	for i, destination := range destinations {
		entity := destination.Entity()
		devices[i] = contracts.DeviceInfo{
			Index:        i,
			Name:         destination.Name(),
			EntityName:   entity.Name(),
			Manufacturer: entity.Manufacturer(),
		}
	}
	return devices, nil
}

// Open resolves the destination at index. CoreMIDI destinations need no connection;
// the handle simply pins the endpoint.
func (m *Transport) Open(index int) (contracts.Handle, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return contracts.Handle{}, fmt.Errorf("error retrieving MIDI destinations: %w", err)
	}
	if index < 0 || index >= len(destinations) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("index", index))
		return contracts.Handle{}, ErrInvalidMIDIDevice
	}

	h := contracts.NewHandle()
	m.mu.Lock()
	m.open[h] = destinations[index]
	m.mu.Unlock()

	m.logger.Info("MIDI destination opened",
		m.logger.Field().Int("index", index),
		m.logger.Field().String("name", destinations[index].Name()),
		m.logger.Field().String("handle", h.String()))
	return h, nil
}

// Close releases the handle.
func (m *Transport) Close(h contracts.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.open[h]; !ok {
		return ErrUnknownHandle
	}
	delete(m.open, h)
	return nil
}

// Send delivers one message, timestamped for immediate output.
func (m *Transport) Send(h contracts.Handle, data []byte) error {
	m.mu.RLock()
	destination, ok := m.open[h]
	m.mu.RUnlock()
	if !ok {
		return ErrUnknownHandle
	}

	packet := coremidi.NewPacket(data, 0)
	if err := packet.Send(&m.port, &destination); err != nil {
		return fmt.Errorf("sending to %s: %w", destination.Name(), err)
	}
	return nil
}

// IsOpen reports whether h is open.
func (m *Transport) IsOpen(h contracts.Handle) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.open[h]
	return ok
}

// Stop releases every handle.
func (m *Transport) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = make(map[contracts.Handle]coremidi.Destination)
	m.logger.Info("CoreMIDI output transport stopped")
	return nil
}
