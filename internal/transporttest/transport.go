// Package transporttest provides an in-memory contracts.Transport that records every
// message sent to each handle.
package transporttest

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/leandrodaf/midichrono/sdk/contracts"
)

var (
	ErrInvalidDevice = errors.New("invalid device index")
	ErrUnknownHandle = errors.New("unknown handle")
)

// Transport is a recording transport. Devices are identified by name only.
type Transport struct {
	mu      sync.Mutex
	devices []string
	ports   map[contracts.Handle]*port
}

type port struct {
	index int
	sent  [][]byte
	fail  error
}

// New returns a transport exposing one device per name.
func New(names ...string) *Transport {
	return &Transport{
		devices: names,
		ports:   make(map[contracts.Handle]*port),
	}
}

func (t *Transport) ListDevices() ([]contracts.DeviceInfo, error) {
	out := make([]contracts.DeviceInfo, len(t.devices))
	for i, name := range t.devices {
		out[i] = contracts.DeviceInfo{Index: i, Name: name, EntityName: name}
	}
	return out, nil
}

func (t *Transport) Open(index int) (contracts.Handle, error) {
	if index < 0 || index >= len(t.devices) {
		return contracts.Handle{}, fmt.Errorf("%w: %d", ErrInvalidDevice, index)
	}
	h := contracts.NewHandle()
	t.mu.Lock()
	t.ports[h] = &port{index: index}
	t.mu.Unlock()
	return h, nil
}

func (t *Transport) Close(h contracts.Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.ports[h]; !ok {
		return ErrUnknownHandle
	}
	delete(t.ports, h)
	return nil
}

func (t *Transport) Send(h contracts.Handle, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.ports[h]
	if !ok {
		return ErrUnknownHandle
	}
	if p.fail != nil {
		return p.fail
	}
	p.sent = append(p.sent, append([]byte(nil), data...))
	return nil
}

func (t *Transport) IsOpen(h contracts.Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.ports[h]
	return ok
}

func (t *Transport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ports = make(map[contracts.Handle]*port)
	return nil
}

// Fail makes every later send to h return err. A nil err heals the handle.
func (t *Transport) Fail(h contracts.Handle, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.ports[h]; ok {
		p.fail = err
	}
}

// Sent returns a copy of everything sent to h, in order.
func (t *Transport) Sent(h contracts.Handle) [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.ports[h]
	if !ok {
		return nil
	}
	return append([][]byte(nil), p.sent...)
}

// Clear forgets what was sent to h.
func (t *Transport) Clear(h contracts.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.ports[h]; ok {
		p.sent = nil
	}
}

// OpenCount reports how many handles are open.
func (t *Transport) OpenCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ports)
}

// Destination opens device index and fails the test on error.
func (t *Transport) Destination(tb testing.TB, index int) contracts.Destination {
	tb.Helper()
	h, err := t.Open(index)
	if err != nil {
		tb.Fatalf("opening device %d: %v", index, err)
	}
	return contracts.Destination{Transport: t, Handle: h}
}
