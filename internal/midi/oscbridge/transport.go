// Package oscbridge forwards encoded sync messages to OSC peers over UDP.
package oscbridge

import (
	"net"
	"sync"

	"github.com/leandrodaf/midichrono/sdk/contracts"
	"github.com/pkg/errors"
	"github.com/scgolang/osc"
	"go.uber.org/multierr"
)

// Address is the OSC address every forwarded message is sent to.
const Address = "/midi/sync"

var (
	ErrNoPeers       = errors.New("no OSC peers configured")
	ErrInvalidPeer   = errors.New("invalid OSC peer")
	ErrUnknownHandle = errors.New("unknown OSC handle")
)

// packetConn is the part of *osc.UDPConn the bridge uses.
type packetConn interface {
	Send(p osc.Packet) error
	Close() error
}

type peerConn struct {
	addr string
	conn packetConn
}

// Transport treats each configured peer address as an output device.
type Transport struct {
	logger contracts.Logger
	peers  []string

	mu   sync.RWMutex
	open map[contracts.Handle]peerConn
}

// NewTransport creates a bridge over options.OSCPeers.
func NewTransport(options *contracts.ClientOptions) (contracts.Transport, error) {
	if len(options.OSCPeers) == 0 {
		return nil, ErrNoPeers
	}
	peers := make([]string, len(options.OSCPeers))
	copy(peers, options.OSCPeers)
	return &Transport{
		logger: options.Logger,
		peers:  peers,
		open:   make(map[contracts.Handle]peerConn),
	}, nil
}

// ListDevices reports one device per peer.
func (t *Transport) ListDevices() ([]contracts.DeviceInfo, error) {
	devices := make([]contracts.DeviceInfo, len(t.peers))
	for i, p := range t.peers {
		devices[i] = contracts.DeviceInfo{
			Index:        i,
			Name:         p,
			Manufacturer: "OSC",
			EntityName:   Address,
		}
	}
	return devices, nil
}

// Open dials the peer at index.
func (t *Transport) Open(index int) (contracts.Handle, error) {
	if index < 0 || index >= len(t.peers) {
		return contracts.Handle{}, errors.Wrapf(ErrInvalidPeer, "index %d", index)
	}
	addr := t.peers[index]
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return contracts.Handle{}, errors.Wrapf(err, "resolving OSC peer %s", addr)
	}
	conn, err := osc.DialUDP("udp", nil, raddr)
	if err != nil {
		return contracts.Handle{}, errors.Wrapf(err, "dialing OSC peer %s", addr)
	}

	h := contracts.NewHandle()
	t.mu.Lock()
	t.open[h] = peerConn{addr: addr, conn: conn}
	t.mu.Unlock()

	t.logger.Info("OSC peer opened",
		t.logger.Field().String("peer", addr),
		t.logger.Field().String("handle", h.String()))
	return h, nil
}

// Close closes the connection behind h.
func (t *Transport) Close(h contracts.Handle) error {
	t.mu.Lock()
	pc, ok := t.open[h]
	delete(t.open, h)
	t.mu.Unlock()
	if !ok {
		return ErrUnknownHandle
	}
	return errors.Wrapf(pc.conn.Close(), "closing OSC peer %s", pc.addr)
}

// Send wraps data in a single blob argument.
func (t *Transport) Send(h contracts.Handle, data []byte) error {
	t.mu.RLock()
	pc, ok := t.open[h]
	t.mu.RUnlock()
	if !ok {
		return ErrUnknownHandle
	}

	blob := make([]byte, len(data))
	copy(blob, data)
	err := pc.conn.Send(osc.Message{
		Address: Address,
		Arguments: osc.Arguments{
			osc.Blob(blob),
		},
	})
	return errors.Wrapf(err, "sending to OSC peer %s", pc.addr)
}

// IsOpen reports whether h has a live connection.
func (t *Transport) IsOpen(h contracts.Handle) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.open[h]
	return ok
}

// Stop closes every connection.
func (t *Transport) Stop() error {
	t.mu.Lock()
	open := t.open
	t.open = make(map[contracts.Handle]peerConn)
	t.mu.Unlock()

	var err error
	for _, pc := range open {
		err = multierr.Append(err, errors.Wrapf(pc.conn.Close(), "closing OSC peer %s", pc.addr))
	}
	t.logger.Info("OSC bridge stopped")
	return err
}
