package contracts

import "github.com/google/uuid"

// Handle identifies one opened output on a Transport. Handles are never reused.
type Handle uuid.UUID

// NewHandle returns a fresh random handle.
func NewHandle() Handle {
	return Handle(uuid.New())
}

func (h Handle) String() string {
	return uuid.UUID(h).String()
}

// Transport enumerates MIDI output endpoints, opens and closes them, and sends raw bytes.
// Implementations must be safe for concurrent use.
type Transport interface {
	ListDevices() ([]DeviceInfo, error) // Lists all available output endpoints.
	Open(index int) (Handle, error)     // Opens the endpoint at index.
	Close(h Handle) error               // Closes an opened endpoint.
	Send(h Handle, data []byte) error   // Sends one complete message.
	IsOpen(h Handle) bool               // Reports whether h refers to an open endpoint.
	Stop() error                        // Closes every handle and releases the transport.
}

// Destination addresses one opened output. It is a non-owning reference: whoever opened
// the handle is responsible for closing it.
type Destination struct {
	Transport Transport
	Handle    Handle
}

func (d Destination) String() string {
	return d.Handle.String()
}
