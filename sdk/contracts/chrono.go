package contracts

import "github.com/leandrodaf/midichrono/sdk/timecode"

// TransportState is the chrono's run state.
type TransportState int

const (
	Stopped TransportState = iota
	Running
)

func (s TransportState) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Snapshot is a consistent view of the chrono at one instant.
type Snapshot struct {
	State   TransportState
	Tick    uint64
	Code    timecode.TimeCode
	BarBeat timecode.BarBeat
	Tempo   int
}

// Chrono is the transport/time-code synchronization engine.
type Chrono interface {
	Start() error           // Starts (or continues) the transport.
	Stop() error            // Stops the transport, keeping the position.
	Rewind() error          // Seeks to tick 0.
	Seek(tick uint64) error // Moves the position and announces it.
	SetTempo(bpm int) error // Changes the clock tempo.
	Snapshot() Snapshot     // Returns the current state.

	RegisterForClock(dest Destination, enabled bool) // Adds or removes dest from clock subscribers.
	RegisterForMTC(dest Destination, enabled bool)   // Adds or removes dest from MTC subscribers.
	Deregister(dest Destination)                     // Removes dest from both sets.

	Close() error // Stops the timing and dispatch goroutines.
}
