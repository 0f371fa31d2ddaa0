package timecode

import "fmt"

// BarBeat is a tick split into bars, beats and sub-beat ticks, all 0-based.
type BarBeat struct {
	Bar     uint64
	Beat    uint64
	SubBeat uint64
}

// NewBarBeat splits tick at the fixed 24 PPQN, 4 beats per bar meter.
func NewBarBeat(tick uint64) BarBeat {
	return BarBeat{
		Bar:     tick / TicksPerBar,
		Beat:    tick / TicksPerBeat % BeatsPerBar,
		SubBeat: tick % TicksPerBeat,
	}
}

// Tick is the inverse of NewBarBeat.
func (bb BarBeat) Tick() uint64 {
	return bb.Bar*TicksPerBar + bb.Beat*TicksPerBeat + bb.SubBeat
}

// String renders the position the way a transport display shows it: bar and beat
// counted from 1, sub-beat from 0.
func (bb BarBeat) String() string {
	return fmt.Sprintf("%02d.%02d.%02d", bb.Bar+1, bb.Beat+1, bb.SubBeat)
}
