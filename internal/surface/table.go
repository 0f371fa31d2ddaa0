// Package surface keeps the control surface's destination table: one row per output
// device, each with its own clock and MTC subscription flags.
package surface

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/leandrodaf/midichrono/sdk/contracts"
	"go.uber.org/multierr"
)

var ErrUnknownDevice = errors.New("unknown device index")

// Registrar is the part of the chrono the table drives.
type Registrar interface {
	RegisterForClock(dest contracts.Destination, enabled bool)
	RegisterForMTC(dest contracts.Destination, enabled bool)
	Deregister(dest contracts.Destination)
}

// Row describes one device and its subscriptions.
type Row struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Clock bool   `json:"clock"`
	MTC   bool   `json:"mtc"`
	Open  bool   `json:"open"`
}

type row struct {
	info   contracts.DeviceInfo
	clock  bool
	mtc    bool
	handle *contracts.Handle
}

// Table owns the handles it opens. A row's handle is open iff the row wants clock or MTC.
type Table struct {
	logger    contracts.Logger
	transport contracts.Transport
	registrar Registrar

	mu   sync.Mutex
	rows map[int]*row
}

// New lists the transport's devices and builds an inactive row for each.
func New(logger contracts.Logger, transport contracts.Transport, registrar Registrar) (*Table, error) {
	devices, err := transport.ListDevices()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	t := &Table{
		logger:    logger,
		transport: transport,
		registrar: registrar,
		rows:      make(map[int]*row, len(devices)),
	}
	for _, d := range devices {
		t.rows[d.Index] = &row{info: d}
	}
	return t, nil
}

// List returns every row ordered by device index.
func (t *Table) List() []Row {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Row, 0, len(t.rows))
	for _, r := range t.rows {
		out = append(out, Row{
			Index: r.info.Index,
			Name:  r.info.Name,
			Clock: r.clock,
			MTC:   r.mtc,
			Open:  r.handle != nil,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// SetClock turns clock delivery to the device at index on or off.
func (t *Table) SetClock(index int, on bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.rows[index]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownDevice, index)
	}
	return t.apply(r, on, r.mtc)
}

// SetMTC turns MTC delivery to the device at index on or off.
func (t *Table) SetMTC(index int, on bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.rows[index]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownDevice, index)
	}
	return t.apply(r, r.clock, on)
}

// Set applies both flags at once.
func (t *Table) Set(index int, clock, mtc bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.rows[index]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownDevice, index)
	}
	return t.apply(r, clock, mtc)
}

func (t *Table) apply(r *row, clock, mtc bool) error {
	if (clock || mtc) && r.handle == nil {
		h, err := t.transport.Open(r.info.Index)
		if err != nil {
			return fmt.Errorf("opening %s: %w", r.info.Name, err)
		}
		r.handle = &h
	}
	if r.handle == nil {
		r.clock, r.mtc = false, false
		return nil
	}

	dest := contracts.Destination{Transport: t.transport, Handle: *r.handle}
	r.clock, r.mtc = clock, mtc
	t.registrar.RegisterForClock(dest, clock)
	t.registrar.RegisterForMTC(dest, mtc)

	t.logger.Debug("destination updated",
		t.logger.Field().Int("index", r.info.Index),
		t.logger.Field().Bool("clock", clock),
		t.logger.Field().Bool("mtc", mtc))

	if clock || mtc {
		return nil
	}
	return t.release(r)
}

// release deregisters before closing so no broadcast can reach a closed handle.
func (t *Table) release(r *row) error {
	dest := contracts.Destination{Transport: t.transport, Handle: *r.handle}
	t.registrar.Deregister(dest)
	r.handle = nil
	r.clock, r.mtc = false, false
	if err := t.transport.Close(dest.Handle); err != nil {
		return fmt.Errorf("closing %s: %w", r.info.Name, err)
	}
	return nil
}

// Close releases every open row.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var err error
	for _, r := range t.rows {
		if r.handle != nil {
			err = multierr.Append(err, t.release(r))
		}
	}
	return err
}

// OnSendError releases the row whose handle failed. The user re-enables it to retry.
func (t *Table) OnSendError(dest contracts.Destination, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, r := range t.rows {
		if r.handle == nil || *r.handle != dest.Handle {
			continue
		}
		t.logger.Warn("destination disabled after send failure",
			t.logger.Field().Int("index", r.info.Index),
			t.logger.Field().String("name", r.info.Name),
			t.logger.Field().Error("error", err))
		if cerr := t.release(r); cerr != nil {
			t.logger.Debug("closing failed destination", t.logger.Field().Error("error", cerr))
		}
		return
	}
}

// Len reports the number of rows.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// Group presents several tables as one, numbering rows consecutively in table order.
type Group []*Table

// List returns the rows of every table, renumbered.
func (g Group) List() []Row {
	var out []Row
	offset := 0
	for _, t := range g {
		rows := t.List()
		for _, r := range rows {
			r.Index += offset
			out = append(out, r)
		}
		offset += len(rows)
	}
	return out
}

// Set applies both flags to the row at a group-wide index.
func (g Group) Set(index int, clock, mtc bool) error {
	if index >= 0 {
		offset := 0
		for _, t := range g {
			n := t.Len()
			if index < offset+n {
				return t.Set(index-offset, clock, mtc)
			}
			offset += n
		}
	}
	return fmt.Errorf("%w: %d", ErrUnknownDevice, index)
}
