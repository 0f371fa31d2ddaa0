// Package registry tracks which opened destinations subscribe to clock-family and
// MTC-family sync messages and fans encoded messages out to them.
//
// Locking: each category has its own mutex. Registration and broadcast of one category
// are mutually exclusive, so a broadcast always sees a complete subscriber set; the two
// categories never block each other. Sends happen under the category lock, which also
// keeps messages of one category in order for every destination.
package registry

import (
	"sync"

	"github.com/leandrodaf/midichrono/sdk/contracts"
)

// ErrorReporter is told about every failed send. It is called with the category lock
// held and must not call back into the Registry.
type ErrorReporter func(dest contracts.Destination, err error)

// Registry holds non-owning references to destinations, keyed by subscription category.
// Destination transports must be comparable (pointer types in practice).
type Registry struct {
	logger contracts.Logger
	report ErrorReporter

	clock subscribers
	mtc   subscribers
}

type subscribers struct {
	name string
	mu   sync.Mutex
	set  map[contracts.Destination]struct{}
}

// New creates an empty registry. report may be nil.
func New(logger contracts.Logger, report ErrorReporter) *Registry {
	return &Registry{
		logger: logger,
		report: report,
		clock:  subscribers{name: "clock", set: make(map[contracts.Destination]struct{})},
		mtc:    subscribers{name: "mtc", set: make(map[contracts.Destination]struct{})},
	}
}

// RegisterForClock adds dest to, or removes it from, the clock subscribers. Idempotent.
func (r *Registry) RegisterForClock(dest contracts.Destination, enabled bool) {
	r.register(&r.clock, dest, enabled)
}

// RegisterForMTC adds dest to, or removes it from, the MTC subscribers. Idempotent.
func (r *Registry) RegisterForMTC(dest contracts.Destination, enabled bool) {
	r.register(&r.mtc, dest, enabled)
}

// Deregister removes dest from both categories. Call it before closing the handle.
func (r *Registry) Deregister(dest contracts.Destination) {
	r.register(&r.clock, dest, false)
	r.register(&r.mtc, dest, false)
}

func (r *Registry) register(s *subscribers, dest contracts.Destination, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, present := s.set[dest]
	switch {
	case enabled && !present:
		s.set[dest] = struct{}{}
	case !enabled && present:
		delete(s.set, dest)
	default:
		return
	}
	r.logger.Debug("Subscription changed",
		r.logger.Field().String("category", s.name),
		r.logger.Field().String("destination", dest.String()),
		r.logger.Field().Bool("enabled", enabled))
}

// HasClock reports whether at least one destination subscribes to clock messages.
func (r *Registry) HasClock() bool {
	return r.clock.len() > 0
}

// HasMTC reports whether at least one destination subscribes to MTC messages.
func (r *Registry) HasMTC() bool {
	return r.mtc.len() > 0
}

// Clock returns a snapshot of the clock subscribers.
func (r *Registry) Clock() []contracts.Destination {
	return r.clock.list()
}

// MTC returns a snapshot of the MTC subscribers.
func (r *Registry) MTC() []contracts.Destination {
	return r.mtc.list()
}

// BroadcastClock sends data to every clock subscriber and returns how many accepted it.
func (r *Registry) BroadcastClock(data []byte) int {
	return r.broadcast(&r.clock, data)
}

// BroadcastMTC sends data to every MTC subscriber and returns how many accepted it.
func (r *Registry) BroadcastMTC(data []byte) int {
	return r.broadcast(&r.mtc, data)
}

// broadcast attempts every send independently. A destination whose send fails is
// dropped from the category: it stops receiving until it is registered again.
func (r *Registry) broadcast(s *subscribers, data []byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	delivered := 0
	for dest := range s.set {
		if err := dest.Transport.Send(dest.Handle, data); err != nil {
			delete(s.set, dest)
			r.logger.Warn("Destination dropped after failed send",
				r.logger.Field().String("category", s.name),
				r.logger.Field().String("destination", dest.String()),
				r.logger.Field().Error("error", err))
			if r.report != nil {
				r.report(dest, err)
			}
			continue
		}
		delivered++
	}
	return delivered
}

func (s *subscribers) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.set)
}

func (s *subscribers) list() []contracts.Destination {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]contracts.Destination, 0, len(s.set))
	for dest := range s.set {
		out = append(out, dest)
	}
	return out
}
