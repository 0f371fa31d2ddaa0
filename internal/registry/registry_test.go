package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/leandrodaf/midichrono/internal/logger"
	"github.com/leandrodaf/midichrono/internal/transporttest"
	"github.com/leandrodaf/midichrono/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newRegistry(t *testing.T, report ErrorReporter) *Registry {
	return New(logger.NewZapLoggerFrom(zaptest.NewLogger(t)), report)
}

func TestRegisterIsIdempotent(t *testing.T) {
	tr := transporttest.New("a")
	dest := tr.Destination(t, 0)
	r := newRegistry(t, nil)

	r.RegisterForMTC(dest, true)
	r.RegisterForMTC(dest, true)
	assert.Len(t, r.MTC(), 1)
	assert.False(t, r.HasClock())

	r.RegisterForMTC(dest, false)
	r.RegisterForMTC(dest, false)
	assert.Empty(t, r.MTC())
	assert.False(t, r.HasMTC())
}

func TestCategoriesAreIndependent(t *testing.T) {
	tr := transporttest.New("a", "b")
	clockOnly := tr.Destination(t, 0)
	both := tr.Destination(t, 1)
	r := newRegistry(t, nil)

	r.RegisterForClock(clockOnly, true)
	r.RegisterForClock(both, true)
	r.RegisterForMTC(both, true)

	assert.Equal(t, 2, r.BroadcastClock([]byte{0xF8}))
	assert.Equal(t, 1, r.BroadcastMTC([]byte{0xF1, 0x00}))

	assert.Equal(t, [][]byte{{0xF8}}, tr.Sent(clockOnly.Handle))
	assert.Equal(t, [][]byte{{0xF8}, {0xF1, 0x00}}, tr.Sent(both.Handle))
}

func TestDeregisterRemovesFromBoth(t *testing.T) {
	tr := transporttest.New("a")
	dest := tr.Destination(t, 0)
	r := newRegistry(t, nil)

	r.RegisterForClock(dest, true)
	r.RegisterForMTC(dest, true)
	r.Deregister(dest)

	assert.Zero(t, r.BroadcastClock([]byte{0xF8}))
	assert.Zero(t, r.BroadcastMTC([]byte{0xF1, 0x00}))
	assert.Empty(t, tr.Sent(dest.Handle))
}

func TestFailingDestinationIsIsolated(t *testing.T) {
	tr := transporttest.New("bad", "good")
	bad := tr.Destination(t, 0)
	good := tr.Destination(t, 1)
	sendErr := errors.New("device unplugged")
	tr.Fail(bad.Handle, sendErr)

	var reported []contracts.Destination
	r := newRegistry(t, func(dest contracts.Destination, err error) {
		assert.ErrorIs(t, err, sendErr)
		reported = append(reported, dest)
	})
	r.RegisterForClock(bad, true)
	r.RegisterForClock(good, true)

	assert.Equal(t, 1, r.BroadcastClock([]byte{0xFA}))
	assert.Equal(t, [][]byte{{0xFA}}, tr.Sent(good.Handle))
	assert.Equal(t, []contracts.Destination{bad}, reported)

	// The failing destination stops receiving until re-registered.
	assert.Equal(t, []contracts.Destination{good}, r.Clock())
	tr.Fail(bad.Handle, nil)
	r.RegisterForClock(bad, true)
	assert.Equal(t, 2, r.BroadcastClock([]byte{0xF8}))
	assert.Equal(t, [][]byte{{0xF8}}, tr.Sent(bad.Handle))
}

func TestClosedHandleIsDropped(t *testing.T) {
	tr := transporttest.New("a")
	dest := tr.Destination(t, 0)
	r := newRegistry(t, nil)
	r.RegisterForMTC(dest, true)

	require.NoError(t, tr.Close(dest.Handle))
	assert.Zero(t, r.BroadcastMTC([]byte{0xF1, 0x10}))
	assert.False(t, r.HasMTC())
}

func TestConcurrentRegistrationAndBroadcast(t *testing.T) {
	tr := transporttest.New("a", "b", "c", "d")
	dests := make([]contracts.Destination, 4)
	for i := range dests {
		dests[i] = tr.Destination(t, i)
	}
	r := newRegistry(t, nil)

	var wg sync.WaitGroup
	for _, dest := range dests {
		wg.Add(1)
		go func(dest contracts.Destination) {
			defer wg.Done()
			for n := 0; n < 200; n++ {
				r.RegisterForClock(dest, n%2 == 0)
				r.RegisterForMTC(dest, n%3 == 0)
			}
		}(dest)
	}
	wg.Add(2)
	go func() {
		defer wg.Done()
		for n := 0; n < 500; n++ {
			r.BroadcastClock([]byte{0xF8})
		}
	}()
	go func() {
		defer wg.Done()
		for n := 0; n < 500; n++ {
			r.BroadcastMTC([]byte{0xF1, 0x00})
		}
	}()
	wg.Wait()

	// Final iteration n=199: clock off, MTC off (199 % 3 != 0).
	assert.Empty(t, r.Clock())
	assert.Empty(t, r.MTC())
}
