package midi

import (
	"github.com/leandrodaf/midichrono/internal/engine"
	"github.com/leandrodaf/midichrono/sdk/contracts"
)

// NewChrono creates a stopped chrono at tick 0 with the specified options.
// It applies default options and validates tempo and frame rate.
//
// opts ...contracts.Option: A variadic list of option functions to customize the configuration.
//
// Returns:
//   - contracts.Chrono: The synchronization engine.
//   - error: An error, if the options are invalid.
func NewChrono(opts ...contracts.Option) (contracts.Chrono, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	chrono, err := engine.New(options)
	if err != nil {
		return nil, err
	}

	return chrono, nil
}
