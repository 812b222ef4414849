package sim

import "errors"

var (
	// ErrConfiguration indicates invalid root-grid geometry at construction.
	ErrConfiguration = errors.New("sim: root box count must be at least 1 in each direction")

	// ErrNotWired indicates stepping was attempted before an integrator and
	// a gravity evaluator were attached.
	ErrNotWired = errors.New("sim: simulation requires an integrator and a gravity evaluator")
)
