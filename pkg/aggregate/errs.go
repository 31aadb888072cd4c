package aggregate

import "errors"

var (
	// ErrAggregationIncomplete indicates that at least one iteration failed;
	// no aggregate is produced from the remaining ones.
	ErrAggregationIncomplete = errors.New("aggregate: aggregation incomplete")

	// ErrNoIterations indicates an iteration count below one.
	ErrNoIterations = errors.New("aggregate: iteration count must be >= 1")
)
