package combinator

import "errors"

var (
	ErrTimeout        = errors.New("combinator: timed out")
	ErrNoComputations = errors.New("combinator: no computations")
	ErrAllFailed      = errors.New("combinator: all computations failed")
)
