// Package combinator builds composite computations out of smaller ones.
//
// The combinators only deal in visual.Computation values, so a handle's
// Computation can be a child of a race or a retry and is rendered as its own
// state machine while the composite runs. Children stopped by a composite
// (race losers, siblings of a failed child) observe a cancelled context and
// settle as interrupted.
package combinator
