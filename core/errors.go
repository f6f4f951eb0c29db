// Package core implements the Proof-of-Interaction (PoI) consensus engine.
package core

import "errors"

var (
	// ErrDegenerateNetwork is returned when the node set is too small to
	// build a non-empty committee.
	ErrDegenerateNetwork = errors.New("network too small to build a committee")

	// ErrOracleUnavailable is returned by the generator once the retry
	// budget for a signature request is exhausted.
	ErrOracleUnavailable = errors.New("signature oracle unavailable")

	// ErrInvalidProofStructure is returned when a proof does not have the
	// 2L+1 signatures its seed commits to.
	ErrInvalidProofStructure = errors.New("proof length does not match expected tour length")

	// ErrInvalidSignature is returned when any signature in a proof fails
	// verification.
	ErrInvalidSignature = errors.New("invalid signature in proof")

	// ErrDecoding is returned when wire input cannot be decoded.
	ErrDecoding = errors.New("malformed wire encoding")
)
