// Package fmerr defines the error taxonomy of spec.md §7. Every protocol
// package wraps one of these sentinels with fmt.Errorf("...: %w", err) so
// callers can classify a failure with errors.Is, following the teacher's
// plain errors/fmt.Errorf style (no custom error framework anywhere in
// protocols/lss).
package fmerr

import "errors"

var (
	// ErrParameterInvalid: n, e, d, sigma, Q violate documented constraints.
	ErrParameterInvalid = errors.New("fmerr: parameter invalid")

	// ErrSerializationLengthMismatch: serialized byte count disagrees with
	// the computed serialized size.
	ErrSerializationLengthMismatch = errors.New("fmerr: serialization length mismatch")

	// ErrRandomnessExhausted: a correlated-randomness or Beaver-triple store
	// was consumed past its provisioned count.
	ErrRandomnessExhausted = errors.New("fmerr: randomness exhausted")

	// ErrTransportFailure: send/recv returned short or errored.
	ErrTransportFailure = errors.New("fmerr: transport failure")

	// ErrCapabilityMismatch: the DPF eval_type (or other key parameter)
	// selected at evaluation disagrees with the one used at key-gen.
	ErrCapabilityMismatch = errors.New("fmerr: capability mismatch")
)
