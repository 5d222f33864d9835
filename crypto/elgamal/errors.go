package elgamal

import "errors"

// Sentinel errors so callers can classify a failed check without parsing
// messages. Every verification error in this package wraps one of these.
var (
	// ErrMalformed means a value read from the record is not a valid
	// group element or exponent for the system parameters.
	ErrMalformed = errors.New("malformed value")

	// ErrInvalidProof means a proof equation or challenge check failed.
	ErrInvalidProof = errors.New("invalid proof")
)
