package guardian

import (
	"errors"
	"fmt"

	"github.com/openballot/guardian/crypto/elgamal"
)

// ErrorKind classifies a failed check. Every entry in a report carries
// exactly one kind; no kind is ever used for ordinary control flow.
type ErrorKind string

const (
	// KindFormatError: the document does not decode to the expected
	// shape. Handled before verification begins, so it only appears in
	// a report when the record could not be loaded at all.
	KindFormatError ErrorKind = "format_error"
	// KindParameterError: n, k, p or g are unusable.
	KindParameterError ErrorKind = "parameter_error"
	// KindMalformedValue: a value fails group membership or exponent
	// range validity.
	KindMalformedValue ErrorKind = "malformed_value"
	// KindHashMismatch: a recomputed hash disagrees with the record.
	KindHashMismatch ErrorKind = "hash_mismatch"
	// KindInvalidProof: a Schnorr or Chaum-Pedersen check failed.
	KindInvalidProof ErrorKind = "invalid_proof"
	// KindKeyMismatch: the joint public key is not the product of the
	// trustee keys.
	KindKeyMismatch ErrorKind = "key_mismatch"
	// KindThresholdError: wrong fragment count, bad or duplicate
	// trustee index, or Lagrange coefficient disagreement.
	KindThresholdError ErrorKind = "threshold_error"
	// KindDecryptionMismatch: combined shares do not reproduce the
	// claimed decrypted value, or g^cleartext disagrees with it.
	KindDecryptionMismatch ErrorKind = "decryption_mismatch"
)

// Failure is one failed check: which entity, what kind of violation,
// and the underlying detail.
type Failure struct {
	Path   string    `json:"path"`
	Kind   ErrorKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
}

// Report is the outcome of verifying a record: the overall result plus
// an ordered list of every failed check. Passing checks are not
// reported individually.
type Report struct {
	Valid    bool      `json:"valid"`
	Failures []Failure `json:"failures"`
}

// classify maps a crypto-layer error onto a report kind.
func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, elgamal.ErrMalformed):
		return KindMalformedValue
	case errors.Is(err, elgamal.ErrInvalidProof):
		return KindInvalidProof
	}
	return KindInvalidProof
}

// failures is an ordered accumulator used throughout the verifier.
type failures []Failure

func (f *failures) add(path string, kind ErrorKind, format string, args ...interface{}) {
	*f = append(*f, Failure{Path: path, Kind: kind, Detail: fmt.Sprintf(format, args...)})
}

// addErr records a crypto-layer error under its classified kind.
func (f *failures) addErr(path string, err error) {
	*f = append(*f, Failure{Path: path, Kind: classify(err), Detail: err.Error()})
}
