package elgamal

import (
	"bytes"
	"fmt"

	big "github.com/ncw/gmp"

	"github.com/openballot/guardian/crypto/random"
)

// Challenge derives a Fiat-Shamir challenge in [0, q) from a domain
// separation prefix, the hash context (the extended base hash for ballot
// and decryption proofs, the base hash for key possession proofs) and the
// proof's public commitments, in order.
//
// The byte encoding here is load-bearing: the proof generation side must
// produce the identical concatenation or every proof will appear invalid.
func Challenge(q *big.Int, prefix string, context *big.Int, commitments ...*big.Int) *big.Int {
	var commit bytes.Buffer
	fmt.Fprintf(&commit, "%s|%x", prefix, context.Bytes())
	for _, c := range commitments {
		fmt.Fprintf(&commit, "|%x", c.Bytes())
	}
	return random.Oracle(commit.Bytes(), q)
}

// one prefix per proof family, so a challenge can never be replayed
// from one kind of proof into another
const (
	prefixSchnorr    = "pok"
	prefixChaumPed   = "cp"
	prefixChaumPedOr = "cp:or"
)

func schnorrChallenge(s *System, context, publicKey, commitment *big.Int) *big.Int {
	return Challenge(s.Q, prefixSchnorr, context, publicKey, commitment)
}

func chaumPedersenChallenge(s *System, context *big.Int, ct *CipherText, zkp *Proof) *big.Int {
	return Challenge(s.Q, prefixChaumPed, context, ct.A, ct.B, zkp.A, zkp.B)
}

func disjunctiveChallenge(s *System, context *big.Int, ct *CipherText, zero, one *Proof) *big.Int {
	return Challenge(s.Q, prefixChaumPedOr, context, ct.A, ct.B, zero.A, zero.B, one.A, one.B)
}
