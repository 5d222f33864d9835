package elgamal

import (
	"fmt"

	big "github.com/ncw/gmp"

	"github.com/openballot/guardian/crypto/random"
)

// SchnorrProof is a non-interactive proof of possession of the discrete
// log secret behind a public key, based on https://tools.ietf.org/html/rfc8235
// with the challenge derived from the election hash context.
type SchnorrProof struct {
	Commitment *big.Int // h = g^u for the prover's random u
	Challenge  *big.Int // c = H(context, K, h) mod q
	Response   *big.Int // r = u + x*c mod q
}

// ProveKnowledge generates a proof of knowledge of the secret key.
// Only used by the trustee simulation in tests; the verifier consumes
// proofs produced elsewhere.
func ProveKnowledge(sk *SecretKey, context *big.Int) *SchnorrProof {
	u := random.Int(sk.Q)
	h := new(big.Int).Exp(sk.G, u, sk.P)
	c := schnorrChallenge(sk.System, context, sk.Y, h)
	// r = u + x*c mod q
	r := new(big.Int).Mul(sk.X, c)
	r.Add(r, u)
	r.Mod(r, sk.Q)
	return &SchnorrProof{Commitment: h, Challenge: c, Response: r}
}

// VerifyKnowledge checks a proof of possession of the secret exponent
// behind this public key. The checks are:
//
//	c == H(context, K, h) mod q
//	g^r == h * K^c mod p
func (pk *PublicKey) VerifyKnowledge(proof *SchnorrProof, context *big.Int) error {
	if !pk.IsValidElement(pk.Y) {
		return fmt.Errorf("%w: public key is not a group element", ErrMalformed)
	}
	if !pk.IsValidElement(proof.Commitment) {
		return fmt.Errorf("%w: commitment is not a group element", ErrMalformed)
	}
	if !pk.IsValidExponent(proof.Challenge) || !pk.IsValidExponent(proof.Response) {
		return fmt.Errorf("%w: challenge or response out of range", ErrMalformed)
	}
	expected := schnorrChallenge(pk.System, context, pk.Y, proof.Commitment)
	if expected.Cmp(proof.Challenge) != 0 {
		return fmt.Errorf("%w: challenge does not match commitment", ErrInvalidProof)
	}
	// g^r == h * K^c mod p
	lhs := new(big.Int).Exp(pk.G, proof.Response, pk.P)
	rhs := new(big.Int).Exp(pk.Y, proof.Challenge, pk.P)
	rhs.Mul(rhs, proof.Commitment)
	rhs.Mod(rhs, pk.P)
	if lhs.Cmp(rhs) != 0 {
		return fmt.Errorf("%w: g^response != commitment * key^challenge", ErrInvalidProof)
	}
	return nil
}
