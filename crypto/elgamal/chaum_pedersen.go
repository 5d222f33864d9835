package elgamal

import (
	"fmt"

	big "github.com/ncw/gmp"

	"github.com/openballot/guardian/crypto/random"
)

// Proof is a Chaum-Pedersen proof in general form. The same struct backs
// three statements in the election record:
//
//   - a selection (or contest sum) ciphertext decrypts to a claimed
//     exponent, where the secret is the encryption randomness,
//   - a trustee's partial decryption share is correct, where the secret
//     is the trustee's key shard,
//   - one branch of a disjunctive (0-or-1) proof.
//
// The general verification form is a pair of equations over the
// commitments (A, B), challenge C and response R:
//
//	check g^R % p == (A * G^C) % p
//	check h^R % p == (B * H^C) % p
//
// proving knowledge of x such that G = g^x and H = h^x, where g, p, q are
// always the System. What differs per statement is the choice of h, G, H
// and how the challenge C is bound to the commitments.
type Proof struct {
	A, B, C, R *big.Int
}

// valid checks the proof parts are in range for the system before any
// equation is evaluated, so a bogus record fails as malformed rather
// than wrapping around silently.
func (zkp *Proof) valid(s *System) error {
	if zkp == nil {
		return fmt.Errorf("%w: missing proof", ErrMalformed)
	}
	if !s.IsValidElement(zkp.A) || !s.IsValidElement(zkp.B) {
		return fmt.Errorf("%w: proof commitment is not a group element", ErrMalformed)
	}
	if !s.IsValidExponent(zkp.C) || !s.IsValidExponent(zkp.R) {
		return fmt.Errorf("%w: proof challenge or response out of range", ErrMalformed)
	}
	return nil
}

// the two-equation core, shared by every Chaum-Pedersen variant
func verifyEquations(zkp *Proof, s *System, h, G, H *big.Int) error {
	lhs, rhs := new(big.Int), new(big.Int)

	// check g^R % p == (A * G^C) % p
	lhs.Exp(s.G, zkp.R, s.P)
	rhs.Exp(G, zkp.C, s.P)
	rhs.Mul(rhs, zkp.A)
	rhs.Mod(rhs, s.P)
	if lhs.Cmp(rhs) != 0 {
		return fmt.Errorf("%w: g^R != A * G^C", ErrInvalidProof)
	}
	// check h^R % p == (B * H^C) % p
	lhs.Exp(h, zkp.R, s.P)
	rhs.Exp(H, zkp.C, s.P)
	rhs.Mul(rhs, zkp.B)
	rhs.Mod(rhs, s.P)
	if lhs.Cmp(rhs) != 0 {
		return fmt.Errorf("%w: h^R != B * H^C", ErrInvalidProof)
	}
	return nil
}

// betaOverM computes b / g^m mod p, the "message stripped" second
// component the decryption statements are expressed against.
func betaOverM(s *System, b, m *big.Int) *big.Int {
	r := s.PowG(m)
	r.ModInverse(r, s.P)
	r.Mul(r, b)
	r.Mod(r, s.P)
	return r
}

// VerifyDecryption checks a proof that the ciphertext (a, b) decrypts,
// under this public key, to the claimed exponent m. The secret behind the
// proof is the encryption randomness, so the statement is a = g^r and
// b/g^m = K^r:
//
//	C == H(context, a, b, A, B) mod q
//	g^R == A * a^C mod p
//	K^R == B * (b/g^m)^C mod p
func (pk *PublicKey) VerifyDecryption(ct *CipherText, m *big.Int, zkp *Proof, context *big.Int) error {
	if !ct.Valid(pk.System) {
		return fmt.Errorf("%w: ciphertext is not a pair of group elements", ErrMalformed)
	}
	if err := zkp.valid(pk.System); err != nil {
		return err
	}
	expected := chaumPedersenChallenge(pk.System, context, ct, zkp)
	if expected.Cmp(zkp.C) != 0 {
		return fmt.Errorf("%w: challenge does not match commitments", ErrInvalidProof)
	}
	// h = public key, G = alpha, H = beta / g^m
	return verifyEquations(zkp, pk.System, pk.Y, ct.A, betaOverM(pk.System, ct.B, m))
}

// ProveDecryption creates the proof VerifyDecryption checks, from the
// encryption randomness r used to build the ciphertext.
func ProveDecryption(pk *PublicKey, ct *CipherText, r *big.Int, context *big.Int) *Proof {
	w := random.Int(pk.Q)
	zkp := &Proof{
		A: new(big.Int).Exp(pk.G, w, pk.P),
		B: new(big.Int).Exp(pk.Y, w, pk.P),
	}
	zkp.C = chaumPedersenChallenge(pk.System, context, ct, zkp)
	zkp.R = new(big.Int).Mul(r, zkp.C)
	zkp.R.Add(zkp.R, w)
	zkp.R.Mod(zkp.R, pk.Q)
	return zkp
}

// VerifyShare checks a proof that M is a correct partial decryption of
// the ciphertext (a, b) by the trustee holding this key, i.e. M = a^s
// where K = g^s:
//
//	C == H(context, a, b, A, B) mod q
//	g^R == A * K^C mod p
//	a^R == B * M^C mod p
func (pk *PublicKey) VerifyShare(ct *CipherText, share *big.Int, zkp *Proof, context *big.Int) error {
	if !ct.Valid(pk.System) {
		return fmt.Errorf("%w: ciphertext is not a pair of group elements", ErrMalformed)
	}
	if !pk.IsValidElement(pk.Y) {
		return fmt.Errorf("%w: trustee key is not a group element", ErrMalformed)
	}
	if !pk.IsValidElement(share) {
		return fmt.Errorf("%w: share is not a group element", ErrMalformed)
	}
	if err := zkp.valid(pk.System); err != nil {
		return err
	}
	expected := chaumPedersenChallenge(pk.System, context, ct, zkp)
	if expected.Cmp(zkp.C) != 0 {
		return fmt.Errorf("%w: challenge does not match commitments", ErrInvalidProof)
	}
	// h = alpha, G = trustee key, H = share
	return verifyEquations(zkp, pk.System, ct.A, pk.Y, share)
}

// ProveShare creates the proof VerifyShare checks, from the trustee's
// secret key shard.
func ProveShare(sk *SecretKey, ct *CipherText, context *big.Int) *Proof {
	u := random.Int(sk.Q)
	zkp := &Proof{
		A: new(big.Int).Exp(sk.G, u, sk.P),
		B: new(big.Int).Exp(ct.A, u, sk.P),
	}
	zkp.C = chaumPedersenChallenge(sk.System, context, ct, zkp)
	zkp.R = new(big.Int).Mul(sk.X, zkp.C)
	zkp.R.Add(zkp.R, u)
	zkp.R.Mod(zkp.R, sk.Q)
	return zkp
}

// DisjProof proves a ciphertext encrypts either zero or one, without
// revealing which. It is two single-style sub-proofs sharing a challenge
// split: at generation time exactly one branch is genuine and the other
// is simulated, but verification is branch-symmetric and must not assume
// which branch is which.
type DisjProof struct {
	Zero *Proof
	One  *Proof
}

// VerifyDisjunction checks both branches' equations with their own
// challenge and response, plus the challenge split:
//
//	C0 + C1 == H(context, a, b, A0, B0, A1, B1) mod q
func (pk *PublicKey) VerifyDisjunction(ct *CipherText, zkp *DisjProof, context *big.Int) error {
	if zkp == nil || zkp.Zero == nil || zkp.One == nil {
		return fmt.Errorf("%w: missing disjunctive proof branch", ErrMalformed)
	}
	if !ct.Valid(pk.System) {
		return fmt.Errorf("%w: ciphertext is not a pair of group elements", ErrMalformed)
	}
	if err := zkp.Zero.valid(pk.System); err != nil {
		return fmt.Errorf("zero branch: %w", err)
	}
	if err := zkp.One.valid(pk.System); err != nil {
		return fmt.Errorf("one branch: %w", err)
	}
	// the sum of the branch challenges must match the hash of all the
	// commitments together
	csum := new(big.Int).Add(zkp.Zero.C, zkp.One.C)
	csum.Mod(csum, pk.Q)
	expected := disjunctiveChallenge(pk.System, context, ct, zkp.Zero, zkp.One)
	if expected.Cmp(csum) != 0 {
		return fmt.Errorf("%w: challenge split C0+C1 does not match computed challenge", ErrInvalidProof)
	}
	// zero branch: H = beta / g^0 = beta
	if err := verifyEquations(zkp.Zero, pk.System, pk.Y, ct.A, betaOverM(pk.System, ct.B, bigZero)); err != nil {
		return fmt.Errorf("zero branch: %w", err)
	}
	// one branch: H = beta / g^1
	if err := verifyEquations(zkp.One, pk.System, pk.Y, ct.A, betaOverM(pk.System, ct.B, bigOne)); err != nil {
		return fmt.Errorf("one branch: %w", err)
	}
	return nil
}

// ProveDisjunction creates a 0/1 proof for a ciphertext built with
// randomness r and truly encoding `bit`. The other branch is simulated by
// working backwards: choose a random challenge and response, then compute
// the commitments that make the equations hold. Only the challenge split
// binds the simulated branch to the hash.
func ProveDisjunction(pk *PublicKey, ct *CipherText, bit int, r *big.Int, context *big.Int) *DisjProof {
	if bit != 0 && bit != 1 {
		panic("disjunctive proof over a non-bit value")
	}
	fakeM := big.NewInt(int64(1 - bit))
	fake := simulateProof(pk, ct, fakeM)

	// real branch commitments
	w := random.Int(pk.Q)
	real := &Proof{
		A: new(big.Int).Exp(pk.G, w, pk.P),
		B: new(big.Int).Exp(pk.Y, w, pk.P),
	}
	var zero, one *Proof
	if bit == 0 {
		zero, one = real, fake
	} else {
		zero, one = fake, real
	}
	total := disjunctiveChallenge(pk.System, context, ct, zero, one)
	// the real branch takes whatever challenge is left over
	real.C = new(big.Int).Sub(total, fake.C)
	real.C.Mod(real.C, pk.Q)
	real.R = new(big.Int).Mul(r, real.C)
	real.R.Add(real.R, w)
	real.R.Mod(real.R, pk.Q)
	return &DisjProof{Zero: zero, One: one}
}

// simulateProof fakes a branch by choosing C and R first and deriving
// commitments A = g^R / a^C and B = K^R / (b/g^m)^C that satisfy the
// equations for the claimed exponent m.
func simulateProof(pk *PublicKey, ct *CipherText, m *big.Int) *Proof {
	H := betaOverM(pk.System, ct.B, m)
	C, R := random.Int(pk.Q), random.Int(pk.Q)
	A, B, tmp := new(big.Int), new(big.Int), new(big.Int)

	A.Exp(ct.A, C, pk.P)
	A.ModInverse(A, pk.P)
	A.Mul(A, tmp.Exp(pk.G, R, pk.P))
	A.Mod(A, pk.P)

	B.Exp(H, C, pk.P)
	B.ModInverse(B, pk.P)
	B.Mul(B, tmp.Exp(pk.Y, R, pk.P))
	B.Mod(B, pk.P)

	return &Proof{A: A, B: B, C: C, R: R}
}
