package elgamal

import (
	"fmt"

	big "github.com/ncw/gmp"

	"github.com/openballot/guardian/crypto"
	"github.com/openballot/guardian/crypto/random"
)

// System represents the parameters for an ElGamal Cryptosystem:
// a safe prime modulus P, the prime order Q = (P-1)/2 of the subgroup
// we work in, and a generator G of that subgroup.
type System struct {
	P, Q, G *big.Int
}

var (
	bigZero = big.NewInt(0)
	bigOne  = big.NewInt(1)
)

// Validate checks the system params are OK. That is that
// Q divides P-1, that P and Q are (probably) prime
// and that G satisfies the exponentation test
func (s *System) Validate() error {
	if !s.P.ProbablyPrime(20) {
		return fmt.Errorf("ElGamal System Invalid: p is not prime")
	}
	if !s.Q.ProbablyPrime(20) {
		return fmt.Errorf("ElGamal System Invalid: q is not prime")
	}
	// check that q divides p-1
	pMinusOne := new(big.Int).Sub(s.P, bigOne)
	if new(big.Int).Rem(pMinusOne, s.Q).Cmp(bigZero) != 0 {
		return fmt.Errorf("ElGamal System Invalid: q does not divide p-1")
	}
	// g must be a member of the subgroup, and not the identity
	if s.G.Cmp(bigOne) != 1 {
		return fmt.Errorf("ElGamal System Invalid: g < 2")
	}
	if !s.IsValidElement(s.G) {
		return fmt.Errorf("ElGamal System invalid: g^q != 1 mod p")
	}
	return nil
}

// IsValidElement reports whether x is a member of the order-Q subgroup,
// i.e. 1 <= x < p and x^q == 1 mod p. Every group element read from an
// election record must pass this before it is used in a proof equation.
func (s *System) IsValidElement(x *big.Int) bool {
	if x == nil || x.Cmp(bigOne) < 0 || x.Cmp(s.P) >= 0 {
		return false
	}
	return new(big.Int).Exp(x, s.Q, s.P).Cmp(bigOne) == 0
}

// IsValidExponent reports whether x is in the exponent range [0, q).
func (s *System) IsValidExponent(x *big.Int) bool {
	return x != nil && x.Sign() >= 0 && x.Cmp(s.Q) < 0
}

// Pow is modular exponentiation in the group: base^exp mod p.
func (s *System) Pow(base, exp *big.Int) *big.Int {
	return new(big.Int).Exp(base, exp, s.P)
}

// Mul is modular multiplication in the group: a*b mod p.
func (s *System) Mul(a, b *big.Int) *big.Int {
	r := new(big.Int).Mul(a, b)
	return r.Mod(r, s.P)
}

// Inverse is the modular inverse of a in the group.
func (s *System) Inverse(a *big.Int) *big.Int {
	return new(big.Int).ModInverse(a, s.P)
}

// PowG is g^exp mod p, the exponential encoding of a cleartext value.
func (s *System) PowG(exp *big.Int) *big.Int {
	return s.Pow(s.G, exp)
}

// PublicKey is an ElGamal public key for encryption
type PublicKey struct {
	*System
	Y *big.Int
}

func (pk *PublicKey) String() string {
	return fmt.Sprintf("pk:Y=%s", crypto.BigIntToJSON(pk.Y))
}

// Validate that the Y value is a valid group element
func (pk *PublicKey) Validate() error {
	if pk.System == nil {
		return fmt.Errorf("PublicKey invalid: No ElGamal System Parameters")
	}
	if !pk.IsValidElement(pk.Y) {
		return fmt.Errorf("PublicKey invalid: y is not a group element")
	}
	return nil
}

// SecretKey is an ElGamal secret key for decryption
type SecretKey struct {
	*PublicKey
	X *big.Int
}

// CipherText is an ElGamal message pair (A, B) = (g^r, m*y^r)
type CipherText struct {
	A, B *big.Int
}

// Mul does a homomorphic multiplication of two cipher texts,
// we assume they were created with the same system.
// This function mutates the reciever and is designed to be
// part of an aggregation, so the canonical usage is:
//
//	var agg = &CipherText{}
//	agg.Mul(sys, other1) // first round simply sets to "other1"
//	agg.Mul(sys, other2) // now set to other1 * other2
//
// With exponential ElGamal (encoding g^m instead of m) the multiplication
// is a homomorphic _addition_ of the encoded values, which is how the
// verifier recomputes contest tallies from the individual selections.
func (ct *CipherText) Mul(sys *System, other *CipherText) *CipherText {
	if ct == nil {
		ct = &CipherText{}
	}
	if ct.A == nil {
		ct.A = new(big.Int).Set(other.A)
		ct.B = new(big.Int).Set(other.B)
	} else {
		ct.A.Mul(ct.A, other.A)
		ct.A.Mod(ct.A, sys.P)
		ct.B.Mul(ct.B, other.B)
		ct.B.Mod(ct.B, sys.P)
	}
	return ct
}

func (ct *CipherText) Equals(other *CipherText) bool {
	cmpA, cmpB := ct.A.Cmp(other.A), ct.B.Cmp(other.B)
	return cmpA == 0 && cmpB == 0
}

// Valid checks both components are members of the subgroup.
func (ct *CipherText) Valid(sys *System) bool {
	return sys.IsValidElement(ct.A) && sys.IsValidElement(ct.B)
}

func (ct *CipherText) String() string {
	return fmt.Sprintf("CipherText[A=%s, B=%s]", ct.A, ct.B)
}

// Encrypt the value g^m with the public key and randomness r.
// The exponent m is encoded exponentially so that the homomorphic
// combination of two ciphertexts adds the encoded values.
func (pk *PublicKey) Encrypt(m *big.Int, r *big.Int) (ct *CipherText) {
	ct = new(CipherText)
	if r == nil {
		r = random.Int(pk.Q)
	} else {
		// ensure in bounds
		r = new(big.Int).Mod(r, pk.Q)
	}
	// alpha = g^r mod p
	ct.A = new(big.Int).Exp(pk.G, r, pk.P)
	// beta = (g^m * (y^r mod p)) mod p
	ct.B = new(big.Int).Exp(pk.Y, r, pk.P)
	ct.B.Mul(ct.B, pk.PowG(m))
	ct.B.Mod(ct.B, pk.P)
	return
}

// Decrypt a ciphertext with this single key, returning the group
// element g^m. No threshold work here.
func (sk *SecretKey) Decrypt(ct *CipherText) (pt *big.Int) {
	pt = new(big.Int)
	// s = alpha^x
	pt.Exp(ct.A, sk.X, sk.P)
	// s^-1 * beta
	pt.ModInverse(pt, sk.P)
	pt.Mul(pt, ct.B)
	pt.Mod(pt, sk.P)
	return
}
