package elgamal

import (
	big "github.com/ncw/gmp"
)

// The threshold decryption scheme.
//
// Each trustee i holds a secret polynomial P_i of degree k-1 and publishes
// commitments K_il = g^(a_il) to its coefficients. The first commitment is
// the trustee's decryption key; the rest exist so that any k trustees can
// reconstruct the share of an absent trustee from the fragments
// M_ij = a^(P_i(j)) they each hold, recombined with Lagrange coefficients.
// Trustee indices are 1-based everywhere; index 0 would evaluate the
// polynomial at its secret.

// Lagrange computes the interpolation-at-zero coefficient for `index`
// within the set `indices`, over the field of order `modulus`:
//
//	w = prod_{m != index} m / (m - index)  (mod modulus)
func Lagrange(indices []int, index int, modulus *big.Int) (r *big.Int) {
	r = new(big.Int).Set(bigOne)
	var inv, idx big.Int
	for _, i := range indices {
		if i != index {
			// r = (r * i * inverse(i-index, modulus)) % modulus
			idx.SetInt64(int64(i))
			inv.SetInt64(int64(i - index))
			inv.ModInverse(&inv, modulus)
			r.Mul(r, &idx)
			r.Mul(r, &inv)
			r.Mod(r, modulus)
		}
	}
	return
}

// ShareKey evaluates a trustee's published coefficient commitments at
// point j, producing g^(P_i(j)): the public key that trustee j's recovery
// fragments for absent trustee i are proven against.
//
//	g^(P_i(j)) = prod_l (K_il)^(j^l) mod p
func ShareKey(s *System, commitments []*big.Int, j int) *PublicKey {
	bigJ := big.NewInt(int64(j))
	calc, jL := big.NewInt(1), big.NewInt(1)
	tmp := new(big.Int)
	for _, K := range commitments {
		tmp.Exp(K, jL, s.P)
		calc.Mul(calc, tmp)
		calc.Mod(calc, s.P)
		// raise j^l another power by multiplying by j
		jL.Mul(jL, bigJ)
		jL.Mod(jL, s.Q)
	}
	return &PublicKey{System: s, Y: calc}
}

// RecombineFragments rebuilds an absent trustee's decryption share from
// the fragments contributed by the present trustees:
//
//	M_i = prod_j (M_ij)^(w_ij) mod p
func RecombineFragments(s *System, fragments, coefficients []*big.Int) *big.Int {
	m := big.NewInt(1)
	raised := new(big.Int)
	for i := range fragments {
		raised.Exp(fragments[i], coefficients[i], s.P)
		m.Mul(m, raised)
		m.Mod(m, s.P)
	}
	return m
}

// CombineShares multiplies the per-trustee partial decryptions together.
// For a ciphertext (a, b) the combination satisfies b = g^t * prod(M_i),
// so the decrypted message is recovered by DecryptWithShares.
func CombineShares(s *System, shares []*big.Int) *big.Int {
	m := big.NewInt(1)
	for _, share := range shares {
		m.Mul(m, share)
		m.Mod(m, s.P)
	}
	return m
}

// DecryptWithShares computes b * (prod shares)^-1 mod p, the group element
// g^t the ciphertext encrypts.
func DecryptWithShares(s *System, ct *CipherText, shares []*big.Int) *big.Int {
	m := s.Inverse(CombineShares(s, shares))
	m.Mul(m, ct.B)
	m.Mod(m, s.P)
	return m
}

// EvalPolynomial evaluates the secret polynomial at point j mod q, by
// working backwards from the highest coefficient. This is the value a
// trustee hands to trustee j during the key ceremony, and what fragment
// generation exponentiates the ciphertext with.
func EvalPolynomial(coeffs []*big.Int, j int, q *big.Int) *big.Int {
	bigJ := big.NewInt(int64(j))
	v := big.NewInt(0)
	for n := len(coeffs) - 1; n >= 0; n-- {
		// each power is multiplied (to exponentiate) and the next
		// (lower) coefficient is added
		v.Mul(v, bigJ)
		v.Add(v, coeffs[n])
		v.Mod(v, q)
	}
	return v
}

// CreateCommitments publishes g^c for each secret polynomial coefficient.
func CreateCommitments(s *System, coeffs []*big.Int) []*big.Int {
	commitments := make([]*big.Int, len(coeffs))
	for i, c := range coeffs {
		commitments[i] = new(big.Int).Exp(s.G, c, s.P)
	}
	return commitments
}
