package random

import (
	"crypto/rand"
	"crypto/sha256"

	gbig "math/big"

	big "github.com/ncw/gmp"
)

// Int returns a random int < max
func Int(max *big.Int) *big.Int {
	r, err := rand.Int(rand.Reader, new(gbig.Int).SetBytes(max.Bytes()))
	if err != nil {
		// the rand.Reader is broken. Nothing we can do.
		panic(err)
	}
	return new(big.Int).SetBytes(r.Bytes())
}

// Oracle is used for turning bytes into a random, but deterministic integer.
// Every Fiat-Shamir challenge in the verifier comes through here, so the
// byte encoding of the input must match the proof-generation side exactly.
func Oracle(input []byte, max *big.Int) *big.Int {
	h := sha256.Sum256(input)
	var x big.Int
	x.SetBytes(h[:])
	x.Mod(&x, max)
	return &x
}

// Digest hashes the input with SHA-256 and returns the full digest as an
// integer, without reducing it. Used for the election base hashes which are
// compared for equality rather than used as exponents.
func Digest(input []byte) *big.Int {
	h := sha256.Sum256(input)
	return new(big.Int).SetBytes(h[:])
}
