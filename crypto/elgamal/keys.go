package elgamal

import (
	big "github.com/ncw/gmp"

	"github.com/openballot/guardian/crypto/random"
)

// KeyPair holds a secret key and its public half. The verifier itself
// never holds secrets; key pairs exist for the trustee simulation used
// to build test records.
type KeyPair struct {
	sk *SecretKey
}

// Secret gets the private part of this keypair
func (kp *KeyPair) Secret() *SecretKey {
	return kp.sk
}

// Public gets the public half of this keypair
func (kp *KeyPair) Public() *PublicKey {
	return kp.sk.PublicKey
}

// GenerateKeyPair creates a new random key pair
func GenerateKeyPair(sys *System) *KeyPair {
	return KeyPairForSecret(sys, random.Int(sys.Q))
}

// KeyPairForSecret builds the pair (x, g^x) for a known exponent.
func KeyPairForSecret(sys *System, x *big.Int) (kp *KeyPair) {
	kp = new(KeyPair)
	y := new(big.Int).Exp(sys.G, x, sys.P)
	kp.sk = &SecretKey{
		PublicKey: &PublicKey{System: sys, Y: y},
		X:         x,
	}
	return
}
