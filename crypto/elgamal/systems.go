package elgamal

import (
	big "github.com/ncw/gmp"
)

// Named systems for tests. Real election records carry their own (large)
// parameters; these groups are small enough that every value is
// enumerable by hand.

// ToyGroup is the 5-bit group p=23, q=11, g=4.
func ToyGroup() *System {
	return &System{P: big.NewInt(23), Q: big.NewInt(11), G: big.NewInt(4)}
}

// Group227 is the 8-bit group p=227, q=113, g=69.
func Group227() *System {
	return &System{P: big.NewInt(227), Q: big.NewInt(113), G: big.NewInt(69)}
}

// the RFC 3526 group 14 modulus, a 2048 bit safe prime
const modp2048 = "FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD129024E088A67CC74" +
	"020BBEA63B139B22514A08798E3404DDEF9519B3CD3A431B302B0A6DF25F1437" +
	"4FE1356D6D51C245E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED" +
	"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3DC2007CB8A163BF05" +
	"98DA48361C55D39A69163FA8FD24CF5F83655D23DCA3AD961C62F356208552BB" +
	"9ED529077096966D670C354E4ABC9804F1746C08CA18217C32905E462E36CE3B" +
	"E39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9DE2BCBF695581718" +
	"3995497CEA956AE515D2261898FA051015728E5A8AACAA68FFFFFFFFFFFFFFFF"

// MODP2048 is the RFC 3526 2048-bit group. The modulus is a safe prime
// congruent to 7 mod 8, so 2 generates the order-q subgroup of
// quadratic residues.
func MODP2048() *System {
	p, ok := new(big.Int).SetString(modp2048, 16)
	if !ok {
		panic("bad modp2048 constant")
	}
	q := new(big.Int).Sub(p, big.NewInt(1))
	q.Div(q, big.NewInt(2))
	return &System{P: p, Q: q, G: big.NewInt(2)}
}
