package guardian

import (
	"bytes"
	"fmt"

	big "github.com/ncw/gmp"

	"github.com/openballot/guardian/crypto/random"
)

// The base hashes use a canonical, order-fixed byte encoding of their
// inputs: a fixed prefix, then each field as lowercase hex of its
// big-endian bytes (decimal for the small counts), '|'-separated.
// Free-form strings are length-prefixed so a '|' inside one cannot
// shift bytes between fields. The proof-generation side must byte-match
// this encoding exactly; any divergence makes every proof in the record
// appear invalid.

// BaseHash computes the election base hash `Q` over the parameters and
// the contest configuration.
func BaseHash(p *Parameters) *big.Int {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "baseHash|%x|%x|%s|%s|%d:%s|%d:%s",
		p.Prime.Bytes(),
		p.Generator.Bytes(),
		p.NumTrustees.String(),
		p.Threshold.String(),
		len(p.Date), p.Date,
		len(p.Location), p.Location,
	)
	for _, c := range p.Contests {
		fmt.Fprintf(&buf, "|%d:%x", c.Selections, c.MaxSelections.Bytes())
	}
	return random.Digest(buf.Bytes())
}

// ExtendedBaseHash computes the extended base hash `Q̅` over the base
// hash and every trustee coefficient public key, in trustee-then-
// coefficient order.
func ExtendedBaseHash(base *big.Int, trustees []*TrusteePublicKey) *big.Int {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "extHash|%x", base.Bytes())
	for _, t := range trustees {
		for _, c := range t.Coefficients {
			fmt.Fprintf(&buf, "|%x", c.PublicKey.Bytes())
		}
	}
	return random.Digest(buf.Bytes())
}
