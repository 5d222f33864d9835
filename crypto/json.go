package crypto

import (
	"fmt"

	big "github.com/ncw/gmp"
)

// The election record encodes every large integer as a decimal string.
// Go natively JSON encodes big.Int values as json numbers which breaks
// interop once the values exceed float64 precision, so the conversion is
// explicit here. Decoding is strict: digits only, no sign, no whitespace.

func BigIntToJSON(x *big.Int) string {
	return x.String()
}

func BigIntFromJSON(s string) (*big.Int, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("Expecting decimal integer, got empty string")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return nil, fmt.Errorf("Expecting decimal integer, got: %q", s)
		}
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("Expecting decimal integer, got: %q", s)
	}
	return n, nil
}
