package elgamal

import (
	"testing"

	big "github.com/ncw/gmp"
)

func TestSystemValidate(t *testing.T) {
	if err := ToyGroup().Validate(); err != nil {
		t.Fatalf("toy group should validate: %v", err)
	}
	if err := Group227().Validate(); err != nil {
		t.Fatalf("8-bit group should validate: %v", err)
	}
	// 5 generates the full group mod 23, not the order-11 subgroup
	bad := &System{P: big.NewInt(23), Q: big.NewInt(11), G: big.NewInt(5)}
	if err := bad.Validate(); err == nil {
		t.Fatal("generator outside the subgroup should not validate")
	}
	notPrime := &System{P: big.NewInt(21), Q: big.NewInt(10), G: big.NewInt(4)}
	if err := notPrime.Validate(); err == nil {
		t.Fatal("composite modulus should not validate")
	}
}

func TestElementValidity(t *testing.T) {
	eg := ToyGroup()
	// quadratic residues mod 23
	for _, x := range []int64{1, 2, 3, 4, 6, 8, 9, 12, 13, 16, 18} {
		if !eg.IsValidElement(big.NewInt(x)) {
			t.Errorf("%d should be a group element", x)
		}
	}
	for _, x := range []int64{0, 5, 7, 10, 22, 23, 24, -1} {
		if eg.IsValidElement(big.NewInt(x)) {
			t.Errorf("%d should not be a group element", x)
		}
	}
	if eg.IsValidElement(nil) {
		t.Error("nil should not be a group element")
	}
	if !eg.IsValidExponent(big.NewInt(0)) || !eg.IsValidExponent(big.NewInt(10)) {
		t.Error("0 and q-1 are valid exponents")
	}
	if eg.IsValidExponent(big.NewInt(11)) || eg.IsValidExponent(big.NewInt(-1)) || eg.IsValidExponent(nil) {
		t.Error("q, negatives and nil are not valid exponents")
	}
}

func TestEncryption(t *testing.T) {
	eg := Group227()
	kp := GenerateKeyPair(eg)
	m := big.NewInt(42)
	ct := kp.Public().Encrypt(m, nil)
	pt := kp.Secret().Decrypt(ct)

	// decryption of an exponential encryption yields g^m
	if pt.Cmp(eg.PowG(m)) != 0 {
		t.Fatal("encrypt/decrypt failed")
	}
}

func TestHomomorphism(t *testing.T) {
	eg := Group227()
	kp := GenerateKeyPair(eg)

	testAdd := func(expected int64, values ...int64) {
		agg := &CipherText{}
		for _, v := range values {
			agg.Mul(eg, kp.Public().Encrypt(big.NewInt(v), nil))
		}
		dec := kp.Secret().Decrypt(agg)
		if dec.Cmp(eg.PowG(big.NewInt(expected))) != 0 {
			t.Errorf("Addition failed sum(%v) != %d", values, expected)
		}
	}
	testAdd(0, 0, 0)
	testAdd(1, 0, 0, 0, 0, 1, 0, 0, 0)
	testAdd(10, 0, 1, 2, 3, 4, 0)
	testAdd(10, 0, 1, 0, 2, 0, 3, 0, 4, 0)
	testAdd(7, 0, 4, 0, 2, 0, 1)
}
