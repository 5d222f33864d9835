package elgamal

import (
	"errors"
	"testing"

	big "github.com/ncw/gmp"

	"github.com/openballot/guardian/crypto/random"
)

func TestDecryptionProof(t *testing.T) {
	eg := MODP2048()
	kp := GenerateKeyPair(eg)
	context := random.Int(eg.Q)

	m := big.NewInt(3)
	r := random.Int(eg.Q)
	ct := kp.Public().Encrypt(m, r)

	zkp := ProveDecryption(kp.Public(), ct, r, context)
	if err := kp.Public().VerifyDecryption(ct, m, zkp, context); err != nil {
		t.Logf("Decryption Verification Fail: %s", err)
		t.Fail()
	}

	// the same proof must not verify for a different claimed exponent
	err := kp.Public().VerifyDecryption(ct, big.NewInt(4), zkp, context)
	if !errors.Is(err, ErrInvalidProof) {
		t.Fatalf("proof verified for the wrong exponent: %v", err)
	}
}

func TestShareProof(t *testing.T) {
	eg := MODP2048()
	kp := GenerateKeyPair(eg)
	context := random.Int(eg.Q)

	// any ciphertext will do, the statement is about a^x
	ct := kp.Public().Encrypt(big.NewInt(1), nil)
	share := new(big.Int).Exp(ct.A, kp.Secret().X, eg.P)

	zkp := ProveShare(kp.Secret(), ct, context)
	if err := kp.Public().VerifyShare(ct, share, zkp, context); err != nil {
		t.Logf("Share Verification Fail: %s", err)
		t.Fail()
	}

	// a share computed with a different secret must fail
	other := GenerateKeyPair(eg)
	badShare := new(big.Int).Exp(ct.A, other.Secret().X, eg.P)
	if err := kp.Public().VerifyShare(ct, badShare, zkp, context); err == nil {
		t.Fatal("share proof verified for a foreign share")
	}
}

func TestDisjunctiveProof(t *testing.T) {
	// completeness holds exactly, so the 5-bit group is fine here
	eg := ToyGroup()
	kp := GenerateKeyPair(eg)
	context := random.Int(eg.Q)

	for _, bit := range []int{0, 1} {
		r := random.Int(eg.Q)
		ct := kp.Public().Encrypt(big.NewInt(int64(bit)), r)
		zkp := ProveDisjunction(kp.Public(), ct, bit, r, context)
		if err := kp.Public().VerifyDisjunction(ct, zkp, context); err != nil {
			t.Errorf("Disjunction Verification Fail for bit %d: %s", bit, err)
		}
	}
}

func TestDisjunctiveProofRejectsTwo(t *testing.T) {
	eg := MODP2048()
	kp := GenerateKeyPair(eg)
	context := random.Int(eg.Q)

	// encrypt 2, then claim it is a bit: the genuine branch's equations
	// cannot hold, whichever branch the prover pretends is real
	r := random.Int(eg.Q)
	ct := kp.Public().Encrypt(big.NewInt(2), r)
	zkp := ProveDisjunction(kp.Public(), ct, 1, r, context)

	err := kp.Public().VerifyDisjunction(ct, zkp, context)
	if !errors.Is(err, ErrInvalidProof) {
		t.Fatalf("encryption of 2 passed a 0/1 proof: %v", err)
	}
}

func TestDisjunctiveProofChallengeSplit(t *testing.T) {
	eg := MODP2048()
	kp := GenerateKeyPair(eg)
	context := random.Int(eg.Q)

	r := random.Int(eg.Q)
	ct := kp.Public().Encrypt(big.NewInt(0), r)
	zkp := ProveDisjunction(kp.Public(), ct, 0, r, context)

	// shift challenge mass from one branch to the other: the split sum
	// still matches, but the branch equations break
	zkp.Zero.C.Add(zkp.Zero.C, big.NewInt(1))
	zkp.Zero.C.Mod(zkp.Zero.C, eg.Q)
	zkp.One.C.Sub(zkp.One.C, big.NewInt(1))
	zkp.One.C.Mod(zkp.One.C, eg.Q)

	if err := kp.Public().VerifyDisjunction(ct, zkp, context); err == nil {
		t.Fatal("tampered challenge split verified")
	}
}

func TestProofRanges(t *testing.T) {
	eg := Group227()
	kp := GenerateKeyPair(eg)
	context := random.Int(eg.Q)

	r := random.Int(eg.Q)
	m := big.NewInt(1)
	ct := kp.Public().Encrypt(m, r)
	zkp := ProveDecryption(kp.Public(), ct, r, context)

	// an out of range response is malformed, not merely invalid
	zkp.R = new(big.Int).Set(eg.Q)
	err := kp.Public().VerifyDecryption(ct, m, zkp, context)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("out of range response should be malformed, got: %v", err)
	}

	// as is a missing proof
	err = kp.Public().VerifyDecryption(ct, m, nil, context)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("missing proof should be malformed, got: %v", err)
	}
}
