package elgamal

import (
	"errors"
	"testing"

	big "github.com/ncw/gmp"

	"github.com/openballot/guardian/crypto/random"
)

func TestProofOfKnowledge(t *testing.T) {
	eg := Group227()
	kp := GenerateKeyPair(eg)
	context := random.Int(eg.Q)

	pok := ProveKnowledge(kp.Secret(), context)

	if err := kp.Public().VerifyKnowledge(pok, context); err != nil {
		t.Logf("ProofOfKnowledge verify fail: %v", err)
		t.Fail()
	}

	// screw it up
	pok.Response.Add(pok.Response, big.NewInt(1))
	pok.Response.Mod(pok.Response, eg.Q)

	err := kp.Public().VerifyKnowledge(pok, context)
	if err == nil {
		t.Fatal("ProofOfKnowledge verify passed with tampered response")
	}
	if !errors.Is(err, ErrInvalidProof) {
		t.Fatalf("tampered response should be an invalid proof, got: %v", err)
	}
}

func TestProofOfKnowledgeContextBinding(t *testing.T) {
	eg := MODP2048()
	kp := GenerateKeyPair(eg)

	pok := ProveKnowledge(kp.Secret(), big.NewInt(99))

	// a proof made for one hash context must not verify under another
	if err := kp.Public().VerifyKnowledge(pok, big.NewInt(100)); err == nil {
		t.Fatal("ProofOfKnowledge verified under the wrong context")
	}
}

func TestProofOfKnowledgeRanges(t *testing.T) {
	eg := Group227()
	kp := GenerateKeyPair(eg)
	context := big.NewInt(7)

	pok := ProveKnowledge(kp.Secret(), context)
	pok.Challenge = new(big.Int).Set(eg.Q) // out of range

	err := kp.Public().VerifyKnowledge(pok, context)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("out of range challenge should be malformed, got: %v", err)
	}
}
