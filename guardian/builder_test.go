package guardian

import (
	"fmt"
	"testing"

	big "github.com/ncw/gmp"
	"github.com/stretchr/testify/require"

	"github.com/openballot/guardian/crypto/elgamal"
	"github.com/openballot/guardian/crypto/random"
)

// toyElection holds the secrets behind a small but complete election:
// three trustees with threshold two, one contest with two options and
// L=1, two cast ballots, one spoiled ballot, and trustee 3 absent when
// the tallies were decrypted. build() assembles a record from the
// current state, so a test can tweak a secret and rebuild to get a
// record that is consistent everywhere except where the test says.
type toyElection struct {
	sys    *elgamal.System
	params *Parameters

	// 1-based trustee secret polynomials
	coeffs [][]*big.Int
	// per ballot / contest / selection
	bits [][][]int
	rand [][][]*big.Int
	// per contest / selection
	spoiledBits [][]int
}

func newToyElection() *toyElection {
	// full sized group: the record's negative tests rely on tampered
	// proofs failing with overwhelming probability
	sys := elgamal.MODP2048()
	te := &toyElection{
		sys: sys,
		params: &Parameters{
			Date:        "2026-06-01",
			Location:    "Toyville",
			NumTrustees: big.NewInt(3),
			Threshold:   big.NewInt(2),
			Prime:       sys.P,
			Generator:   sys.G,
			Contests: []*ContestConfig{
				{Selections: 2, MaxSelections: big.NewInt(1)},
			},
		},
		bits: [][][]int{
			{{1, 0}},
			{{0, 1}},
		},
		spoiledBits: [][]int{{0, 1}},
	}
	te.coeffs = make([][]*big.Int, 4)
	for i := 1; i <= 3; i++ {
		te.coeffs[i] = []*big.Int{random.Int(sys.Q), random.Int(sys.Q)}
	}
	te.rand = make([][][]*big.Int, len(te.bits))
	for bi, ballot := range te.bits {
		te.rand[bi] = make([][]*big.Int, len(ballot))
		for ci, contest := range ballot {
			te.rand[bi][ci] = make([]*big.Int, len(contest))
			for si := range contest {
				te.rand[bi][ci][si] = random.Int(sys.Q)
			}
		}
	}
	return te
}

func (te *toyElection) build() *Record {
	sys := te.sys
	rec := &Record{Parameters: te.params}
	rec.BaseHash = BaseHash(te.params)

	// key ceremony: commitments plus possession proofs bound to the
	// base hash, joint key from the constant-term commitments
	joint := big.NewInt(1)
	for i := 1; i <= 3; i++ {
		commitments := elgamal.CreateCommitments(sys, te.coeffs[i])
		tpk := &TrusteePublicKey{}
		for l, c := range te.coeffs[i] {
			kp := elgamal.KeyPairForSecret(sys, c)
			tpk.Coefficients = append(tpk.Coefficients, &TrusteeCoefficient{
				PublicKey: commitments[l],
				Proof:     elgamal.ProveKnowledge(kp.Secret(), rec.BaseHash),
			})
		}
		rec.TrusteePublicKeys = append(rec.TrusteePublicKeys, tpk)
		joint.Mul(joint, commitments[0])
		joint.Mod(joint, sys.P)
	}
	rec.JointPublicKey = joint
	rec.ExtendedBaseHash = ExtendedBaseHash(rec.BaseHash, rec.TrusteePublicKeys)
	pk := &elgamal.PublicKey{System: sys, Y: joint}

	// encrypted ballots with their disjunctive and sum proofs
	for bi, ballotBits := range te.bits {
		cb := &CastBallot{BallotInfo: &BallotInfo{
			Date:       te.params.Date,
			DeviceInfo: "toy-device",
			Time:       "09:00",
			Tracker:    fmt.Sprintf("TRK-%04d", bi+1),
		}}
		for ci, contestBits := range ballotBits {
			cc := &CastContest{
				MaxSelections: new(big.Int).Set(te.params.Contests[ci].MaxSelections),
			}
			agg := &elgamal.CipherText{}
			rsum := big.NewInt(0)
			for si, bit := range contestBits {
				r := te.rand[bi][ci][si]
				ct := pk.Encrypt(big.NewInt(int64(bit)), r)
				cc.Selections = append(cc.Selections, &CastSelection{
					Message: ct,
					Proof:   elgamal.ProveDisjunction(pk, ct, bit, r, rec.ExtendedBaseHash),
				})
				agg.Mul(sys, ct)
				rsum.Add(rsum, r)
				rsum.Mod(rsum, sys.Q)
			}
			cc.NumSelectionsProof = elgamal.ProveDecryption(pk, agg, rsum, rec.ExtendedBaseHash)
			cb.Contests = append(cb.Contests, cc)
		}
		rec.CastBallots = append(rec.CastBallots, cb)
	}

	// decrypted tallies over the homomorphic sums, with trustee 3's
	// share reconstructed from fragments
	for ci, cfg := range te.params.Contests {
		tally := &ContestTally{}
		for si := 0; si < cfg.Selections; si++ {
			agg := &elgamal.CipherText{}
			total := int64(0)
			for bi := range te.bits {
				agg.Mul(sys, rec.CastBallots[bi].Contests[ci].Selections[si].Message)
				total += int64(te.bits[bi][ci][si])
			}
			tally.Selections = append(tally.Selections, te.decrypt(rec, agg, total, true))
		}
		rec.ContestTallies = append(rec.ContestTallies, tally)
	}

	// one spoiled ballot, decrypted with every trustee present
	sb := &SpoiledBallot{BallotInfo: &BallotInfo{
		Date:       te.params.Date,
		DeviceInfo: "toy-device",
		Time:       "09:30",
		Tracker:    "TRK-SPOILED",
	}}
	for ci := range te.params.Contests {
		sc := &SpoiledContest{}
		for _, bit := range te.spoiledBits[ci] {
			ct := pk.Encrypt(big.NewInt(int64(bit)), nil)
			sc.Selections = append(sc.Selections, te.decrypt(rec, ct, int64(bit), false))
		}
		sb.Contests = append(sb.Contests, sc)
	}
	rec.SpoiledBallots = append(rec.SpoiledBallots, sb)

	return rec
}

// decrypt produces the published decryption of one encrypted value,
// with trustee 3 absent (share rebuilt from fragments) when asked.
func (te *toyElection) decrypt(rec *Record, ct *elgamal.CipherText, cleartext int64, absent bool) *DecryptedValue {
	sys := te.sys
	dv := &DecryptedValue{
		Cleartext:      big.NewInt(cleartext),
		EncryptedValue: ct,
	}
	shares := make([]*big.Int, 3)
	for i := 1; i <= 3; i++ {
		secret := te.coeffs[i][0]
		shares[i-1] = new(big.Int).Exp(ct.A, secret, sys.P)
		kp := elgamal.KeyPairForSecret(sys, secret)
		s := &Share{
			Share: shares[i-1],
			Proof: elgamal.ProveShare(kp.Secret(), ct, rec.ExtendedBaseHash),
		}
		if absent && i == 3 {
			s.Recovery = te.recovery(rec, ct)
		}
		dv.Shares = append(dv.Shares, s)
	}
	dv.DecryptedValue = elgamal.DecryptWithShares(sys, ct, shares)
	return dv
}

// recovery builds trustee 3's share recovery from fragments held by
// trustees 1 and 2.
func (te *toyElection) recovery(rec *Record, ct *elgamal.CipherText) *ShareRecovery {
	sys := te.sys
	indices := []int{1, 2}
	sr := &ShareRecovery{}
	for _, j := range indices {
		pj := elgamal.EvalPolynomial(te.coeffs[3], j, sys.Q)
		kp := elgamal.KeyPairForSecret(sys, pj)
		sr.Fragments = append(sr.Fragments, &Fragment{
			Fragment:            new(big.Int).Exp(ct.A, pj, sys.P),
			LagrangeCoefficient: elgamal.Lagrange(indices, j, sys.Q),
			Proof:               elgamal.ProveShare(kp.Secret(), ct, rec.ExtendedBaseHash),
			TrusteeIndex:        big.NewInt(int64(j)),
		})
	}
	return sr
}

func TestBaseHashDeterminism(t *testing.T) {
	te := newToyElection()
	h1 := BaseHash(te.params)
	h2 := BaseHash(te.params)
	require.Zero(t, h1.Cmp(h2), "the base hash must be deterministic")

	other := *te.params
	other.Location = "Elsewhere"
	require.NotZero(t, h1.Cmp(BaseHash(&other)), "the base hash must cover the location")

	withContest := *te.params
	withContest.Contests = append([]*ContestConfig{}, te.params.Contests...)
	withContest.Contests = append(withContest.Contests, &ContestConfig{Selections: 3, MaxSelections: big.NewInt(2)})
	require.NotZero(t, h1.Cmp(BaseHash(&withContest)), "the base hash must cover the contest configuration")
}

func TestBaseHashFieldBoundaries(t *testing.T) {
	te := newToyElection()
	a, b := *te.params, *te.params
	a.Date, a.Location = "a|b", "c"
	b.Date, b.Location = "a", "b|c"
	require.NotZero(t, BaseHash(&a).Cmp(BaseHash(&b)), "a separator inside a field must not shift bytes into the next")
}

func TestExtendedBaseHashCoversKeys(t *testing.T) {
	te := newToyElection()
	rec := te.build()

	h := ExtendedBaseHash(rec.BaseHash, rec.TrusteePublicKeys)
	require.Zero(t, h.Cmp(rec.ExtendedBaseHash))

	// changing any coefficient key changes the hash
	mutated := new(big.Int).Mul(rec.TrusteePublicKeys[1].Coefficients[1].PublicKey, te.sys.G)
	mutated.Mod(mutated, te.sys.P)
	rec.TrusteePublicKeys[1].Coefficients[1].PublicKey = mutated
	require.NotZero(t, h.Cmp(ExtendedBaseHash(rec.BaseHash, rec.TrusteePublicKeys)))
}

func TestToyRecordShape(t *testing.T) {
	te := newToyElection()
	rec := te.build()

	require.Len(t, rec.TrusteePublicKeys, 3)
	require.Len(t, rec.CastBallots, 2)
	require.Len(t, rec.ContestTallies, 1)
	require.Len(t, rec.ContestTallies[0].Selections, 2)
	require.Len(t, rec.SpoiledBallots, 1)

	// both options received exactly one vote
	for _, dv := range rec.ContestTallies[0].Selections {
		require.Zero(t, dv.Cleartext.Cmp(big.NewInt(1)))
		require.Zero(t, dv.DecryptedValue.Cmp(te.sys.PowG(dv.Cleartext)))
	}

	// trustee 3 is marked absent in the tallies but present for the
	// spoiled ballot
	require.NotNil(t, rec.ContestTallies[0].Selections[0].Shares[2].Recovery)
	require.Nil(t, rec.SpoiledBallots[0].Contests[0].Selections[0].Shares[2].Recovery)
}
