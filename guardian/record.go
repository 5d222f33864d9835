package guardian

import (
	big "github.com/ncw/gmp"

	"github.com/openballot/guardian/crypto/elgamal"
)

// Parameters are all the parameters necessary to form the election.
type Parameters struct {
	// The date on which the election takes place.
	Date string
	// The location where the election takes place.
	Location string
	// The number of election trustees `n`.
	NumTrustees *big.Int
	// The threshold `k` of trustees required to complete decryption.
	Threshold *big.Int
	// The prime modulus of the group used for encryption. The subgroup
	// order is (prime-1)/2; the modulus must be a safe prime.
	Prime *big.Int
	// The generator of the order-q subgroup.
	Generator *big.Int
	// The contest configuration: how many selectable options each
	// contest offers and how many may be selected. Part of the base
	// hash, and the shape every ballot is checked against.
	Contests []*ContestConfig
}

// ContestConfig describes one contest on the ballot style.
type ContestConfig struct {
	// Number of selectable options.
	Selections int
	// The maximum number of selections `L` that can be made.
	MaxSelections *big.Int
}

// System returns the ElGamal system the record's values live in.
func (p *Parameters) System() *elgamal.System {
	q := new(big.Int).Sub(p.Prime, big.NewInt(1))
	q.Div(q, big.NewInt(2))
	return &elgamal.System{P: p.Prime, Q: q, G: p.Generator}
}

// Record is all data from one election: the published parameters and
// hashes, the trustee keys and their proofs, every cast ballot, the
// decrypted tallies and the decrypted spoiled ballots.
type Record struct {
	Parameters *Parameters

	// The base hash `Q`, a SHA-256 hash over the election parameters
	// and contest configuration.
	BaseHash *big.Int

	// The public key and coefficient commitments for each trustee.
	TrusteePublicKeys []*TrusteePublicKey

	// The election public key `K`, the product of every trustee's
	// first coefficient key.
	JointPublicKey *big.Int

	// The extended base hash `Q̅`, binding the trustee keys.
	ExtendedBaseHash *big.Int

	// The encrypted ballots cast in the election.
	CastBallots []*CastBallot

	// The decryptions of the tallies of each option for each contest.
	ContestTallies []*ContestTally

	// The decryptions of the ballots spoiled in the election.
	SpoiledBallots []*SpoiledBallot
}

// TrusteePublicKey holds a trustee's `k` coefficient commitments. The
// first is the trustee's main key; the rest back up decryption if the
// trustee is later absent.
type TrusteePublicKey struct {
	Coefficients []*TrusteeCoefficient
}

// TrusteeCoefficient is one public key `K_ij` generated from secret
// coefficient `a_ij`, with a proof of possession of the secret.
type TrusteeCoefficient struct {
	PublicKey *big.Int
	Proof     *elgamal.SchnorrProof
}

// BallotInfo is casting metadata, opaque to verification but carried in
// the record so a ballot can be identified outside it.
type BallotInfo struct {
	Date       string `json:"date"`
	DeviceInfo string `json:"device_info"`
	Time       string `json:"time"`
	Tracker    string `json:"tracker"`
}

// CastBallot is an encrypted ballot: the encrypted selections for each
// contest, their proofs of well-formedness, and where and when the
// ballot was encrypted.
type CastBallot struct {
	BallotInfo *BallotInfo
	Contests   []*CastContest
}

// CastContest is a list of encrypted selections along with a proof that
// exactly `L` of them have been selected.
type CastContest struct {
	Selections []*CastSelection
	// The maximum number of selections `L` for this contest.
	MaxSelections *big.Int
	// Proof that the homomorphic sum of the selections equals `L`.
	NumSelectionsProof *elgamal.Proof
}

// CastSelection is an encryption of either zero or one, with a proof
// that it is one of the two without revealing which.
type CastSelection struct {
	Message *elgamal.CipherText
	Proof   *elgamal.DisjProof
}

// ContestTally is the summed tallies for all selections in one contest.
type ContestTally struct {
	Selections []*DecryptedValue
}

// SpoiledBallot is the decryption of an encrypted ballot that was
// spoiled for audit.
type SpoiledBallot struct {
	BallotInfo *BallotInfo
	Contests   []*SpoiledContest
}

type SpoiledContest struct {
	Selections []*DecryptedValue
}

// DecryptedValue is the decryption of an encrypted value, with proofs
// that it was decrypted properly.
type DecryptedValue struct {
	// The cleartext value `t`.
	Cleartext *big.Int
	// The decrypted value `M = g^t`.
	DecryptedValue *big.Int
	// The encryption of `t`. Decrypting this reveals `g^t`.
	EncryptedValue *elgamal.CipherText
	// The decryption shares `M_i` used to compute `M`, one per trustee.
	Shares []*Share
}

// Share is a single trustee's share of a decryption of some encrypted
// message (a, b).
type Share struct {
	// The information used to reconstruct this share, present only if
	// the trustee was absent during decryption.
	Recovery *ShareRecovery
	// The proof that the share encodes the same value as the
	// encrypted message.
	Proof *elgamal.Proof
	// The share of the decrypted message `M_i`.
	Share *big.Int
}

// ShareRecovery is the `k` fragments used to reconstruct an absent
// trustee's decryption share.
type ShareRecovery struct {
	Fragments []*Fragment
}

// Fragment is trustee j's piece of missing trustee i's share of a
// decryption, including the Lagrange coefficient used to recombine it.
type Fragment struct {
	// The actual fragment `M_ij`.
	Fragment *big.Int
	// The Lagrange coefficient `w_ij`.
	LagrangeCoefficient *big.Int
	// The proof that the fragment encodes the same value as the
	// encrypted message.
	Proof *elgamal.Proof
	// The 1-based index of the trustee who produced this fragment.
	TrusteeIndex *big.Int
}
