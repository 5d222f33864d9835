package guardian

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	big "github.com/ncw/gmp"

	"github.com/openballot/guardian/crypto"
	"github.com/openballot/guardian/crypto/elgamal"
)

// The record document is a JSON tree where every large integer is a
// decimal string. Decoding is strict: a value that is not an exact
// non-negative integer is a format error and the record is rejected
// before verification begins. Each type (un)marshals through a mirror
// struct so the wire field names stay pinned in one place.

// Load reads and decodes an election record from disk.
func Load(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open election record: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads an election record document from r.
func Decode(r io.Reader) (*Record, error) {
	rec := &Record{}
	if err := json.NewDecoder(r).Decode(rec); err != nil {
		return nil, fmt.Errorf("election record does not decode: %w", err)
	}
	return rec, nil
}

func parseBig(field, s string) (*big.Int, error) {
	n, err := crypto.BigIntFromJSON(s)
	if err != nil {
		return nil, fmt.Errorf("field '%s': %w", field, err)
	}
	return n, nil
}

/////////////////// type Parameters ///////////////////

type parametersJSON struct {
	Date        string           `json:"date"`
	Location    string           `json:"location"`
	NumTrustees string           `json:"num_trustees"`
	Threshold   string           `json:"threshold"`
	Prime       string           `json:"prime"`
	Generator   string           `json:"generator"`
	Contests    []*ContestConfig `json:"contests"`
}

func (p *Parameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(&parametersJSON{
		Date:        p.Date,
		Location:    p.Location,
		NumTrustees: crypto.BigIntToJSON(p.NumTrustees),
		Threshold:   crypto.BigIntToJSON(p.Threshold),
		Prime:       crypto.BigIntToJSON(p.Prime),
		Generator:   crypto.BigIntToJSON(p.Generator),
		Contests:    p.Contests,
	})
}

func (p *Parameters) UnmarshalJSON(b []byte) error {
	var raw parametersJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.Date = raw.Date
	p.Location = raw.Location
	p.Contests = raw.Contests
	var err error
	if p.NumTrustees, err = parseBig("num_trustees", raw.NumTrustees); err != nil {
		return err
	}
	if p.Threshold, err = parseBig("threshold", raw.Threshold); err != nil {
		return err
	}
	if p.Prime, err = parseBig("prime", raw.Prime); err != nil {
		return err
	}
	p.Generator, err = parseBig("generator", raw.Generator)
	return err
}

/////////////////// type ContestConfig ///////////////////

type contestConfigJSON struct {
	Selections    int    `json:"selections"`
	MaxSelections string `json:"max_selections"`
}

func (c *ContestConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(&contestConfigJSON{
		Selections:    c.Selections,
		MaxSelections: crypto.BigIntToJSON(c.MaxSelections),
	})
}

func (c *ContestConfig) UnmarshalJSON(b []byte) error {
	var raw contestConfigJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Selections < 0 {
		return fmt.Errorf("field 'selections': negative count")
	}
	c.Selections = raw.Selections
	var err error
	c.MaxSelections, err = parseBig("max_selections", raw.MaxSelections)
	return err
}

/////////////////// type Record ///////////////////

type recordJSON struct {
	Parameters        *Parameters         `json:"parameters"`
	BaseHash          string              `json:"base_hash"`
	TrusteePublicKeys []*TrusteePublicKey `json:"trustee_public_keys"`
	JointPublicKey    string              `json:"joint_public_key"`
	ExtendedBaseHash  string              `json:"extended_base_hash"`
	CastBallots       []*CastBallot       `json:"cast_ballots"`
	ContestTallies    []*ContestTally     `json:"contest_tallies"`
	SpoiledBallots    []*SpoiledBallot    `json:"spoiled_ballots"`
}

func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(&recordJSON{
		Parameters:        r.Parameters,
		BaseHash:          crypto.BigIntToJSON(r.BaseHash),
		TrusteePublicKeys: r.TrusteePublicKeys,
		JointPublicKey:    crypto.BigIntToJSON(r.JointPublicKey),
		ExtendedBaseHash:  crypto.BigIntToJSON(r.ExtendedBaseHash),
		CastBallots:       r.CastBallots,
		ContestTallies:    r.ContestTallies,
		SpoiledBallots:    r.SpoiledBallots,
	})
}

func (r *Record) UnmarshalJSON(b []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Parameters == nil {
		return fmt.Errorf("No field 'parameters' in election record")
	}
	r.Parameters = raw.Parameters
	r.TrusteePublicKeys = raw.TrusteePublicKeys
	r.CastBallots = raw.CastBallots
	r.ContestTallies = raw.ContestTallies
	r.SpoiledBallots = raw.SpoiledBallots
	var err error
	if r.BaseHash, err = parseBig("base_hash", raw.BaseHash); err != nil {
		return err
	}
	if r.JointPublicKey, err = parseBig("joint_public_key", raw.JointPublicKey); err != nil {
		return err
	}
	r.ExtendedBaseHash, err = parseBig("extended_base_hash", raw.ExtendedBaseHash)
	return err
}

/////////////////// trustee keys ///////////////////

type trusteePublicKeyJSON struct {
	Coefficients []*TrusteeCoefficient `json:"coefficients"`
}

func (t *TrusteePublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(&trusteePublicKeyJSON{Coefficients: t.Coefficients})
}

func (t *TrusteePublicKey) UnmarshalJSON(b []byte) error {
	var raw trusteePublicKeyJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	t.Coefficients = raw.Coefficients
	return nil
}

type trusteeCoefficientJSON struct {
	PublicKey string                `json:"public_key"`
	Proof     *elgamal.SchnorrProof `json:"proof"`
}

func (t *TrusteeCoefficient) MarshalJSON() ([]byte, error) {
	return json.Marshal(&trusteeCoefficientJSON{
		PublicKey: crypto.BigIntToJSON(t.PublicKey),
		Proof:     t.Proof,
	})
}

func (t *TrusteeCoefficient) UnmarshalJSON(b []byte) error {
	var raw trusteeCoefficientJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	t.Proof = raw.Proof
	var err error
	t.PublicKey, err = parseBig("public_key", raw.PublicKey)
	return err
}

/////////////////// cast ballots ///////////////////

type castBallotJSON struct {
	BallotInfo *BallotInfo    `json:"ballot_info"`
	Contests   []*CastContest `json:"contests"`
}

func (cb *CastBallot) MarshalJSON() ([]byte, error) {
	return json.Marshal(&castBallotJSON{BallotInfo: cb.BallotInfo, Contests: cb.Contests})
}

func (cb *CastBallot) UnmarshalJSON(b []byte) error {
	var raw castBallotJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	cb.BallotInfo = raw.BallotInfo
	cb.Contests = raw.Contests
	return nil
}

type castContestJSON struct {
	Selections         []*CastSelection `json:"selections"`
	MaxSelections      string           `json:"max_selections"`
	NumSelectionsProof *elgamal.Proof   `json:"num_selections_proof"`
}

func (cc *CastContest) MarshalJSON() ([]byte, error) {
	return json.Marshal(&castContestJSON{
		Selections:         cc.Selections,
		MaxSelections:      crypto.BigIntToJSON(cc.MaxSelections),
		NumSelectionsProof: cc.NumSelectionsProof,
	})
}

func (cc *CastContest) UnmarshalJSON(b []byte) error {
	var raw castContestJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	cc.Selections = raw.Selections
	cc.NumSelectionsProof = raw.NumSelectionsProof
	var err error
	cc.MaxSelections, err = parseBig("max_selections", raw.MaxSelections)
	return err
}

// A selection's disjunctive proof is flattened alongside the message,
// so the two branch proofs are sibling fields of the ciphertext.
func (cs *CastSelection) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"message":    cs.Message,
		"zero_proof": cs.Proof.Zero,
		"one_proof":  cs.Proof.One,
	})
}

func (cs *CastSelection) UnmarshalJSON(b []byte) error {
	var raw struct {
		Message *elgamal.CipherText `json:"message"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Message == nil {
		return fmt.Errorf("No field 'message' in cast selection")
	}
	cs.Message = raw.Message
	cs.Proof = &elgamal.DisjProof{}
	return json.Unmarshal(b, cs.Proof)
}

/////////////////// tallies and spoiled ballots ///////////////////

type contestTallyJSON struct {
	Selections []*DecryptedValue `json:"selections"`
}

func (ct *ContestTally) MarshalJSON() ([]byte, error) {
	return json.Marshal(&contestTallyJSON{Selections: ct.Selections})
}

func (ct *ContestTally) UnmarshalJSON(b []byte) error {
	var raw contestTallyJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	ct.Selections = raw.Selections
	return nil
}

type spoiledBallotJSON struct {
	BallotInfo *BallotInfo       `json:"ballot_info"`
	Contests   []*SpoiledContest `json:"contests"`
}

func (sb *SpoiledBallot) MarshalJSON() ([]byte, error) {
	return json.Marshal(&spoiledBallotJSON{BallotInfo: sb.BallotInfo, Contests: sb.Contests})
}

func (sb *SpoiledBallot) UnmarshalJSON(b []byte) error {
	var raw spoiledBallotJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	sb.BallotInfo = raw.BallotInfo
	sb.Contests = raw.Contests
	return nil
}

type spoiledContestJSON struct {
	Selections []*DecryptedValue `json:"selections"`
}

func (sc *SpoiledContest) MarshalJSON() ([]byte, error) {
	return json.Marshal(&spoiledContestJSON{Selections: sc.Selections})
}

func (sc *SpoiledContest) UnmarshalJSON(b []byte) error {
	var raw spoiledContestJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	sc.Selections = raw.Selections
	return nil
}

type decryptedValueJSON struct {
	Cleartext      string              `json:"cleartext"`
	DecryptedValue string              `json:"decrypted_value"`
	EncryptedValue *elgamal.CipherText `json:"encrypted_value"`
	Shares         []*Share            `json:"shares"`
}

func (dv *DecryptedValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(&decryptedValueJSON{
		Cleartext:      crypto.BigIntToJSON(dv.Cleartext),
		DecryptedValue: crypto.BigIntToJSON(dv.DecryptedValue),
		EncryptedValue: dv.EncryptedValue,
		Shares:         dv.Shares,
	})
}

func (dv *DecryptedValue) UnmarshalJSON(b []byte) error {
	var raw decryptedValueJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	dv.EncryptedValue = raw.EncryptedValue
	dv.Shares = raw.Shares
	var err error
	if dv.Cleartext, err = parseBig("cleartext", raw.Cleartext); err != nil {
		return err
	}
	dv.DecryptedValue, err = parseBig("decrypted_value", raw.DecryptedValue)
	return err
}

type shareJSON struct {
	Recovery *ShareRecovery `json:"recovery,omitempty"`
	Proof    *elgamal.Proof `json:"proof"`
	Share    string         `json:"share"`
}

func (s *Share) MarshalJSON() ([]byte, error) {
	return json.Marshal(&shareJSON{Recovery: s.Recovery, Proof: s.Proof, Share: crypto.BigIntToJSON(s.Share)})
}

func (s *Share) UnmarshalJSON(b []byte) error {
	var raw shareJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s.Recovery = raw.Recovery
	s.Proof = raw.Proof
	var err error
	s.Share, err = parseBig("share", raw.Share)
	return err
}

type shareRecoveryJSON struct {
	Fragments []*Fragment `json:"fragments"`
}

func (sr *ShareRecovery) MarshalJSON() ([]byte, error) {
	return json.Marshal(&shareRecoveryJSON{Fragments: sr.Fragments})
}

func (sr *ShareRecovery) UnmarshalJSON(b []byte) error {
	var raw shareRecoveryJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	sr.Fragments = raw.Fragments
	return nil
}

type fragmentJSON struct {
	Fragment            string         `json:"fragment"`
	LagrangeCoefficient string         `json:"lagrange_coefficient"`
	Proof               *elgamal.Proof `json:"proof"`
	TrusteeIndex        string         `json:"trustee_index"`
}

func (f *Fragment) MarshalJSON() ([]byte, error) {
	return json.Marshal(&fragmentJSON{
		Fragment:            crypto.BigIntToJSON(f.Fragment),
		LagrangeCoefficient: crypto.BigIntToJSON(f.LagrangeCoefficient),
		Proof:               f.Proof,
		TrusteeIndex:        crypto.BigIntToJSON(f.TrusteeIndex),
	})
}

func (f *Fragment) UnmarshalJSON(b []byte) error {
	var raw fragmentJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	f.Proof = raw.Proof
	var err error
	if f.Fragment, err = parseBig("fragment", raw.Fragment); err != nil {
		return err
	}
	if f.LagrangeCoefficient, err = parseBig("lagrange_coefficient", raw.LagrangeCoefficient); err != nil {
		return err
	}
	f.TrusteeIndex, err = parseBig("trustee_index", raw.TrusteeIndex)
	return err
}
