package elgamal

import (
	"encoding/json"
	"fmt"
	"reflect"

	big "github.com/ncw/gmp"

	"github.com/openballot/guardian/crypto"
)

// The election record stores big integers as decimal strings (see the
// crypto package). These explicit marshallers keep the wire shape of each
// crypto type pinned down, since hash computations elsewhere depend on
// the record being read back exactly as written.

/////////////////// Helpers ///////////////////

func bigIntAtKey(k string, m map[string]interface{}) (*big.Int, error) {
	v, ok := m[k]
	if !ok {
		return nil, fmt.Errorf("No field '%s' in JSON object", k)
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("Invalid type at field '%s' (expecting string, got %s)", k, reflect.TypeOf(v).Kind())
	}
	return crypto.BigIntFromJSON(s)
}

func getMap(b []byte) (map[string]interface{}, error) {
	m := map[string]interface{}{}
	err := json.Unmarshal(b, &m)
	return m, err
}

/////////////////// type CipherText ///////////////////

func (ct *CipherText) toJSON() map[string]string {
	return map[string]string{
		"a": crypto.BigIntToJSON(ct.A),
		"b": crypto.BigIntToJSON(ct.B),
	}
}

func (ct *CipherText) MarshalJSON() ([]byte, error) {
	return json.Marshal(ct.toJSON())
}

func (ct *CipherText) UnmarshalJSON(b []byte) error {
	m, err := getMap(b)
	if err != nil {
		return err
	}
	ct.A, err = bigIntAtKey("a", m)
	if err != nil {
		return err
	}
	ct.B, err = bigIntAtKey("b", m)
	return err
}

/////////////////// type Proof ///////////////////

func (zkp *Proof) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"commitment": map[string]string{
			"a": crypto.BigIntToJSON(zkp.A),
			"b": crypto.BigIntToJSON(zkp.B),
		},
		"challenge": crypto.BigIntToJSON(zkp.C),
		"response":  crypto.BigIntToJSON(zkp.R),
	})
}

func (zkp *Proof) UnmarshalJSON(b []byte) error {
	m, err := getMap(b)
	if err != nil {
		return err
	}
	cv, ok := m["commitment"]
	if !ok {
		return fmt.Errorf("No field 'commitment' in JSON object")
	}
	cm, ok := cv.(map[string]interface{})
	if !ok {
		return fmt.Errorf("Invalid type at field 'commitment' (expecting object)")
	}
	zkp.A, err = bigIntAtKey("a", cm)
	if err != nil {
		return err
	}
	zkp.B, err = bigIntAtKey("b", cm)
	if err != nil {
		return err
	}
	zkp.C, err = bigIntAtKey("challenge", m)
	if err != nil {
		return err
	}
	zkp.R, err = bigIntAtKey("response", m)
	return err
}

/////////////////// type DisjProof ///////////////////

func (zkp *DisjProof) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]*Proof{
		"zero_proof": zkp.Zero,
		"one_proof":  zkp.One,
	})
}

func (zkp *DisjProof) UnmarshalJSON(b []byte) error {
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	raw, ok := m["zero_proof"]
	if !ok {
		return fmt.Errorf("No field 'zero_proof' in JSON object")
	}
	zkp.Zero = &Proof{}
	if err := json.Unmarshal(raw, zkp.Zero); err != nil {
		return err
	}
	raw, ok = m["one_proof"]
	if !ok {
		return fmt.Errorf("No field 'one_proof' in JSON object")
	}
	zkp.One = &Proof{}
	return json.Unmarshal(raw, zkp.One)
}

/////////////////// type SchnorrProof ///////////////////

func (p *SchnorrProof) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"commitment": crypto.BigIntToJSON(p.Commitment),
		"challenge":  crypto.BigIntToJSON(p.Challenge),
		"response":   crypto.BigIntToJSON(p.Response),
	})
}

func (p *SchnorrProof) UnmarshalJSON(b []byte) error {
	m, err := getMap(b)
	if err != nil {
		return err
	}
	p.Commitment, err = bigIntAtKey("commitment", m)
	if err != nil {
		return err
	}
	p.Challenge, err = bigIntAtKey("challenge", m)
	if err != nil {
		return err
	}
	p.Response, err = bigIntAtKey("response", m)
	return err
}
