package guardian

import (
	"context"
	"fmt"
	"runtime"
	"time"

	big "github.com/ncw/gmp"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/openballot/guardian/crypto/elgamal"
)

// Verifier drives every cryptographic check over one election record.
// The record is never mutated; all checks are pure, so independent
// ballots and tallies are verified in parallel. A failure in one entity
// is recorded and checking continues elsewhere, so one bad ballot does
// not block verification of the rest of the election.
type Verifier struct {
	rec      *Record
	jobs     int
	progress func()

	// derived once the parameters validate
	sys      *elgamal.System
	n, k     int
	jointKey *elgamal.PublicKey
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithJobs caps the number of concurrent workers. Defaults to the
// number of CPUs; modular exponentiation is the dominant cost.
func WithJobs(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.jobs = n
		}
	}
}

// WithProgress registers a callback invoked once per verified ballot
// (cast or spoiled). It may be called from multiple goroutines.
func WithProgress(fn func()) Option {
	return func(v *Verifier) { v.progress = fn }
}

// New creates a Verifier for the given record.
func New(rec *Record, opts ...Option) *Verifier {
	v := &Verifier{rec: rec, jobs: runtime.NumCPU()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify runs the full check sequence and produces the report. The
// report is only final once every check has completed; partial results
// are never published.
func (v *Verifier) Verify(ctx context.Context) *Report {
	start := time.Now()
	var fails failures

	if !v.checkParameters(&fails) {
		// without usable parameters nothing else can be checked
		return finalReport(start, fails)
	}
	v.step("base_hash", func() { v.checkBaseHash(&fails) })
	v.step("trustee_keys", func() { v.checkTrustees(&fails) })
	v.step("extended_base_hash", func() { v.checkExtendedBaseHash(&fails) })
	v.step("joint_public_key", func() { v.checkJointKey(&fails) })
	v.step("cast_ballots", func() { v.checkCastBallots(ctx, &fails) })
	v.step("contest_tallies", func() { v.checkContestTallies(ctx, &fails) })
	v.step("spoiled_ballots", func() { v.checkSpoiledBallots(ctx, &fails) })

	return finalReport(start, fails)
}

func (v *Verifier) step(name string, fn func()) {
	start := time.Now()
	fn()
	log.Debug().Str("step", name).Dur("ms", time.Since(start)).Msg("Verification step complete")
}

func finalReport(start time.Time, fails failures) *Report {
	rep := &Report{Valid: len(fails) == 0, Failures: fails}
	if rep.Failures == nil {
		rep.Failures = []Failure{}
	}
	log.Info().
		Bool("valid", rep.Valid).
		Int("failures", len(rep.Failures)).
		Dur("ms", time.Since(start)).
		Msg("Verification complete")
	return rep
}

// ballotPath names a ballot by position, and by tracker when one was
// published, so a failing ballot can be located in the real world.
func ballotPath(prefix string, i int, info *BallotInfo) string {
	if info != nil && info.Tracker != "" {
		return fmt.Sprintf("%s[%d]:%s", prefix, i, info.Tracker)
	}
	return fmt.Sprintf("%s[%d]", prefix, i)
}

// intFromBig converts a record count or index to int, rejecting
// anything that does not fit comfortably.
func intFromBig(x *big.Int) (int, bool) {
	if x == nil || x.Sign() < 0 || x.Cmp(big.NewInt(1<<31)) >= 0 {
		return 0, false
	}
	return int(x.Int64()), true
}

// checkParameters validates n, k, p and g and the structural shape of
// the trustee keys. Returns false if verification cannot continue.
func (v *Verifier) checkParameters(f *failures) bool {
	p := v.rec.Parameters
	if p == nil {
		f.add("parameters", KindFormatError, "record has no parameters")
		return false
	}
	ok := true

	n, validN := intFromBig(p.NumTrustees)
	if !validN || n < 1 {
		f.add("parameters", KindParameterError, "number of trustees out of range")
		ok = false
	}
	k, validK := intFromBig(p.Threshold)
	if !validK || k < 1 {
		f.add("parameters", KindParameterError, "threshold out of range")
		ok = false
	} else if validN && k > n {
		f.add("parameters", KindParameterError, "threshold %d exceeds number of trustees %d", k, n)
		ok = false
	}
	sys := p.System()
	if err := sys.Validate(); err != nil {
		f.add("parameters", KindParameterError, "%s", err.Error())
		ok = false
	}
	for i, c := range p.Contests {
		if c == nil || c.Selections < 1 {
			f.add(fmt.Sprintf("parameters/contest[%d]", i), KindParameterError, "contest must offer at least one selection")
			ok = false
			continue
		}
		if !sys.IsValidExponent(c.MaxSelections) {
			f.add(fmt.Sprintf("parameters/contest[%d]", i), KindParameterError, "max_selections out of exponent range")
			ok = false
		}
	}
	if validN && len(v.rec.TrusteePublicKeys) != n {
		f.add("trustee_public_keys", KindParameterError, "record holds %d trustee keys, parameters say %d", len(v.rec.TrusteePublicKeys), n)
		ok = false
	}
	for i, t := range v.rec.TrusteePublicKeys {
		if t == nil || (validK && len(t.Coefficients) != k) {
			f.add(fmt.Sprintf("trustee[%d]", i), KindParameterError, "trustee must publish exactly %d coefficients", k)
			ok = false
			continue
		}
		for j, c := range t.Coefficients {
			if c == nil || c.PublicKey == nil {
				f.add(fmt.Sprintf("trustee[%d]/coefficient[%d]", i, j), KindParameterError, "coefficient key missing")
				ok = false
			}
		}
	}
	if !ok {
		return false
	}
	v.sys, v.n, v.k = sys, n, k
	v.jointKey = &elgamal.PublicKey{System: sys, Y: v.rec.JointPublicKey}
	return true
}

func (v *Verifier) checkBaseHash(f *failures) {
	if BaseHash(v.rec.Parameters).Cmp(v.rec.BaseHash) != 0 {
		f.add("base_hash", KindHashMismatch, "recomputed base hash disagrees with the record")
	}
}

// checkTrustees verifies every coefficient's Schnorr proof of
// possession, bound to the published base hash.
func (v *Verifier) checkTrustees(f *failures) {
	for i, t := range v.rec.TrusteePublicKeys {
		for j, c := range t.Coefficients {
			path := fmt.Sprintf("trustee[%d]/coefficient[%d]", i, j)
			if c == nil || c.Proof == nil || c.PublicKey == nil {
				f.add(path, KindMalformedValue, "coefficient incomplete")
				continue
			}
			pk := &elgamal.PublicKey{System: v.sys, Y: c.PublicKey}
			if err := pk.VerifyKnowledge(c.Proof, v.rec.BaseHash); err != nil {
				f.addErr(path, err)
			}
		}
	}
}

func (v *Verifier) checkExtendedBaseHash(f *failures) {
	if ExtendedBaseHash(v.rec.BaseHash, v.rec.TrusteePublicKeys).Cmp(v.rec.ExtendedBaseHash) != 0 {
		f.add("extended_base_hash", KindHashMismatch, "recomputed extended base hash disagrees with the record")
	}
}

// checkJointKey recomputes K as the product of every trustee's first
// coefficient key.
func (v *Verifier) checkJointKey(f *failures) {
	if !v.sys.IsValidElement(v.rec.JointPublicKey) {
		f.add("joint_public_key", KindMalformedValue, "joint public key is not a group element")
		return
	}
	K := big.NewInt(1)
	for _, t := range v.rec.TrusteePublicKeys {
		K.Mul(K, t.Coefficients[0].PublicKey)
		K.Mod(K, v.sys.P)
	}
	if K.Cmp(v.rec.JointPublicKey) != 0 {
		f.add("joint_public_key", KindKeyMismatch, "joint public key is not the product of the trustee keys")
	}
}

// wellShaped reports whether a cast ballot matches the contest
// configuration exactly; only such ballots enter the tally sums.
func (v *Verifier) wellShaped(b *CastBallot) bool {
	cfg := v.rec.Parameters.Contests
	if b == nil || len(b.Contests) != len(cfg) {
		return false
	}
	for c, contest := range b.Contests {
		if contest == nil || len(contest.Selections) != cfg[c].Selections {
			return false
		}
		for _, sel := range contest.Selections {
			if sel == nil || sel.Message == nil || sel.Message.A == nil {
				return false
			}
		}
	}
	return true
}

func (v *Verifier) checkCastBallots(ctx context.Context, f *failures) {
	ballots := v.rec.CastBallots
	results := make([]failures, len(ballots))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.jobs)
	for i, b := range ballots {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			var info *BallotInfo
			if b != nil {
				info = b.BallotInfo
			}
			results[i] = v.checkCastBallot(ballotPath("cast_ballot", i, info), b)
			if v.progress != nil {
				v.progress()
			}
			return nil
		})
	}
	g.Wait()
	for _, r := range results {
		*f = append(*f, r...)
	}
}

func (v *Verifier) checkCastBallot(path string, b *CastBallot) failures {
	var f failures
	cfg := v.rec.Parameters.Contests
	if b == nil {
		f.add(path, KindMalformedValue, "ballot missing")
		return f
	}
	if len(b.Contests) != len(cfg) {
		f.add(path, KindMalformedValue, "ballot has %d contests, configuration has %d", len(b.Contests), len(cfg))
		return f
	}
	for c, contest := range b.Contests {
		cpath := fmt.Sprintf("%s/contest[%d]", path, c)
		cc := cfg[c]
		if contest == nil || len(contest.Selections) != cc.Selections {
			f.add(cpath, KindMalformedValue, "contest does not match the configured number of selections")
			continue
		}
		if contest.MaxSelections == nil || contest.MaxSelections.Cmp(cc.MaxSelections) != 0 {
			f.add(cpath, KindMalformedValue, "max_selections disagrees with the contest configuration")
		}
		agg := &elgamal.CipherText{}
		skipSum := false
		for s, sel := range contest.Selections {
			spath := fmt.Sprintf("%s/selection[%d]", cpath, s)
			if sel == nil || sel.Message == nil {
				f.add(spath, KindMalformedValue, "selection incomplete")
				skipSum = true
				continue
			}
			if err := v.jointKey.VerifyDisjunction(sel.Message, sel.Proof, v.rec.ExtendedBaseHash); err != nil {
				f.addErr(spath, err)
			}
			// the sum proof covers the product of all selections, even
			// ones whose own proof failed
			agg.Mul(v.sys, sel.Message)
		}
		if skipSum {
			continue
		}
		if err := v.jointKey.VerifyDecryption(agg, cc.MaxSelections, contest.NumSelectionsProof, v.rec.ExtendedBaseHash); err != nil {
			f.addErr(cpath+"/num_selections", err)
		}
	}
	return f
}

// checkContestTallies recomputes the homomorphic sum for every contest
// position across all well-shaped cast ballots, then verifies each
// published decryption against it.
func (v *Verifier) checkContestTallies(ctx context.Context, f *failures) {
	cfg := v.rec.Parameters.Contests
	tallies := v.rec.ContestTallies
	if len(tallies) != len(cfg) {
		f.add("contest_tallies", KindMalformedValue, "record holds %d contest tallies, configuration has %d contests", len(tallies), len(cfg))
		return
	}
	sums := make([][]*elgamal.CipherText, len(cfg))
	for c, cc := range cfg {
		sums[c] = make([]*elgamal.CipherText, cc.Selections)
		for s := range sums[c] {
			sums[c][s] = &elgamal.CipherText{}
		}
	}
	counted := 0
	for _, b := range v.rec.CastBallots {
		if !v.wellShaped(b) {
			// already reported by the ballot check; it cannot be
			// indexed into the sums safely
			continue
		}
		counted++
		for c, contest := range b.Contests {
			for s, sel := range contest.Selections {
				sums[c][s].Mul(v.sys, sel.Message)
			}
		}
	}
	if counted == 0 && len(v.rec.CastBallots) > 0 {
		// every cast ballot was malformed, so the sums cannot be
		// recomputed and no tally can be checked against the ballots.
		// The published decryptions are still verified below.
		f.add("contest_tallies", KindMalformedValue, "no well-formed cast ballots; tally sums cannot be recomputed")
	}

	results := make([]failures, len(tallies))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.jobs)
	for c, tally := range tallies {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			var tf failures
			cpath := fmt.Sprintf("contest_tally[%d]", c)
			if tally == nil || len(tally.Selections) != cfg[c].Selections {
				tf.add(cpath, KindMalformedValue, "tally does not match the configured number of selections")
				results[c] = tf
				return nil
			}
			for s, dv := range tally.Selections {
				var expected *elgamal.CipherText
				if counted > 0 {
					expected = sums[c][s]
				}
				tf = append(tf, v.checkDecryptedValue(fmt.Sprintf("%s/selection[%d]", cpath, s), dv, expected)...)
			}
			results[c] = tf
			return nil
		})
	}
	g.Wait()
	for _, r := range results {
		*f = append(*f, r...)
	}
}

func (v *Verifier) checkSpoiledBallots(ctx context.Context, f *failures) {
	cfg := v.rec.Parameters.Contests
	ballots := v.rec.SpoiledBallots
	results := make([]failures, len(ballots))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.jobs)
	for i, sb := range ballots {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			var bf failures
			var info *BallotInfo
			if sb != nil {
				info = sb.BallotInfo
			}
			path := ballotPath("spoiled_ballot", i, info)
			if sb == nil || len(sb.Contests) != len(cfg) {
				bf.add(path, KindMalformedValue, "ballot does not match the configured number of contests")
				results[i] = bf
				return nil
			}
			for c, contest := range sb.Contests {
				cpath := fmt.Sprintf("%s/contest[%d]", path, c)
				if contest == nil || len(contest.Selections) != cfg[c].Selections {
					bf.add(cpath, KindMalformedValue, "contest does not match the configured number of selections")
					continue
				}
				for s, dv := range contest.Selections {
					bf = append(bf, v.checkDecryptedValue(fmt.Sprintf("%s/selection[%d]", cpath, s), dv, nil)...)
				}
			}
			results[i] = bf
			if v.progress != nil {
				v.progress()
			}
			return nil
		})
	}
	g.Wait()
	for _, r := range results {
		*f = append(*f, r...)
	}
}

// checkDecryptedValue verifies one published decryption: its shares
// (direct or reconstructed), the combination of the shares, and the
// cleartext consistency. When expected is non-nil the encrypted value
// must equal the recomputed homomorphic sum.
func (v *Verifier) checkDecryptedValue(path string, dv *DecryptedValue, expected *elgamal.CipherText) failures {
	var f failures
	if dv == nil || dv.EncryptedValue == nil || dv.Cleartext == nil || dv.DecryptedValue == nil {
		f.add(path, KindMalformedValue, "decrypted value incomplete")
		return f
	}
	if !dv.EncryptedValue.Valid(v.sys) {
		f.add(path, KindMalformedValue, "encrypted value is not a pair of group elements")
		return f
	}
	if expected != nil && expected.A != nil && !dv.EncryptedValue.Equals(expected) {
		f.add(path, KindDecryptionMismatch, "encrypted value does not match the homomorphic sum of the cast selections")
	}
	if !v.sys.IsValidElement(dv.DecryptedValue) {
		f.add(path, KindMalformedValue, "decrypted value is not a group element")
		return f
	}
	if len(dv.Shares) != v.n {
		f.add(path, KindThresholdError, "expected %d decryption shares, got %d", v.n, len(dv.Shares))
		return f
	}
	shares := make([]*big.Int, v.n)
	for i, share := range dv.Shares {
		spath := fmt.Sprintf("%s/share[%d]", path, i)
		if share == nil || share.Share == nil {
			f.add(spath, KindMalformedValue, "share incomplete")
			return f
		}
		shares[i] = share.Share
		if share.Recovery == nil {
			// present trustee: the share is proven against their own key
			pk := &elgamal.PublicKey{System: v.sys, Y: v.rec.TrusteePublicKeys[i].Coefficients[0].PublicKey}
			if err := pk.VerifyShare(dv.EncryptedValue, share.Share, share.Proof, v.rec.ExtendedBaseHash); err != nil {
				f.addErr(spath, err)
			}
		} else {
			f = append(f, v.checkShareRecovery(spath, i+1, share, dv.EncryptedValue)...)
		}
	}
	m := elgamal.DecryptWithShares(v.sys, dv.EncryptedValue, shares)
	if m.Cmp(dv.DecryptedValue) != 0 {
		f.add(path, KindDecryptionMismatch, "combined shares do not reproduce the decrypted value")
	}
	if !v.sys.IsValidExponent(dv.Cleartext) {
		f.add(path, KindMalformedValue, "cleartext out of exponent range")
	} else if v.sys.PowG(dv.Cleartext).Cmp(dv.DecryptedValue) != 0 {
		f.add(path, KindDecryptionMismatch, "g^cleartext does not equal the decrypted value")
	}
	return f
}

// checkShareRecovery verifies an absent trustee's reconstructed share:
// exactly k fragments from k distinct present trustees, each proven
// against the absent trustee's polynomial evaluated at the contributor's
// index, with Lagrange coefficients the verifier recomputes itself.
func (v *Verifier) checkShareRecovery(path string, absent int, share *Share, ct *elgamal.CipherText) failures {
	var f failures
	frags := share.Recovery.Fragments
	if len(frags) != v.k {
		f.add(path, KindThresholdError, "expected %d fragments, got %d", v.k, len(frags))
		return f
	}
	indices := make([]int, 0, v.k)
	seen := make(map[int]bool, v.k)
	structural := false
	for fi, frag := range frags {
		fpath := fmt.Sprintf("%s/fragment[%d]", path, fi)
		if frag == nil || frag.Fragment == nil || frag.LagrangeCoefficient == nil {
			f.add(fpath, KindMalformedValue, "fragment incomplete")
			structural = true
			continue
		}
		j, ok := intFromBig(frag.TrusteeIndex)
		if !ok || j < 1 || j > v.n {
			f.add(fpath, KindThresholdError, "contributing trustee index out of range")
			structural = true
			continue
		}
		if j == absent {
			f.add(fpath, KindThresholdError, "fragment claims to come from the absent trustee")
			structural = true
			continue
		}
		if seen[j] {
			f.add(fpath, KindThresholdError, "duplicate fragment from trustee %d", j)
			structural = true
			continue
		}
		seen[j] = true
		indices = append(indices, j)
		pk := elgamal.ShareKey(v.sys, v.coefficientKeys(absent), j)
		if err := pk.VerifyShare(ct, frag.Fragment, frag.Proof, v.rec.ExtendedBaseHash); err != nil {
			f.addErr(fpath, err)
		}
	}
	if structural {
		// without a sound contributor set the coefficients cannot be
		// recomputed
		return f
	}
	values := make([]*big.Int, len(frags))
	coeffs := make([]*big.Int, len(frags))
	for fi, frag := range frags {
		j, _ := intFromBig(frag.TrusteeIndex)
		w := elgamal.Lagrange(indices, j, v.sys.Q)
		if w.Cmp(frag.LagrangeCoefficient) != 0 {
			f.add(fmt.Sprintf("%s/fragment[%d]", path, fi), KindThresholdError, "lagrange coefficient disagrees with recomputation")
		}
		// recombine with the recomputed coefficient, not the claimed one
		values[fi] = frag.Fragment
		coeffs[fi] = w
	}
	if elgamal.RecombineFragments(v.sys, values, coeffs).Cmp(share.Share) != 0 {
		f.add(path, KindDecryptionMismatch, "recombined fragments do not reproduce the share")
	}
	return f
}

// coefficientKeys returns trustee i's published coefficient commitments
// (1-based trustee index).
func (v *Verifier) coefficientKeys(i int) []*big.Int {
	coeffs := v.rec.TrusteePublicKeys[i-1].Coefficients
	keys := make([]*big.Int, len(coeffs))
	for l, c := range coeffs {
		keys[l] = c.PublicKey
	}
	return keys
}
