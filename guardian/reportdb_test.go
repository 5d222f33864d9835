package guardian

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReportStoreRoundTrip(t *testing.T) {
	store, err := NewReportStore(filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)
	defer store.Close()

	rep := &Report{
		Valid: false,
		Failures: []Failure{
			{Path: "cast_ballot[3]/contest[0]/selection[1]", Kind: KindInvalidProof, Detail: "invalid proof: challenge does not match commitments"},
			{Path: "contest_tally[0]/selection[0]", Kind: KindDecryptionMismatch, Detail: "combined shares do not reproduce the decrypted value"},
		},
	}
	id, err := store.Save("election-record.json", rep)
	require.NoError(t, err)

	got, err := store.Run(id)
	require.NoError(t, err)
	require.Equal(t, rep, got)

	// a clean report round-trips too
	cleanID, err := store.Save("election-record.json", &Report{Valid: true, Failures: []Failure{}})
	require.NoError(t, err)
	require.NotEqual(t, id, cleanID)

	clean, err := store.Run(cleanID)
	require.NoError(t, err)
	require.True(t, clean.Valid)
	require.Empty(t, clean.Failures)

	_, err = store.Run(9999)
	require.ErrorIs(t, err, ErrRunMissing)
}
