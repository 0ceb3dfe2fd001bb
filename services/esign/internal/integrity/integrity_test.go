package integrity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MDx-Vision/nicehr-sub016/pkg/dochash"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/esign"
)

type fakeStore struct {
	contract esign.Contract
	missing  bool
	hashes   []esign.DocumentHash
}

func (f *fakeStore) GetContract(ctx context.Context, contractID string) (esign.Contract, error) {
	if f.missing {
		return esign.Contract{}, esign.ErrNoRecord
	}
	return f.contract, nil
}

func (f *fakeStore) ListDocumentHashes(ctx context.Context, contractID string) ([]esign.DocumentHash, error) {
	return f.hashes, nil
}

func signedHash(t *testing.T, content, sigID string) esign.DocumentHash {
	t.Helper()
	h, err := dochash.Sum(content)
	require.NoError(t, err)
	return esign.DocumentHash{
		SignatureID: sigID,
		HashValue:   h,
		Algorithm:   dochash.AlgorithmSHA256,
		ComputedAt:  time.Now().UTC(),
	}
}

func TestVerifyUnchangedContent(t *testing.T) {
	content := "Agreement body v1"
	st := &fakeStore{
		contract: esign.Contract{ContractID: "ctr_1", Content: content},
		hashes:   []esign.DocumentHash{signedHash(t, content, "sig_a"), signedHash(t, content, "sig_b")},
	}
	report, err := NewVerifier(st).Verify(context.Background(), "ctr_1")
	require.NoError(t, err)
	assert.True(t, report.Verified)
	assert.Len(t, report.Results, 2)
	for _, r := range report.Results {
		assert.True(t, r.Verified)
		assert.Equal(t, r.StoredHash, r.CurrentHash)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	st := &fakeStore{
		contract: esign.Contract{ContractID: "ctr_1", Content: "Agreement body v2 (edited)"},
		hashes:   []esign.DocumentHash{signedHash(t, "Agreement body v1", "sig_a")},
	}
	report, err := NewVerifier(st).Verify(context.Background(), "ctr_1")
	require.NoError(t, err)
	assert.False(t, report.Verified)
	assert.NotEmpty(t, report.Message)
	require.Len(t, report.Results, 1)
	assert.False(t, report.Results[0].Verified)
	assert.NotEqual(t, report.Results[0].StoredHash, report.Results[0].CurrentHash)
}

func TestVerifyNoSignatures(t *testing.T) {
	st := &fakeStore{contract: esign.Contract{ContractID: "ctr_1", Content: "unsigned draft"}}
	report, err := NewVerifier(st).Verify(context.Background(), "ctr_1")
	require.NoError(t, err)
	assert.False(t, report.Verified)
	assert.Contains(t, report.Message, "no signatures")
	assert.NotEmpty(t, report.CurrentHash)
	assert.Empty(t, report.Results)
}

func TestVerifyUnknownContract(t *testing.T) {
	_, err := NewVerifier(&fakeStore{missing: true}).Verify(context.Background(), "ctr_missing")
	require.Error(t, err)
	assert.Equal(t, esign.KindNotFound, esign.KindOf(err))
}
