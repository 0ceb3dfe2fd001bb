package consent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/disclosure"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/esign"
)

type fakeStore struct {
	signer      esign.Signer
	signerErr   error
	consents    []esign.Consent
	events      []esign.AuditEvent
	createErr   error
	latestCalls int
}

func (f *fakeStore) GetSigner(ctx context.Context, contractID, signerID string) (esign.Signer, error) {
	if f.signerErr != nil {
		return esign.Signer{}, f.signerErr
	}
	return f.signer, nil
}

func (f *fakeStore) CreateConsent(ctx context.Context, c esign.Consent, ev esign.AuditEvent) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.consents = append(f.consents, c)
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeStore) LatestConsent(ctx context.Context, contractID, signerID string) (esign.Consent, error) {
	f.latestCalls++
	if len(f.consents) == 0 {
		return esign.Consent{}, esign.ErrNoRecord
	}
	return f.consents[len(f.consents)-1], nil
}

func allAcks(contractID, signerID string) RecordRequest {
	return RecordRequest{
		ContractID:                    contractID,
		SignerID:                      signerID,
		HardwareSoftwareAcknowledged:  true,
		PaperCopyRightAcknowledged:    true,
		ConsentWithdrawalAcknowledged: true,
		IP:                            "203.0.113.7",
		UserAgent:                     "test-agent/1.0",
	}
}

func TestRecordRequiresAllAcknowledgments(t *testing.T) {
	st := &fakeStore{signer: esign.Signer{SignerID: "sgn_1", ContractID: "ctr_1"}}
	ledger := NewLedger(st)

	req := allAcks("ctr_1", "sgn_1")
	req.PaperCopyRightAcknowledged = false
	_, err := ledger.Record(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, esign.KindValidation, esign.KindOf(err))
	assert.Empty(t, st.consents, "no consent row may be created on validation failure")
	assert.Empty(t, st.events)
}

func TestRecordStampsDisclosureAndEmitsEvent(t *testing.T) {
	st := &fakeStore{signer: esign.Signer{SignerID: "sgn_1", ContractID: "ctr_1"}}
	ledger := NewLedger(st)

	c, err := ledger.Record(context.Background(), allAcks("ctr_1", "sgn_1"))
	require.NoError(t, err)

	d := disclosure.Current()
	assert.Equal(t, d.Version, c.DisclosureVersion)
	assert.Equal(t, d.Hash, c.DisclosureHash)
	assert.NotEmpty(t, c.ConsentID)
	assert.WithinDuration(t, time.Now().UTC(), c.ConsentedAt, 5*time.Second)

	require.Len(t, st.events, 1)
	ev := st.events[0]
	assert.Equal(t, esign.EventConsentGiven, ev.EventType)
	assert.Equal(t, "sgn_1", ev.ActorID)
	assert.Equal(t, d.Version, ev.Detail["disclosure_version"])
	assert.Equal(t, true, ev.Detail["paper_copy_right_acknowledged"])
}

func TestRecordUnknownSigner(t *testing.T) {
	st := &fakeStore{signerErr: esign.ErrNoRecord}
	ledger := NewLedger(st)

	_, err := ledger.Record(context.Background(), allAcks("ctr_1", "sgn_missing"))
	require.Error(t, err)
	assert.Equal(t, esign.KindNotFound, esign.KindOf(err))
}

func TestReconsentAppends(t *testing.T) {
	st := &fakeStore{signer: esign.Signer{SignerID: "sgn_1", ContractID: "ctr_1"}}
	ledger := NewLedger(st)

	first, err := ledger.Record(context.Background(), allAcks("ctr_1", "sgn_1"))
	require.NoError(t, err)
	second, err := ledger.Record(context.Background(), allAcks("ctr_1", "sgn_1"))
	require.NoError(t, err)

	assert.NotEqual(t, first.ConsentID, second.ConsentID)
	assert.Len(t, st.consents, 2, "re-consent must append, never update")

	latest, ok, err := ledger.Latest(context.Background(), "ctr_1", "sgn_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, second.ConsentID, latest.ConsentID)
}

func TestLatestWithoutConsent(t *testing.T) {
	ledger := NewLedger(&fakeStore{})
	_, ok, err := ledger.Latest(context.Background(), "ctr_1", "sgn_1")
	require.NoError(t, err)
	assert.False(t, ok)
}
