package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/esign"
)

// fakeStore applies the same monotonic-update semantics the SQL store uses.
type fakeStore struct {
	signers  map[string]esign.Signer
	sessions map[string]*esign.ReviewSession
	events   []esign.AuditEvent
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		signers: map[string]esign.Signer{
			key("ctr_1", "sgn_1"): {SignerID: "sgn_1", ContractID: "ctr_1", Name: "Jane Doe", Status: esign.SignerPending},
		},
		sessions: map[string]*esign.ReviewSession{},
	}
}

func key(contractID, signerID string) string { return contractID + "/" + signerID }

func (f *fakeStore) GetSigner(ctx context.Context, contractID, signerID string) (esign.Signer, error) {
	s, ok := f.signers[key(contractID, signerID)]
	if !ok {
		return esign.Signer{}, esign.ErrNoRecord
	}
	return s, nil
}

func (f *fakeStore) GetReviewSession(ctx context.Context, contractID, signerID string) (esign.ReviewSession, error) {
	s, ok := f.sessions[key(contractID, signerID)]
	if !ok {
		return esign.ReviewSession{}, esign.ErrNoRecord
	}
	return *s, nil
}

func (f *fakeStore) CreateReviewSession(ctx context.Context, s esign.ReviewSession, ev esign.AuditEvent) error {
	cp := s
	f.sessions[key(s.ContractID, s.SignerID)] = &cp
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeStore) RestartReviewSession(ctx context.Context, contractID, signerID string, startedAt time.Time, ev esign.AuditEvent) (esign.ReviewSession, error) {
	s, ok := f.sessions[key(contractID, signerID)]
	if !ok {
		return esign.ReviewSession{}, esign.ErrNoRecord
	}
	s.PageViewCount++
	s.ReviewStartedAt = startedAt
	f.events = append(f.events, ev)
	return *s, nil
}

func (f *fakeStore) UpdateReviewProgress(ctx context.Context, contractID, signerID string, scrollPercentage *int, scrolledToBottom *bool, ev esign.AuditEvent) error {
	s, ok := f.sessions[key(contractID, signerID)]
	if !ok {
		return esign.ErrNoRecord
	}
	if scrollPercentage != nil && *scrollPercentage > s.MaxScrollPercentage {
		s.MaxScrollPercentage = *scrollPercentage
	}
	if scrolledToBottom != nil && *scrolledToBottom {
		s.ScrolledToBottom = true
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeStore) SetReviewCompleted(ctx context.Context, contractID, signerID string, completedAt time.Time, durationSeconds int64, ev esign.AuditEvent) (esign.ReviewSession, error) {
	s, ok := f.sessions[key(contractID, signerID)]
	if !ok {
		return esign.ReviewSession{}, esign.ErrNoRecord
	}
	s.ReviewCompletedAt = &completedAt
	s.ReviewDurationSeconds = &durationSeconds
	f.events = append(f.events, ev)
	return *s, nil
}

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }

func TestStartCreatesThenBumps(t *testing.T) {
	st := newFakeStore()
	tr := NewTracker(st)

	first, err := tr.Start(context.Background(), "ctr_1", "sgn_1", "ip", "ua")
	require.NoError(t, err)
	assert.Equal(t, 1, first.PageViewCount)
	assert.False(t, first.DocumentPresentedAt.IsZero())
	assert.Equal(t, first.DocumentPresentedAt, first.ReviewStartedAt)

	second, err := tr.Start(context.Background(), "ctr_1", "sgn_1", "ip", "ua")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, 2, second.PageViewCount)
	assert.False(t, second.ReviewStartedAt.Before(first.ReviewStartedAt))

	require.Len(t, st.events, 2)
	assert.Equal(t, esign.EventReviewStarted, st.events[0].EventType)
	assert.Equal(t, false, st.events[0].Detail["revisit"])
	assert.Equal(t, true, st.events[1].Detail["revisit"])
}

func TestUpdateProgressMonotonicUnderOutOfOrderDelivery(t *testing.T) {
	st := newFakeStore()
	tr := NewTracker(st)
	_, err := tr.Start(context.Background(), "ctr_1", "sgn_1", "ip", "ua")
	require.NoError(t, err)

	for _, pct := range []int{30, 10, 50} {
		require.NoError(t, tr.UpdateProgress(context.Background(), "ctr_1", "sgn_1", intp(pct), nil, "ip", "ua"))
	}
	s, ok, err := tr.Session(context.Background(), "ctr_1", "sgn_1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 50, s.MaxScrollPercentage)
}

func TestScrolledToBottomIsOneWay(t *testing.T) {
	st := newFakeStore()
	tr := NewTracker(st)
	_, err := tr.Start(context.Background(), "ctr_1", "sgn_1", "ip", "ua")
	require.NoError(t, err)

	require.NoError(t, tr.UpdateProgress(context.Background(), "ctr_1", "sgn_1", nil, boolp(true), "ip", "ua"))
	require.NoError(t, tr.UpdateProgress(context.Background(), "ctr_1", "sgn_1", nil, boolp(false), "ip", "ua"))

	s, _, err := tr.Session(context.Background(), "ctr_1", "sgn_1")
	require.NoError(t, err)
	assert.True(t, s.ScrolledToBottom)
}

func TestStartUnknownSignerNotFound(t *testing.T) {
	st := newFakeStore()
	tr := NewTracker(st)

	_, err := tr.Start(context.Background(), "ctr_1", "sgn_ghost", "ip", "ua")
	require.Error(t, err)
	assert.Equal(t, esign.KindNotFound, esign.KindOf(err))
	assert.Empty(t, st.sessions, "no session may be created for an unknown signer")
	assert.Empty(t, st.events)
}

func TestUpdateProgressWithoutSession(t *testing.T) {
	tr := NewTracker(newFakeStore())
	err := tr.UpdateProgress(context.Background(), "ctr_1", "sgn_1", intp(10), nil, "ip", "ua")
	require.Error(t, err)
	assert.Equal(t, esign.KindNotFound, esign.KindOf(err))
}

func TestUpdateProgressRejectsOutOfRange(t *testing.T) {
	tr := NewTracker(newFakeStore())
	err := tr.UpdateProgress(context.Background(), "ctr_1", "sgn_1", intp(140), nil, "ip", "ua")
	require.Error(t, err)
	assert.Equal(t, esign.KindValidation, esign.KindOf(err))
}

func TestCompleteStoresFlooredDuration(t *testing.T) {
	st := newFakeStore()
	tr := NewTracker(st)
	_, err := tr.Start(context.Background(), "ctr_1", "sgn_1", "ip", "ua")
	require.NoError(t, err)

	// Backdate the start so the duration is deterministic.
	s := st.sessions[key("ctr_1", "sgn_1")]
	s.ReviewStartedAt = time.Now().UTC().Add(-90*time.Second - 700*time.Millisecond)

	done, err := tr.Complete(context.Background(), "ctr_1", "sgn_1", "ip", "ua")
	require.NoError(t, err)
	require.NotNil(t, done.ReviewCompletedAt)
	require.NotNil(t, done.ReviewDurationSeconds)
	assert.GreaterOrEqual(t, *done.ReviewDurationSeconds, int64(90))
	assert.Less(t, *done.ReviewDurationSeconds, int64(92))
}
