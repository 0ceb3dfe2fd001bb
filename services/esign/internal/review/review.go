// Package review records document-review engagement per signer. It records
// facts only; whether the recorded engagement is sufficient to sign is the
// signing coordinator's policy decision.
package review

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/esign"
)

type Store interface {
	GetSigner(ctx context.Context, contractID, signerID string) (esign.Signer, error)
	GetReviewSession(ctx context.Context, contractID, signerID string) (esign.ReviewSession, error)
	CreateReviewSession(ctx context.Context, s esign.ReviewSession, ev esign.AuditEvent) error
	// RestartReviewSession bumps page_view_count and resets review_started_at.
	RestartReviewSession(ctx context.Context, contractID, signerID string, startedAt time.Time, ev esign.AuditEvent) (esign.ReviewSession, error)
	// UpdateReviewProgress applies max(current, incoming) to the scroll
	// percentage and a one-way flip to scrolled_to_bottom.
	UpdateReviewProgress(ctx context.Context, contractID, signerID string, scrollPercentage *int, scrolledToBottom *bool, ev esign.AuditEvent) error
	SetReviewCompleted(ctx context.Context, contractID, signerID string, completedAt time.Time, durationSeconds int64, ev esign.AuditEvent) (esign.ReviewSession, error)
}

type Tracker struct {
	store Store
}

func NewTracker(store Store) *Tracker { return &Tracker{store: store} }

// Start creates the signer's review session, or on a repeat visit increments
// the page-view count and resets the review start time.
func (t *Tracker) Start(ctx context.Context, contractID, signerID, ip, userAgent string) (esign.ReviewSession, error) {
	if signerID == "" {
		return esign.ReviewSession{}, esign.Validationf("signerId is required")
	}
	if _, err := t.store.GetSigner(ctx, contractID, signerID); err != nil {
		if esign.KindOf(err) == esign.KindNotFound {
			return esign.ReviewSession{}, esign.NotFoundf("signer %s not found on contract %s", signerID, contractID)
		}
		return esign.ReviewSession{}, err
	}

	now := time.Now().UTC()
	existing, err := t.store.GetReviewSession(ctx, contractID, signerID)
	if err == nil {
		ev := esign.NewAuditEvent(contractID, esign.EventReviewStarted, signerID, map[string]any{
			"tracking_id":     existing.SessionID,
			"page_view_count": existing.PageViewCount + 1,
			"revisit":         true,
		}, ip, userAgent)
		return t.store.RestartReviewSession(ctx, contractID, signerID, now, ev)
	}
	if esign.KindOf(err) != esign.KindNotFound {
		return esign.ReviewSession{}, err
	}

	s := esign.ReviewSession{
		SessionID:           "rev_" + uuid.NewString(),
		SignerID:            signerID,
		ContractID:          contractID,
		DocumentPresentedAt: now,
		ReviewStartedAt:     now,
		PageViewCount:       1,
	}
	ev := esign.NewAuditEvent(contractID, esign.EventReviewStarted, signerID, map[string]any{
		"tracking_id":     s.SessionID,
		"page_view_count": 1,
		"revisit":         false,
	}, ip, userAgent)
	if err := t.store.CreateReviewSession(ctx, s, ev); err != nil {
		return esign.ReviewSession{}, err
	}
	return s, nil
}

// UpdateProgress records scroll progress. The stored scroll percentage is
// monotonically non-decreasing and scrolled_to_bottom never flips back, so
// duplicate or out-of-order delivery cannot regress the evidence.
func (t *Tracker) UpdateProgress(ctx context.Context, contractID, signerID string, scrollPercentage *int, scrolledToBottom *bool, ip, userAgent string) error {
	if signerID == "" {
		return esign.Validationf("signerId is required")
	}
	if scrollPercentage != nil && (*scrollPercentage < 0 || *scrollPercentage > 100) {
		return esign.Validationf("scrollPercentage must be between 0 and 100")
	}

	detail := map[string]any{}
	if scrollPercentage != nil {
		detail["scroll_percentage"] = *scrollPercentage
	}
	if scrolledToBottom != nil {
		detail["scrolled_to_bottom"] = *scrolledToBottom
	}
	ev := esign.NewAuditEvent(contractID, esign.EventReviewProgress, signerID, detail, ip, userAgent)

	err := t.store.UpdateReviewProgress(ctx, contractID, signerID, scrollPercentage, scrolledToBottom, ev)
	if err != nil && esign.KindOf(err) == esign.KindNotFound {
		return esign.NotFoundf("no review session for signer %s on contract %s", signerID, contractID)
	}
	return err
}

// Complete marks the review finished and stores the floored whole-second
// duration since the review started.
func (t *Tracker) Complete(ctx context.Context, contractID, signerID, ip, userAgent string) (esign.ReviewSession, error) {
	s, err := t.store.GetReviewSession(ctx, contractID, signerID)
	if err != nil {
		if esign.KindOf(err) == esign.KindNotFound {
			return esign.ReviewSession{}, esign.NotFoundf("no review session for signer %s on contract %s", signerID, contractID)
		}
		return esign.ReviewSession{}, err
	}

	now := time.Now().UTC()
	duration := int64(now.Sub(s.ReviewStartedAt).Seconds())
	if duration < 0 {
		duration = 0
	}
	ev := esign.NewAuditEvent(contractID, esign.EventReviewCompleted, signerID, map[string]any{
		"tracking_id":             s.SessionID,
		"review_duration_seconds": duration,
		"max_scroll_percentage":   s.MaxScrollPercentage,
		"scrolled_to_bottom":      s.ScrolledToBottom,
	}, ip, userAgent)
	return t.store.SetReviewCompleted(ctx, contractID, signerID, now, duration, ev)
}

// Session returns the signer's review session, with ok=false if none exists.
func (t *Tracker) Session(ctx context.Context, contractID, signerID string) (esign.ReviewSession, bool, error) {
	s, err := t.store.GetReviewSession(ctx, contractID, signerID)
	if err != nil {
		if esign.KindOf(err) == esign.KindNotFound {
			return esign.ReviewSession{}, false, nil
		}
		return esign.ReviewSession{}, false, err
	}
	return s, true, nil
}
