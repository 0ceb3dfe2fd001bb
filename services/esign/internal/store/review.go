package store

import (
	"context"
	"time"

	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/esign"
)

func scanReviewSession(row interface{ Scan(...any) error }) (esign.ReviewSession, error) {
	var rs esign.ReviewSession
	err := row.Scan(&rs.SessionID, &rs.ContractID, &rs.SignerID,
		&rs.DocumentPresentedAt, &rs.ReviewStartedAt, &rs.ReviewCompletedAt,
		&rs.MaxScrollPercentage, &rs.ScrolledToBottom, &rs.PageViewCount, &rs.ReviewDurationSeconds)
	return rs, err
}

const reviewSessionColumns = `session_id,contract_id,signer_id,document_presented_at,review_started_at,
review_completed_at,max_scroll_percentage,scrolled_to_bottom,page_view_count,review_duration_seconds`

func (s *Store) GetReviewSession(ctx context.Context, contractID, signerID string) (esign.ReviewSession, error) {
	rs, err := scanReviewSession(s.DB.QueryRow(ctx, `SELECT `+reviewSessionColumns+`
FROM review_sessions WHERE contract_id=$1 AND signer_id=$2`, contractID, signerID))
	return rs, noRows(err)
}

func (s *Store) CreateReviewSession(ctx context.Context, rs esign.ReviewSession, ev esign.AuditEvent) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO review_sessions(
session_id,contract_id,signer_id,document_presented_at,review_started_at,
max_scroll_percentage,scrolled_to_bottom,page_view_count)
VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		rs.SessionID, rs.ContractID, rs.SignerID, rs.DocumentPresentedAt, rs.ReviewStartedAt,
		rs.MaxScrollPercentage, rs.ScrolledToBottom, rs.PageViewCount)
	if err != nil {
		return err
	}
	if err := insertAuditEvent(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) RestartReviewSession(ctx context.Context, contractID, signerID string, startedAt time.Time, ev esign.AuditEvent) (esign.ReviewSession, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return esign.ReviewSession{}, err
	}
	defer tx.Rollback(ctx)

	rs, err := scanReviewSession(tx.QueryRow(ctx, `UPDATE review_sessions
SET page_view_count=page_view_count+1, review_started_at=$3
WHERE contract_id=$1 AND signer_id=$2
RETURNING `+reviewSessionColumns, contractID, signerID, startedAt))
	if err != nil {
		return esign.ReviewSession{}, noRows(err)
	}
	if err := insertAuditEvent(ctx, tx, ev); err != nil {
		return esign.ReviewSession{}, err
	}
	return rs, tx.Commit(ctx)
}

// UpdateReviewProgress applies the monotonic-max update so duplicate or
// out-of-order delivery cannot regress the recorded progress.
func (s *Store) UpdateReviewProgress(ctx context.Context, contractID, signerID string, scrollPercentage *int, scrolledToBottom *bool, ev esign.AuditEvent) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE review_sessions
SET max_scroll_percentage=GREATEST(max_scroll_percentage, COALESCE($3, max_scroll_percentage)),
    scrolled_to_bottom=scrolled_to_bottom OR COALESCE($4, false)
WHERE contract_id=$1 AND signer_id=$2`, contractID, signerID, scrollPercentage, scrolledToBottom)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return esign.ErrNoRecord
	}
	if err := insertAuditEvent(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) SetReviewCompleted(ctx context.Context, contractID, signerID string, completedAt time.Time, durationSeconds int64, ev esign.AuditEvent) (esign.ReviewSession, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return esign.ReviewSession{}, err
	}
	defer tx.Rollback(ctx)

	rs, err := scanReviewSession(tx.QueryRow(ctx, `UPDATE review_sessions
SET review_completed_at=$3, review_duration_seconds=$4
WHERE contract_id=$1 AND signer_id=$2
RETURNING `+reviewSessionColumns, contractID, signerID, completedAt, durationSeconds))
	if err != nil {
		return esign.ReviewSession{}, noRows(err)
	}
	if err := insertAuditEvent(ctx, tx, ev); err != nil {
		return esign.ReviewSession{}, err
	}
	return rs, tx.Commit(ctx)
}

func (s *Store) ListReviewSessions(ctx context.Context, contractID string) ([]esign.ReviewSession, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+reviewSessionColumns+`
FROM review_sessions WHERE contract_id=$1 ORDER BY document_presented_at ASC`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []esign.ReviewSession
	for rows.Next() {
		rs, err := scanReviewSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}
