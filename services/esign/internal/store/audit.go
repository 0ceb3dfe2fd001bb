package store

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/esign"
)

func insertAuditEvent(ctx context.Context, tx pgx.Tx, ev esign.AuditEvent) error {
	detail, err := json.Marshal(ev.Detail)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO esign_audit_events(
event_id,contract_id,event_type,actor_id,detail,ip_address,user_agent,occurred_at)
VALUES($1,$2,$3,$4,$5::jsonb,$6,$7,$8)`,
		ev.EventID, ev.ContractID, ev.EventType, ev.ActorID, string(detail), ev.IP, ev.UserAgent, ev.OccurredAt)
	return err
}

func (s *Store) AppendAuditEvent(ctx context.Context, ev esign.AuditEvent) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := insertAuditEvent(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListAuditEvents orders strictly by occurred_at; audit retrieval is never
// ordered by any other key.
func (s *Store) ListAuditEvents(ctx context.Context, contractID string, descending bool) ([]esign.AuditEvent, error) {
	order := "ASC"
	if descending {
		order = "DESC"
	}
	rows, err := s.DB.Query(ctx, `SELECT event_id,contract_id,event_type,actor_id,detail,ip_address,user_agent,occurred_at
FROM esign_audit_events WHERE contract_id=$1 ORDER BY occurred_at `+order, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []esign.AuditEvent
	for rows.Next() {
		var ev esign.AuditEvent
		var detail []byte
		if err := rows.Scan(&ev.EventID, &ev.ContractID, &ev.EventType, &ev.ActorID, &detail, &ev.IP, &ev.UserAgent, &ev.OccurredAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(detail, &ev.Detail)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) ListDocumentHashes(ctx context.Context, contractID string) ([]esign.DocumentHash, error) {
	rows, err := s.DB.Query(ctx, `SELECT hash_id,signature_id,contract_id,hash_value,algorithm,document_version,content_type,computed_at
FROM document_hashes WHERE contract_id=$1 ORDER BY computed_at ASC`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []esign.DocumentHash
	for rows.Next() {
		var h esign.DocumentHash
		if err := rows.Scan(&h.HashID, &h.SignatureID, &h.ContractID, &h.HashValue, &h.Algorithm, &h.DocumentVersion, &h.ContentType, &h.ComputedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

const certificateColumns = `certificate_number,signature_id,contract_id,signer_name,signer_email,
document_title,document_hash,hash_algorithm,signed_at,signer_ip,signer_user_agent,
evidence,esign_act_compliant,ueta_compliant,issued_at`

func scanCertificate(row interface{ Scan(...any) error }) (esign.Certificate, error) {
	var c esign.Certificate
	var evidence []byte
	err := row.Scan(&c.CertificateNumber, &c.SignatureID, &c.ContractID, &c.SignerName, &c.SignerEmail,
		&c.DocumentTitle, &c.DocumentHash, &c.HashAlgorithm, &c.SignedAt, &c.SignerIP, &c.SignerUserAgent,
		&evidence, &c.ESIGNActCompliant, &c.UETACompliant, &c.IssuedAt)
	if err != nil {
		return esign.Certificate{}, err
	}
	_ = json.Unmarshal(evidence, &c.Evidence)
	return c, nil
}

func (s *Store) GetCertificate(ctx context.Context, contractID, signatureID string) (esign.Certificate, error) {
	c, err := scanCertificate(s.DB.QueryRow(ctx, `SELECT `+certificateColumns+`
FROM signature_certificates WHERE contract_id=$1 AND signature_id=$2`, contractID, signatureID))
	return c, noRows(err)
}

func (s *Store) ListCertificates(ctx context.Context, contractID string) ([]esign.Certificate, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+certificateColumns+`
FROM signature_certificates WHERE contract_id=$1 ORDER BY issued_at ASC`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []esign.Certificate
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
