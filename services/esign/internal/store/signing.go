package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/esign"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/signing"
)

// PersistSignature writes the whole bundle in one transaction. The contract
// row is locked FOR UPDATE first so concurrent signers serialize on the
// aggregate status recount; the signatures unique constraint is the backstop
// for the same signer racing themselves.
func (s *Store) PersistSignature(ctx context.Context, b signing.Bundle) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var currentStatus string
	err = tx.QueryRow(ctx, `SELECT status FROM contracts WHERE contract_id=$1 FOR UPDATE`,
		b.Signature.ContractID).Scan(&currentStatus)
	if err != nil {
		return "", noRows(err)
	}

	var insertedID string
	err = tx.QueryRow(ctx, `INSERT INTO signatures(
signature_id,contract_id,signer_id,signature_data,signed_at,ip_address,user_agent)
VALUES($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (contract_id,signer_id) DO NOTHING
RETURNING signature_id`,
		b.Signature.SignatureID, b.Signature.ContractID, b.Signature.SignerID,
		b.Signature.SignatureData, b.Signature.SignedAt, b.Signature.IP, b.Signature.UserAgent).
		Scan(&insertedID)
	if err != nil {
		if errors.Is(noRows(err), esign.ErrNoRecord) {
			return "", signing.ErrAlreadySigned
		}
		return "", err
	}

	_, err = tx.Exec(ctx, `INSERT INTO document_hashes(
hash_id,signature_id,contract_id,hash_value,algorithm,document_version,content_type,computed_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		b.DocumentHash.HashID, b.DocumentHash.SignatureID, b.DocumentHash.ContractID,
		b.DocumentHash.HashValue, b.DocumentHash.Algorithm, b.DocumentHash.DocumentVersion,
		b.DocumentHash.ContentType, b.DocumentHash.ComputedAt)
	if err != nil {
		return "", err
	}

	_, err = tx.Exec(ctx, `INSERT INTO intent_confirmations(
confirmation_id,signature_id,intent_confirmed,intent_statement,typed_name,expected_name,typed_name_match,confirmed_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		b.Intent.ConfirmationID, b.Intent.SignatureID, b.Intent.IntentConfirmed,
		b.Intent.IntentStatement, b.Intent.TypedName, b.Intent.ExpectedName,
		b.Intent.TypedNameMatch, b.Intent.ConfirmedAt)
	if err != nil {
		return "", err
	}

	evidence, err := json.Marshal(b.Certificate.Evidence)
	if err != nil {
		return "", err
	}
	_, err = tx.Exec(ctx, `INSERT INTO signature_certificates(`+certificateColumns+`)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12::jsonb,$13,$14,$15)`,
		b.Certificate.CertificateNumber, b.Certificate.SignatureID, b.Certificate.ContractID,
		b.Certificate.SignerName, b.Certificate.SignerEmail, b.Certificate.DocumentTitle,
		b.Certificate.DocumentHash, b.Certificate.HashAlgorithm, b.Certificate.SignedAt,
		b.Certificate.SignerIP, b.Certificate.SignerUserAgent, string(evidence),
		b.Certificate.ESIGNActCompliant, b.Certificate.UETACompliant, b.Certificate.IssuedAt)
	if err != nil {
		return "", err
	}

	if f := b.ReviewFinalization; f != nil {
		_, err = tx.Exec(ctx, `UPDATE review_sessions SET review_duration_seconds=$2
WHERE session_id=$1 AND review_duration_seconds IS NULL`, f.SessionID, f.DurationSeconds)
		if err != nil {
			return "", err
		}
	}

	_, err = tx.Exec(ctx, `UPDATE contract_signers SET status=$3
WHERE contract_id=$1 AND signer_id=$2`,
		b.Signature.ContractID, b.Signature.SignerID, esign.SignerSigned)
	if err != nil {
		return "", err
	}

	var total, signed int
	err = tx.QueryRow(ctx, `SELECT count(*), count(*) FILTER (WHERE status=$2)
FROM contract_signers WHERE contract_id=$1`,
		b.Signature.ContractID, esign.SignerSigned).Scan(&total, &signed)
	if err != nil {
		return "", err
	}
	status := esign.ContractPartiallySigned
	if signed == total {
		status = esign.ContractCompleted
	}
	_, err = tx.Exec(ctx, `UPDATE contracts SET status=$2 WHERE contract_id=$1`,
		b.Signature.ContractID, status)
	if err != nil {
		return "", err
	}

	if err := insertAuditEvent(ctx, tx, b.AuditEvent); err != nil {
		return "", err
	}
	return status, tx.Commit(ctx)
}
