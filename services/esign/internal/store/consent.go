package store

import (
	"context"

	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/esign"
)

// CreateConsent appends the consent row and its audit event in one
// transaction so the trail can never miss a recorded consent.
func (s *Store) CreateConsent(ctx context.Context, c esign.Consent, ev esign.AuditEvent) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO esign_consents(
consent_id,contract_id,signer_id,hardware_software_ack,paper_copy_ack,withdrawal_ack,
disclosure_version,disclosure_hash,consented_at,ip_address,user_agent)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		c.ConsentID, c.ContractID, c.SignerID,
		c.HardwareSoftwareAcknowledged, c.PaperCopyRightAcknowledged, c.ConsentWithdrawalAcknowledged,
		c.DisclosureVersion, c.DisclosureHash, c.ConsentedAt, c.IP, c.UserAgent)
	if err != nil {
		return err
	}
	if err := insertAuditEvent(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) LatestConsent(ctx context.Context, contractID, signerID string) (esign.Consent, error) {
	var c esign.Consent
	err := s.DB.QueryRow(ctx, `SELECT consent_id,contract_id,signer_id,
hardware_software_ack,paper_copy_ack,withdrawal_ack,
disclosure_version,disclosure_hash,consented_at,ip_address,user_agent
FROM esign_consents WHERE contract_id=$1 AND signer_id=$2
ORDER BY consented_at DESC LIMIT 1`, contractID, signerID).
		Scan(&c.ConsentID, &c.ContractID, &c.SignerID,
			&c.HardwareSoftwareAcknowledged, &c.PaperCopyRightAcknowledged, &c.ConsentWithdrawalAcknowledged,
			&c.DisclosureVersion, &c.DisclosureHash, &c.ConsentedAt, &c.IP, &c.UserAgent)
	return c, noRows(err)
}

func (s *Store) ListConsents(ctx context.Context, contractID string) ([]esign.Consent, error) {
	rows, err := s.DB.Query(ctx, `SELECT consent_id,contract_id,signer_id,
hardware_software_ack,paper_copy_ack,withdrawal_ack,
disclosure_version,disclosure_hash,consented_at,ip_address,user_agent
FROM esign_consents WHERE contract_id=$1 ORDER BY consented_at ASC`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []esign.Consent
	for rows.Next() {
		var c esign.Consent
		if err := rows.Scan(&c.ConsentID, &c.ContractID, &c.SignerID,
			&c.HardwareSoftwareAcknowledged, &c.PaperCopyRightAcknowledged, &c.ConsentWithdrawalAcknowledged,
			&c.DisclosureVersion, &c.DisclosureHash, &c.ConsentedAt, &c.IP, &c.UserAgent); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
