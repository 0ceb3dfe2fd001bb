// Package consent records ESIGN disclosure consent. Consent rows are
// append-only: a signer re-consenting inserts a new row so the full consent
// history stays queryable as evidence.
package consent

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/disclosure"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/esign"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/metrics"
)

type Store interface {
	GetSigner(ctx context.Context, contractID, signerID string) (esign.Signer, error)
	// CreateConsent inserts the consent row and its audit event in one
	// transaction.
	CreateConsent(ctx context.Context, c esign.Consent, ev esign.AuditEvent) error
	LatestConsent(ctx context.Context, contractID, signerID string) (esign.Consent, error)
}

type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger { return &Ledger{store: store} }

type RecordRequest struct {
	ContractID                    string
	SignerID                      string
	HardwareSoftwareAcknowledged  bool
	PaperCopyRightAcknowledged    bool
	ConsentWithdrawalAcknowledged bool
	IP                            string
	UserAgent                     string
}

// Record validates the three required acknowledgments and appends a consent
// row stamped with the current disclosure version and disclosure-text hash.
func (l *Ledger) Record(ctx context.Context, req RecordRequest) (esign.Consent, error) {
	var missing []string
	if !req.HardwareSoftwareAcknowledged {
		missing = append(missing, "hardwareSoftwareAcknowledged")
	}
	if !req.PaperCopyRightAcknowledged {
		missing = append(missing, "paperCopyRightAcknowledged")
	}
	if !req.ConsentWithdrawalAcknowledged {
		missing = append(missing, "consentWithdrawalAcknowledged")
	}
	if len(missing) > 0 {
		e := esign.Validationf("all ESIGN disclosure acknowledgments must be accepted")
		e.Details = missing
		return esign.Consent{}, e
	}
	if req.SignerID == "" {
		return esign.Consent{}, esign.Validationf("signerId is required")
	}

	if _, err := l.store.GetSigner(ctx, req.ContractID, req.SignerID); err != nil {
		if esign.KindOf(err) == esign.KindNotFound {
			return esign.Consent{}, esign.NotFoundf("signer %s not found on contract %s", req.SignerID, req.ContractID)
		}
		return esign.Consent{}, err
	}

	d := disclosure.Current()
	c := esign.Consent{
		ConsentID:                     "cons_" + uuid.NewString(),
		SignerID:                      req.SignerID,
		ContractID:                    req.ContractID,
		HardwareSoftwareAcknowledged:  req.HardwareSoftwareAcknowledged,
		PaperCopyRightAcknowledged:    req.PaperCopyRightAcknowledged,
		ConsentWithdrawalAcknowledged: req.ConsentWithdrawalAcknowledged,
		DisclosureVersion:             d.Version,
		DisclosureHash:                d.Hash,
		ConsentedAt:                   time.Now().UTC(),
		IP:                            req.IP,
		UserAgent:                     req.UserAgent,
	}

	ev := esign.NewAuditEvent(req.ContractID, esign.EventConsentGiven, req.SignerID, map[string]any{
		"consent_id":                      c.ConsentID,
		"disclosure_version":              c.DisclosureVersion,
		"hardware_software_acknowledged":  c.HardwareSoftwareAcknowledged,
		"paper_copy_right_acknowledged":   c.PaperCopyRightAcknowledged,
		"consent_withdrawal_acknowledged": c.ConsentWithdrawalAcknowledged,
	}, req.IP, req.UserAgent)

	if err := l.store.CreateConsent(ctx, c, ev); err != nil {
		return esign.Consent{}, err
	}
	metrics.ConsentsRecorded.Inc()
	return c, nil
}

// Latest returns the most recent consent by timestamp, or ok=false if the
// signer has never consented.
func (l *Ledger) Latest(ctx context.Context, contractID, signerID string) (esign.Consent, bool, error) {
	c, err := l.store.LatestConsent(ctx, contractID, signerID)
	if err != nil {
		if esign.KindOf(err) == esign.KindNotFound {
			return esign.Consent{}, false, nil
		}
		return esign.Consent{}, false, err
	}
	return c, true, nil
}
