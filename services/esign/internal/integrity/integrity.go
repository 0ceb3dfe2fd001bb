// Package integrity detects post-signing tampering by recomputing the
// document hash and comparing it against every hash stored at signing time.
package integrity

import (
	"context"
	"time"

	"github.com/MDx-Vision/nicehr-sub016/pkg/dochash"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/esign"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/metrics"
)

type Store interface {
	GetContract(ctx context.Context, contractID string) (esign.Contract, error)
	ListDocumentHashes(ctx context.Context, contractID string) ([]esign.DocumentHash, error)
}

type Verifier struct {
	store Store
}

func NewVerifier(store Store) *Verifier { return &Verifier{store: store} }

type Report struct {
	ContractID  string                     `json:"contract_id"`
	Verified    bool                       `json:"verified"`
	Message     string                     `json:"message,omitempty"`
	CurrentHash string                     `json:"current_hash"`
	Results     []esign.VerificationResult `json:"verification_results"`
	CheckedAt   time.Time                  `json:"checked_at"`
}

// Verify recomputes the contract's content hash and compares it against all
// stored signing-time hashes. Read-only; safe to call arbitrarily often.
// Tampering is reported in the result payload, never raised as an error,
// because the caller needs the comparison detail.
func (v *Verifier) Verify(ctx context.Context, contractID string) (Report, error) {
	contract, err := v.store.GetContract(ctx, contractID)
	if err != nil {
		if esign.KindOf(err) == esign.KindNotFound {
			return Report{}, esign.NotFoundf("contract %s not found", contractID)
		}
		return Report{}, err
	}

	currentHash, err := dochash.Sum(contract.Content)
	if err != nil {
		return Report{}, esign.Validationf("contract %s has no content to verify", contractID)
	}

	stored, err := v.store.ListDocumentHashes(ctx, contractID)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		ContractID:  contractID,
		CurrentHash: currentHash,
		Results:     []esign.VerificationResult{},
		CheckedAt:   time.Now().UTC(),
	}
	if len(stored) == 0 {
		report.Verified = false
		report.Message = "no signatures exist for this contract; nothing to verify"
		metrics.IntegrityChecks.WithLabelValues("empty").Inc()
		return report, nil
	}

	report.Verified = true
	for _, h := range stored {
		match := h.HashValue == currentHash
		if !match {
			report.Verified = false
		}
		report.Results = append(report.Results, esign.VerificationResult{
			SignatureID: h.SignatureID,
			StoredHash:  h.HashValue,
			CurrentHash: currentHash,
			Verified:    match,
			ComputedAt:  h.ComputedAt,
		})
	}
	if report.Verified {
		metrics.IntegrityChecks.WithLabelValues("verified").Inc()
	} else {
		report.Message = "document content has changed since signing"
		metrics.IntegrityChecks.WithLabelValues("tampered").Inc()
	}
	return report, nil
}
