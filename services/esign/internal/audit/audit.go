// Package audit is the single entry point for the append-only audit trail.
// Every state-changing operation in the engine produces exactly one event
// through this package, which is what makes the trail's coverage checkable.
package audit

import (
	"context"
	"time"

	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/esign"
)

type Store interface {
	AppendAuditEvent(ctx context.Context, ev esign.AuditEvent) error
	// ListAuditEvents returns events for a contract ordered strictly by
	// occurred_at; never by any other key.
	ListAuditEvents(ctx context.Context, contractID string, descending bool) ([]esign.AuditEvent, error)
	GetContract(ctx context.Context, contractID string) (esign.Contract, error)
	ListSigners(ctx context.Context, contractID string) ([]esign.Signer, error)
	ListConsents(ctx context.Context, contractID string) ([]esign.Consent, error)
	ListReviewSessions(ctx context.Context, contractID string) ([]esign.ReviewSession, error)
	ListDocumentHashes(ctx context.Context, contractID string) ([]esign.DocumentHash, error)
	ListCertificates(ctx context.Context, contractID string) ([]esign.Certificate, error)
}

type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder { return &Recorder{store: store} }

// Append records a single audit event. Events are immutable once written.
func (r *Recorder) Append(ctx context.Context, contractID, eventType, actorID string, detail map[string]any, ip, userAgent string) (esign.AuditEvent, error) {
	if contractID == "" {
		return esign.AuditEvent{}, esign.Validationf("contractId is required")
	}
	if eventType == "" {
		return esign.AuditEvent{}, esign.Validationf("eventType is required")
	}
	ev := esign.NewAuditEvent(contractID, eventType, actorID, detail, ip, userAgent)
	if err := r.store.AppendAuditEvent(ctx, ev); err != nil {
		return esign.AuditEvent{}, err
	}
	return ev, nil
}

func (r *Recorder) Events(ctx context.Context, contractID string, descending bool) ([]esign.AuditEvent, error) {
	return r.store.ListAuditEvents(ctx, contractID, descending)
}

// SignerEvidence pairs a signer with the protocol state derived from the
// recorded facts, so an auditor can see where each signer stopped.
type SignerEvidence struct {
	esign.Signer
	ProtocolState string `json:"protocol_state"`
}

// Trail is the canonical compliance export for one contract.
type Trail struct {
	ContractID   string                `json:"contract_id"`
	Signers      []SignerEvidence      `json:"signers"`
	Consents     []esign.Consent       `json:"consents"`
	Reviews      []esign.ReviewSession `json:"reviews"`
	Hashes       []esign.DocumentHash  `json:"document_hashes"`
	Certificates []esign.Certificate   `json:"certificates"`
	Events       []esign.AuditEvent    `json:"events"`
}

// AssembleTrail gathers every evidentiary artifact for a contract. Events
// are timestamp-ascending.
func (r *Recorder) AssembleTrail(ctx context.Context, contractID string) (Trail, error) {
	if _, err := r.store.GetContract(ctx, contractID); err != nil {
		if esign.KindOf(err) == esign.KindNotFound {
			return Trail{}, esign.NotFoundf("contract %s not found", contractID)
		}
		return Trail{}, err
	}

	trail := Trail{ContractID: contractID}
	var err error
	if trail.Consents, err = r.store.ListConsents(ctx, contractID); err != nil {
		return Trail{}, err
	}
	if trail.Reviews, err = r.store.ListReviewSessions(ctx, contractID); err != nil {
		return Trail{}, err
	}
	if trail.Hashes, err = r.store.ListDocumentHashes(ctx, contractID); err != nil {
		return Trail{}, err
	}
	if trail.Certificates, err = r.store.ListCertificates(ctx, contractID); err != nil {
		return Trail{}, err
	}
	if trail.Events, err = r.store.ListAuditEvents(ctx, contractID, false); err != nil {
		return Trail{}, err
	}

	signers, err := r.store.ListSigners(ctx, contractID)
	if err != nil {
		return Trail{}, err
	}
	for _, s := range signers {
		trail.Signers = append(trail.Signers, SignerEvidence{
			Signer:        s,
			ProtocolState: esign.ProtocolState(protocolFacts(s, trail)),
		})
	}
	return trail, nil
}

func protocolFacts(s esign.Signer, trail Trail) esign.ProtocolFacts {
	facts := esign.ProtocolFacts{Signed: s.Status == esign.SignerSigned}
	for _, c := range trail.Consents {
		if c.SignerID == s.SignerID && c.Valid() {
			facts.HasValidConsent = true
		}
	}
	for _, rs := range trail.Reviews {
		if rs.SignerID == s.SignerID {
			facts.ReviewStarted = true
			if rs.ReviewCompletedAt != nil {
				facts.ReviewCompleted = true
			}
		}
	}
	return facts
}

// Compliance is the summary block attached to the audit-trail export.
type Compliance struct {
	ESIGNActCompliant bool      `json:"esign_act_compliant"`
	UETACompliant     bool      `json:"ueta_compliant"`
	GeneratedAt       time.Time `json:"generated_at"`
}
