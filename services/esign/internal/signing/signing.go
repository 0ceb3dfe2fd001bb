// Package signing orchestrates the terminal step of the esign protocol. The
// Coordinator is the only component allowed to write Signature rows, flip
// Signer status, or recompute the Contract aggregate status.
package signing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/MDx-Vision/nicehr-sub016/pkg/dochash"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/certificate"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/esign"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/intent"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/log"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/metrics"
)

// ErrAlreadySigned is returned by stores when the signatures unique
// constraint on (contract_id, signer_id) rejects a second signature.
var ErrAlreadySigned = errors.New("signer has already signed")

// DocumentVersion labels the content revision a hash was computed over.
// Contract content is immutable from this engine's perspective, so a single
// version label is sufficient.
const DocumentVersion = "1.0"

const contentType = "text/plain"

type Store interface {
	GetContract(ctx context.Context, contractID string) (esign.Contract, error)
	GetSigner(ctx context.Context, contractID, signerID string) (esign.Signer, error)
	LatestConsent(ctx context.Context, contractID, signerID string) (esign.Consent, error)
	GetReviewSession(ctx context.Context, contractID, signerID string) (esign.ReviewSession, error)
	// PersistSignature writes the entire bundle in one transaction: the
	// signature, document hash, intent confirmation, certificate, review
	// finalization, signer status flip, contract aggregate status, and the
	// document_signed audit event. It re-reads all signer statuses under a
	// row lock on the contract before deciding the aggregate status, and
	// returns ErrAlreadySigned if the signer already has a signature.
	PersistSignature(ctx context.Context, b Bundle) (contractStatus string, err error)
}

// Bundle is everything a successful sign operation persists atomically. A
// partial write (a Signature without its Certificate or AuditEvent) is a
// correctness violation, not a performance concern.
type Bundle struct {
	Signature          esign.Signature
	DocumentHash       esign.DocumentHash
	Intent             esign.IntentConfirmation
	Certificate        esign.Certificate
	ReviewFinalization *ReviewFinalization
	AuditEvent         esign.AuditEvent
}

// ReviewFinalization backfills the review duration when a session was
// completed but its duration was never derived.
type ReviewFinalization struct {
	SessionID       string
	DurationSeconds int64
}

// Policy resolves the advisory-versus-gating ambiguity as configuration.
// Both gates default off: the engine records typed-name mismatches and
// incomplete reviews as evidence without blocking, matching the recorded
// reference behavior.
type Policy struct {
	RequireTypedNameMatch  bool
	RequireCompletedReview bool
}

type Coordinator struct {
	store  Store
	issuer *certificate.Issuer
	policy Policy
}

func NewCoordinator(store Store, issuer *certificate.Issuer, policy Policy) *Coordinator {
	return &Coordinator{store: store, issuer: issuer, policy: policy}
}

type SignRequest struct {
	ContractID      string
	SignerID        string
	SignatureData   string
	TypedName       string
	IntentConfirmed bool
	IP              string
	UserAgent       string
}

type SignResult struct {
	Signature      esign.Signature    `json:"signature"`
	Certificate    esign.Certificate  `json:"certificate"`
	DocumentHash   esign.DocumentHash `json:"document_hash"`
	ContractStatus string             `json:"contract_status"`
}

// Sign runs the full signing protocol: precondition checks in order
// (validation, existence, consent), evidence assembly, then one atomic
// persistence call. No write happens before every precondition has passed.
func (c *Coordinator) Sign(ctx context.Context, req SignRequest) (SignResult, error) {
	if req.SignerID == "" {
		return SignResult{}, esign.Validationf("signerId is required")
	}
	if req.SignatureData == "" {
		return SignResult{}, esign.Validationf("signatureData is required")
	}
	if !req.IntentConfirmed {
		return SignResult{}, esign.Validationf("intent to sign must be confirmed")
	}

	contract, err := c.store.GetContract(ctx, req.ContractID)
	if err != nil {
		if esign.KindOf(err) == esign.KindNotFound {
			return SignResult{}, esign.NotFoundf("contract %s not found", req.ContractID)
		}
		return SignResult{}, err
	}
	signer, err := c.store.GetSigner(ctx, req.ContractID, req.SignerID)
	if err != nil {
		if esign.KindOf(err) == esign.KindNotFound {
			return SignResult{}, esign.NotFoundf("signer %s not found on contract %s", req.SignerID, req.ContractID)
		}
		return SignResult{}, err
	}

	facts := esign.ProtocolFacts{Signed: signer.Status == esign.SignerSigned}
	cons, err := c.store.LatestConsent(ctx, req.ContractID, req.SignerID)
	switch {
	case err == nil:
		facts.HasValidConsent = cons.Valid()
	case esign.KindOf(err) == esign.KindNotFound:
		// no consent on record
	default:
		return SignResult{}, err
	}

	var session *esign.ReviewSession
	if s, err := c.store.GetReviewSession(ctx, req.ContractID, req.SignerID); err == nil {
		session = &s
		facts.ReviewStarted = true
		facts.ReviewCompleted = s.ReviewCompletedAt != nil
	} else if esign.KindOf(err) != esign.KindNotFound {
		return SignResult{}, err
	}

	state := esign.ProtocolState(facts)
	if state == esign.StateSigned {
		return SignResult{}, esign.Conflictf("signer %s has already signed contract %s", req.SignerID, req.ContractID)
	}
	if !esign.CanSign(state) {
		return SignResult{}, esign.ConsentRequired()
	}
	if c.policy.RequireCompletedReview && !facts.ReviewCompleted {
		return SignResult{}, esign.Validationf("document review must be completed before signing")
	}
	if c.policy.RequireTypedNameMatch && !intent.NamesMatch(req.TypedName, signer.Name) {
		return SignResult{}, esign.Validationf("typed name does not match the signer's name on record")
	}

	hashValue, err := dochash.Sum(contract.Content)
	if err != nil {
		return SignResult{}, esign.Validationf("contract %s has no content to sign", req.ContractID)
	}

	now := time.Now().UTC()
	sig := esign.Signature{
		SignatureID:   "sig_" + uuid.NewString(),
		ContractID:    req.ContractID,
		SignerID:      req.SignerID,
		SignatureData: req.SignatureData,
		SignedAt:      now,
		IP:            req.IP,
		UserAgent:     req.UserAgent,
	}
	docHash := esign.DocumentHash{
		HashID:          "hash_" + uuid.NewString(),
		SignatureID:     sig.SignatureID,
		ContractID:      req.ContractID,
		HashValue:       hashValue,
		Algorithm:       dochash.AlgorithmSHA256,
		DocumentVersion: DocumentVersion,
		ContentType:     contentType,
		ComputedAt:      now,
	}
	confirmation := intent.Confirm(sig.SignatureID, req.TypedName, signer.Name, "", req.IntentConfirmed)

	var finalization *ReviewFinalization
	if session != nil && session.ReviewCompletedAt != nil && session.ReviewDurationSeconds == nil {
		duration := int64(session.ReviewCompletedAt.Sub(session.ReviewStartedAt).Seconds())
		if duration < 0 {
			duration = 0
		}
		finalization = &ReviewFinalization{SessionID: session.SessionID, DurationSeconds: duration}
		session.ReviewDurationSeconds = &duration
	}

	cert := c.issuer.Issue(sig, signer, contract, docHash, cons, session, confirmation)

	ev := esign.NewAuditEvent(req.ContractID, esign.EventDocumentSigned, req.SignerID, map[string]any{
		"signature_id":       sig.SignatureID,
		"certificate_number": cert.CertificateNumber,
		"document_hash":      docHash.HashValue,
		"intent_confirmed":   confirmation.IntentConfirmed,
		"typed_name_match":   confirmation.TypedNameMatch,
	}, req.IP, req.UserAgent)

	status, err := c.store.PersistSignature(ctx, Bundle{
		Signature:          sig,
		DocumentHash:       docHash,
		Intent:             confirmation,
		Certificate:        cert,
		ReviewFinalization: finalization,
		AuditEvent:         ev,
	})
	if err != nil {
		if errors.Is(err, ErrAlreadySigned) {
			return SignResult{}, esign.Conflictf("signer %s has already signed contract %s", req.SignerID, req.ContractID)
		}
		return SignResult{}, err
	}

	metrics.SignaturesIssued.Inc()
	log.Logger().WithFields(logrus.Fields{
		"contract_id":        req.ContractID,
		"signer_id":          req.SignerID,
		"signature_id":       sig.SignatureID,
		"certificate_number": cert.CertificateNumber,
		"contract_status":    status,
	}).Info("signature applied")

	return SignResult{
		Signature:      sig,
		Certificate:    cert,
		DocumentHash:   docHash,
		ContractStatus: status,
	}, nil
}
