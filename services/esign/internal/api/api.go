// Package api exposes the esign engine over HTTP. Handlers translate wire
// requests into component calls and the error taxonomy into status codes;
// no compliance logic lives here.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/MDx-Vision/nicehr-sub016/pkg/httpx"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/audit"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/certificate"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/consent"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/disclosure"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/esign"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/idempotency"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/integrity"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/log"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/review"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/signing"
)

// Store is the union of every component's persistence interface plus the
// idempotency and seed helpers the HTTP layer calls directly.
type Store interface {
	consent.Store
	review.Store
	signing.Store
	integrity.Store
	audit.Store
	idempotency.Store
	GetCertificate(ctx context.Context, contractID, signatureID string) (esign.Certificate, error)
	SeedContract(ctx context.Context, c esign.Contract, signers []esign.Signer) error
}

type Handler struct {
	store    Store
	consents *consent.Ledger
	reviews  *review.Tracker
	signer   *signing.Coordinator
	verifier *integrity.Verifier
	auditor  *audit.Recorder
}

func NewHandler(st Store, issuer *certificate.Issuer, policy signing.Policy) *Handler {
	return &Handler{
		store:    st,
		consents: consent.NewLedger(st),
		reviews:  review.NewTracker(st),
		signer:   signing.NewCoordinator(st, issuer, policy),
		verifier: integrity.NewVerifier(st),
		auditor:  audit.NewRecorder(st),
	}
}

func Router(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/esign/disclosure", h.GetDisclosure)
	r.Post("/esign/dev/seed-contract", h.SeedContract)

	r.Route("/contracts/{contract_id}/esign", func(api chi.Router) {
		api.Post("/consent", h.RecordConsent)
		api.Get("/consent/{signer_id}", h.GetConsent)
		api.Post("/review-start", h.StartReview)
		api.Patch("/review-progress", h.UpdateReviewProgress)
		api.Post("/review-complete", h.CompleteReview)
		api.Post("/sign", h.Sign)
		api.Get("/verify", h.Verify)
		api.Get("/certificate/{signature_id}", h.GetCertificate)
		api.Get("/audit-trail", h.GetAuditTrail)
	})
	return r
}

func statusFor(k esign.Kind) int {
	switch k {
	case esign.KindValidation, esign.KindConsentRequired:
		return 400
	case esign.KindNotFound:
		return 404
	case esign.KindConflict:
		return 409
	default:
		return 500
	}
}

func writeErr(w http.ResponseWriter, err error) {
	var e *esign.Error
	if errors.As(err, &e) {
		httpx.WriteError(w, statusFor(e.Kind), e.Kind.Code(), e.Message, e.Details)
		return
	}
	httpx.WriteError(w, 500, "INTERNAL", "internal error", nil)
}

func (h *Handler) GetDisclosure(w http.ResponseWriter, r *http.Request) {
	d := disclosure.Current()
	httpx.WriteJSON(w, 200, map[string]any{
		"request_id": httpx.NewRequestID(),
		"version":    d.Version,
		"text":       d.Text,
		"hash":       d.Hash,
	})
}

func (h *Handler) RecordConsent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SignerID                      string `json:"signerId"`
		HardwareSoftwareAcknowledged  bool   `json:"hardwareSoftwareAcknowledged"`
		PaperCopyRightAcknowledged    bool   `json:"paperCopyRightAcknowledged"`
		ConsentWithdrawalAcknowledged bool   `json:"consentWithdrawalAcknowledged"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	c, err := h.consents.Record(r.Context(), consent.RecordRequest{
		ContractID:                    chi.URLParam(r, "contract_id"),
		SignerID:                      req.SignerID,
		HardwareSoftwareAcknowledged:  req.HardwareSoftwareAcknowledged,
		PaperCopyRightAcknowledged:    req.PaperCopyRightAcknowledged,
		ConsentWithdrawalAcknowledged: req.ConsentWithdrawalAcknowledged,
		IP:                            httpx.ClientIP(r),
		UserAgent:                     httpx.UserAgent(r),
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, 201, map[string]any{
		"request_id":        httpx.NewRequestID(),
		"id":                c.ConsentID,
		"consentTimestamp":  c.ConsentedAt,
		"disclosureVersion": c.DisclosureVersion,
	})
}

func (h *Handler) GetConsent(w http.ResponseWriter, r *http.Request) {
	c, ok, err := h.consents.Latest(r.Context(), chi.URLParam(r, "contract_id"), chi.URLParam(r, "signer_id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	resp := map[string]any{
		"request_id": httpx.NewRequestID(),
		"hasConsent": ok,
		"consent":    nil,
	}
	if ok {
		resp["consent"] = c
		// The exact disclosure wording the signer acknowledged, resolved
		// from the version stamped on the consent row.
		text, _ := disclosure.TextForVersion(c.DisclosureVersion)
		resp["disclosureText"] = text
	}
	httpx.WriteJSON(w, 200, resp)
}

func (h *Handler) StartReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SignerID string `json:"signerId"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	s, err := h.reviews.Start(r.Context(), chi.URLParam(r, "contract_id"), req.SignerID, httpx.ClientIP(r), httpx.UserAgent(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	status := 200
	if s.PageViewCount == 1 {
		status = 201
	}
	httpx.WriteJSON(w, status, map[string]any{
		"request_id":    httpx.NewRequestID(),
		"trackingId":    s.SessionID,
		"pageViewCount": s.PageViewCount,
	})
}

func (h *Handler) UpdateReviewProgress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SignerID         string `json:"signerId"`
		ScrollPercentage *int   `json:"scrollPercentage"`
		ScrolledToBottom *bool  `json:"scrolledToBottom"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	err := h.reviews.UpdateProgress(r.Context(), chi.URLParam(r, "contract_id"), req.SignerID,
		req.ScrollPercentage, req.ScrolledToBottom, httpx.ClientIP(r), httpx.UserAgent(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "updated": true})
}

func (h *Handler) CompleteReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SignerID string `json:"signerId"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	s, err := h.reviews.Complete(r.Context(), chi.URLParam(r, "contract_id"), req.SignerID, httpx.ClientIP(r), httpx.UserAgent(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{
		"request_id":            httpx.NewRequestID(),
		"trackingId":            s.SessionID,
		"reviewDurationSeconds": s.ReviewDurationSeconds,
	})
}

func (h *Handler) Sign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SignerID        string `json:"signerId"`
		SignatureData   string `json:"signatureData"`
		TypedName       string `json:"typedName"`
		IntentConfirmed bool   `json:"intentConfirmed"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	contractID := chi.URLParam(r, "contract_id")

	// Duplicate network retries of sign replay the stored first response
	// instead of surfacing a conflict.
	signer := idempotency.SignerContext{
		ContractID:     contractID,
		SignerID:       req.SignerID,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}
	const endpoint = "POST /esign/sign"
	if status, body, replayed, err := idempotency.Replay(r.Context(), h.store, signer, endpoint); err == nil && replayed {
		httpx.WriteJSON(w, status, body)
		return
	} else if err != nil {
		writeErr(w, err)
		return
	}

	res, err := h.signer.Sign(r.Context(), signing.SignRequest{
		ContractID:      contractID,
		SignerID:        req.SignerID,
		SignatureData:   req.SignatureData,
		TypedName:       req.TypedName,
		IntentConfirmed: req.IntentConfirmed,
		IP:              httpx.ClientIP(r),
		UserAgent:       httpx.UserAgent(r),
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	resp := map[string]any{
		"request_id":     httpx.NewRequestID(),
		"signature":      res.Signature,
		"certificate":    res.Certificate,
		"documentHash":   res.DocumentHash,
		"contractStatus": res.ContractStatus,
	}
	// The signature is already durable at this point; a failed replay record
	// only costs retry idempotency, so it must not fail the request.
	if err := idempotency.Save(r.Context(), h.store, signer, endpoint, 201, resp); err != nil {
		log.Logger().WithError(err).WithFields(logrus.Fields{
			"contract_id": contractID,
			"signer_id":   req.SignerID,
		}).Warn("failed to save idempotency record for sign response")
	}
	httpx.WriteJSON(w, 201, resp)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	report, err := h.verifier.Verify(r.Context(), chi.URLParam(r, "contract_id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{
		"request_id":          httpx.NewRequestID(),
		"contractId":          report.ContractID,
		"verified":            report.Verified,
		"message":             report.Message,
		"currentHash":         report.CurrentHash,
		"verificationResults": report.Results,
		"checkedAt":           report.CheckedAt,
	})
}

func (h *Handler) GetCertificate(w http.ResponseWriter, r *http.Request) {
	cert, err := h.store.GetCertificate(r.Context(), chi.URLParam(r, "contract_id"), chi.URLParam(r, "signature_id"))
	if err != nil {
		if esign.KindOf(err) == esign.KindNotFound {
			writeErr(w, esign.NotFoundf("certificate for signature %s not found", chi.URLParam(r, "signature_id")))
			return
		}
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{
		"request_id":  httpx.NewRequestID(),
		"certificate": cert,
	})
}

func (h *Handler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	trail, err := h.auditor.AssembleTrail(r.Context(), chi.URLParam(r, "contract_id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{
		"request_id": httpx.NewRequestID(),
		"contractId": trail.ContractID,
		"auditTrail": trail,
		"generatedAt": time.Now().UTC(),
		"compliance": audit.Compliance{
			ESIGNActCompliant: true,
			UETACompliant:     true,
			GeneratedAt:       time.Now().UTC(),
		},
	})
}

// SeedContract creates a contract with signers for smoke tests and local
// development. Contract authoring proper is an external collaborator.
func (h *Handler) SeedContract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Signers []struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"signers"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	if req.Content == "" {
		writeErr(w, esign.Validationf("content is required"))
		return
	}
	if len(req.Signers) == 0 {
		writeErr(w, esign.Validationf("at least one signer is required"))
		return
	}
	c := esign.Contract{
		ContractID: "ctr_" + uuid.NewString(),
		Title:      req.Title,
		Content:    req.Content,
		Status:     esign.ContractDraft,
		CreatedAt:  time.Now().UTC(),
	}
	signers := make([]esign.Signer, 0, len(req.Signers))
	for _, s := range req.Signers {
		signers = append(signers, esign.Signer{
			SignerID:   "sgn_" + uuid.NewString(),
			ContractID: c.ContractID,
			Name:       s.Name,
			Email:      s.Email,
			Status:     esign.SignerPending,
		})
	}
	if err := h.store.SeedContract(r.Context(), c, signers); err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, 201, map[string]any{
		"request_id": httpx.NewRequestID(),
		"contract":   c,
		"signers":    signers,
	})
}
