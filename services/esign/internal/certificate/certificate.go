// Package certificate issues the immutable evidentiary bundle attached to
// every signature.
package certificate

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/esign"
)

const DefaultPrefix = "ESIGN"

type Issuer struct {
	prefix string
}

func NewIssuer(prefix string) *Issuer {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Issuer{prefix: prefix}
}

// Issue builds the certificate for a freshly applied signature. The
// compliance flags assert that the protocol as executed satisfied the
// structural requirements of the two statutes (disclosure + consent, intent,
// retainability); they are not re-validated against statute text at runtime.
func (i *Issuer) Issue(sig esign.Signature, signer esign.Signer, contract esign.Contract, hash esign.DocumentHash, cons esign.Consent, session *esign.ReviewSession, ic esign.IntentConfirmation) esign.Certificate {
	now := time.Now().UTC()
	evidence := esign.CertificateEvidence{
		ConsentTimestamp:  cons.ConsentedAt,
		DisclosureVersion: cons.DisclosureVersion,
		IntentConfirmed:   ic.IntentConfirmed,
		TypedNameMatch:    ic.TypedNameMatch,
	}
	if session != nil {
		evidence.ReviewDurationSeconds = session.ReviewDurationSeconds
		evidence.MaxScrollPercentage = session.MaxScrollPercentage
		evidence.ScrolledToBottom = session.ScrolledToBottom
		evidence.PageViewCount = session.PageViewCount
	}
	return esign.Certificate{
		CertificateNumber: i.NewNumber(now),
		SignatureID:       sig.SignatureID,
		ContractID:        contract.ContractID,
		SignerName:        signer.Name,
		SignerEmail:       signer.Email,
		DocumentTitle:     contract.Title,
		DocumentHash:      hash.HashValue,
		HashAlgorithm:     hash.Algorithm,
		SignedAt:          sig.SignedAt,
		SignerIP:          sig.IP,
		SignerUserAgent:   sig.UserAgent,
		Evidence:          evidence,
		ESIGNActCompliant: true,
		UETACompliant:     true,
		IssuedAt:          now,
	}
}

// NewNumber generates a certificate number of the form
// PREFIX-YYYYMMDD-<16 hex chars>. The suffix carries 64 bits of randomness,
// so collisions are negligible by construction; the store's unique
// constraint on certificate_number is the backstop.
func (i *Issuer) NewNumber(now time.Time) string {
	suffix := make([]byte, 8)
	_, _ = rand.Read(suffix)
	return i.prefix + "-" + now.UTC().Format("20060102") + "-" + strings.ToUpper(hex.EncodeToString(suffix))
}
