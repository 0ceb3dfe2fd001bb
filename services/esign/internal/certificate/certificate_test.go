package certificate

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/esign"
)

var numberPattern = regexp.MustCompile(`^[A-Z]+-\d{8}-[A-Z0-9]+$`)

func TestNewNumberFormat(t *testing.T) {
	issuer := NewIssuer("")
	n := issuer.NewNumber(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	assert.Regexp(t, numberPattern, n)
	assert.Contains(t, n, "ESIGN-20260901-")
}

func TestNewNumberUniqueness(t *testing.T) {
	issuer := NewIssuer("ESIGN")
	now := time.Now()
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		n := issuer.NewNumber(now)
		_, dup := seen[n]
		require.False(t, dup, "duplicate certificate number %s", n)
		seen[n] = struct{}{}
	}
}

func TestIssueBundlesEvidence(t *testing.T) {
	issuer := NewIssuer("cert")

	signedAt := time.Date(2026, 9, 1, 15, 4, 5, 0, time.UTC)
	duration := int64(120)
	session := &esign.ReviewSession{
		MaxScrollPercentage:   100,
		ScrolledToBottom:      true,
		PageViewCount:         2,
		ReviewDurationSeconds: &duration,
	}
	cert := issuer.Issue(
		esign.Signature{SignatureID: "sig_1", SignedAt: signedAt, IP: "203.0.113.7", UserAgent: "ua"},
		esign.Signer{Name: "Jane Doe", Email: "jane@example.com"},
		esign.Contract{ContractID: "ctr_1", Title: "Travel Nurse Agreement"},
		esign.DocumentHash{HashValue: "abc123", Algorithm: "SHA-256"},
		esign.Consent{ConsentedAt: signedAt.Add(-time.Hour), DisclosureVersion: "1.0"},
		session,
		esign.IntentConfirmation{IntentConfirmed: true, TypedNameMatch: true},
	)

	assert.Regexp(t, numberPattern, cert.CertificateNumber)
	assert.Equal(t, "Jane Doe", cert.SignerName)
	assert.Equal(t, "Travel Nurse Agreement", cert.DocumentTitle)
	assert.Equal(t, "abc123", cert.DocumentHash)
	assert.Equal(t, "SHA-256", cert.HashAlgorithm)
	assert.Equal(t, signedAt, cert.SignedAt)
	assert.True(t, cert.ESIGNActCompliant)
	assert.True(t, cert.UETACompliant)
	assert.Equal(t, 100, cert.Evidence.MaxScrollPercentage)
	assert.True(t, cert.Evidence.ScrolledToBottom)
	require.NotNil(t, cert.Evidence.ReviewDurationSeconds)
	assert.Equal(t, int64(120), *cert.Evidence.ReviewDurationSeconds)
}

func TestIssueWithoutReviewSession(t *testing.T) {
	issuer := NewIssuer("ESIGN")
	cert := issuer.Issue(
		esign.Signature{SignatureID: "sig_1"},
		esign.Signer{Name: "Jane Doe"},
		esign.Contract{ContractID: "ctr_1"},
		esign.DocumentHash{},
		esign.Consent{},
		nil,
		esign.IntentConfirmation{},
	)
	assert.Nil(t, cert.Evidence.ReviewDurationSeconds)
	assert.Zero(t, cert.Evidence.MaxScrollPercentage)
}
