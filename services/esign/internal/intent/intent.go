// Package intent records the signer's explicit statement of intent to be
// legally bound. A typed-name mismatch is recorded as evidence, never
// rejected here; gating on it belongs to the signing coordinator's policy.
package intent

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/esign"
)

// DefaultStatement is the intent statement presented by the signing UI.
const DefaultStatement = "I agree to be legally bound by this document and understand that my electronic signature has the same legal effect as a handwritten signature."

// Confirm builds the intent confirmation attached to a signature.
func Confirm(signatureID, typedName, expectedName, statement string, intentConfirmed bool) esign.IntentConfirmation {
	if statement == "" {
		statement = DefaultStatement
	}
	return esign.IntentConfirmation{
		ConfirmationID:  "int_" + uuid.NewString(),
		SignatureID:     signatureID,
		IntentConfirmed: intentConfirmed,
		IntentStatement: statement,
		TypedName:       typedName,
		ExpectedName:    expectedName,
		TypedNameMatch:  NamesMatch(typedName, expectedName),
		ConfirmedAt:     time.Now().UTC(),
	}
}

// NamesMatch compares two names case-insensitively, ignoring leading,
// trailing, and repeated inner whitespace.
func NamesMatch(typed, expected string) bool {
	return canonicalName(typed) != "" && canonicalName(typed) == canonicalName(expected)
}

func canonicalName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
