package esign

import (
	"time"

	"github.com/google/uuid"
)

// Signer status values.
const (
	SignerPending = "pending"
	SignerSigned  = "signed"
)

// Contract aggregate status values.
const (
	ContractDraft           = "draft"
	ContractPartiallySigned = "partially_signed"
	ContractCompleted       = "completed"
)

// Audit event types. Every state-changing operation in the engine produces
// exactly one event of one of these types.
const (
	EventConsentGiven    = "consent_given"
	EventReviewStarted   = "review_started"
	EventReviewProgress  = "review_progress"
	EventReviewCompleted = "review_completed"
	EventDocumentSigned  = "document_signed"
)

// Contract is owned by the contract-authoring domain; the esign engine reads
// its content and title and mutates only its aggregate status.
type Contract struct {
	ContractID string    `json:"contract_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type Signer struct {
	SignerID   string `json:"signer_id"`
	ContractID string `json:"contract_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Status     string `json:"status"`
}

// Consent is append-only: re-consent inserts a new row, the history stays
// queryable. A consent is valid only if all three acknowledgments are true.
type Consent struct {
	ConsentID                     string    `json:"id"`
	SignerID                      string    `json:"signer_id"`
	ContractID                    string    `json:"contract_id"`
	HardwareSoftwareAcknowledged  bool      `json:"hardware_software_acknowledged"`
	PaperCopyRightAcknowledged    bool      `json:"paper_copy_right_acknowledged"`
	ConsentWithdrawalAcknowledged bool      `json:"consent_withdrawal_acknowledged"`
	DisclosureVersion             string    `json:"disclosure_version"`
	DisclosureHash                string    `json:"disclosure_hash"`
	ConsentedAt                   time.Time `json:"consent_timestamp"`
	IP                            string    `json:"ip_address"`
	UserAgent                     string    `json:"user_agent"`
}

func (c Consent) Valid() bool {
	return c.HardwareSoftwareAcknowledged && c.PaperCopyRightAcknowledged && c.ConsentWithdrawalAcknowledged
}

type ReviewSession struct {
	SessionID             string     `json:"tracking_id"`
	SignerID              string     `json:"signer_id"`
	ContractID            string     `json:"contract_id"`
	DocumentPresentedAt   time.Time  `json:"document_presented_at"`
	ReviewStartedAt       time.Time  `json:"review_started_at"`
	ReviewCompletedAt     *time.Time `json:"review_completed_at,omitempty"`
	MaxScrollPercentage   int        `json:"max_scroll_percentage"`
	ScrolledToBottom      bool       `json:"scrolled_to_bottom"`
	PageViewCount         int        `json:"page_view_count"`
	ReviewDurationSeconds *int64     `json:"review_duration_seconds,omitempty"`
}

// IntentConfirmation is created only as part of a successful sign operation.
type IntentConfirmation struct {
	ConfirmationID  string    `json:"id"`
	SignatureID     string    `json:"signature_id"`
	IntentConfirmed bool      `json:"intent_confirmed"`
	IntentStatement string    `json:"intent_statement"`
	TypedName       string    `json:"typed_name"`
	ExpectedName    string    `json:"expected_name"`
	TypedNameMatch  bool      `json:"typed_name_match"`
	ConfirmedAt     time.Time `json:"confirmed_at"`
}

type Signature struct {
	SignatureID   string    `json:"id"`
	ContractID    string    `json:"contract_id"`
	SignerID      string    `json:"signer_id"`
	SignatureData string    `json:"signature_data"`
	SignedAt      time.Time `json:"signed_at"`
	IP            string    `json:"ip_address"`
	UserAgent     string    `json:"user_agent"`
}

// DocumentHash captures the content digest at the instant of signing. It is
// the reference value IntegrityVerifier compares against later.
type DocumentHash struct {
	HashID          string    `json:"id"`
	SignatureID     string    `json:"signature_id"`
	ContractID      string    `json:"contract_id"`
	HashValue       string    `json:"hash_value"`
	Algorithm       string    `json:"algorithm"`
	DocumentVersion string    `json:"document_version"`
	ContentType     string    `json:"content_type"`
	ComputedAt      time.Time `json:"computed_at"`
}

// CertificateEvidence is the compliance evidence block embedded in every
// certificate.
type CertificateEvidence struct {
	ConsentTimestamp      time.Time `json:"consent_timestamp"`
	DisclosureVersion     string    `json:"disclosure_version"`
	ReviewDurationSeconds *int64    `json:"review_duration_seconds,omitempty"`
	MaxScrollPercentage   int       `json:"max_scroll_percentage"`
	ScrolledToBottom      bool      `json:"scrolled_to_bottom"`
	PageViewCount         int       `json:"page_view_count"`
	IntentConfirmed       bool      `json:"intent_confirmed"`
	TypedNameMatch        bool      `json:"typed_name_match"`
}

// Certificate is immutable once issued.
type Certificate struct {
	CertificateNumber string              `json:"certificate_number"`
	SignatureID       string              `json:"signature_id"`
	ContractID        string              `json:"contract_id"`
	SignerName        string              `json:"signer_name"`
	SignerEmail       string              `json:"signer_email"`
	DocumentTitle     string              `json:"document_title"`
	DocumentHash      string              `json:"document_hash"`
	HashAlgorithm     string              `json:"hash_algorithm"`
	SignedAt          time.Time           `json:"signed_at"`
	SignerIP          string              `json:"signer_ip"`
	SignerUserAgent   string              `json:"signer_user_agent"`
	Evidence          CertificateEvidence `json:"evidence"`
	ESIGNActCompliant bool                `json:"esign_act_compliant"`
	UETACompliant     bool                `json:"ueta_compliant"`
	IssuedAt          time.Time           `json:"issued_at"`
}

// AuditEvent rows are append-only and retrieved only in timestamp order.
type AuditEvent struct {
	EventID    string         `json:"event_id"`
	ContractID string         `json:"contract_id"`
	EventType  string         `json:"event_type"`
	ActorID    string         `json:"actor_id"`
	Detail     map[string]any `json:"detail"`
	IP         string         `json:"ip_address"`
	UserAgent  string         `json:"user_agent"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func NewAuditEvent(contractID, eventType, actorID string, detail map[string]any, ip, userAgent string) AuditEvent {
	if detail == nil {
		detail = map[string]any{}
	}
	return AuditEvent{
		EventID:    "evt_" + uuid.NewString(),
		ContractID: contractID,
		EventType:  eventType,
		ActorID:    actorID,
		Detail:     detail,
		IP:         ip,
		UserAgent:  userAgent,
		OccurredAt: time.Now().UTC(),
	}
}

// VerificationResult is one stored-hash comparison inside an integrity check.
type VerificationResult struct {
	SignatureID string    `json:"signature_id"`
	StoredHash  string    `json:"stored_hash"`
	CurrentHash string    `json:"current_hash"`
	Verified    bool      `json:"verified"`
	ComputedAt  time.Time `json:"computed_at"`
}
