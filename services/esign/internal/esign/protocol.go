package esign

import "github.com/anggasct/fluo"

// Signer protocol states. Review completeness is recorded evidence, not a
// signing gate, so the signature_applied transition is accepted from every
// post-consent state.
const (
	StateUnconsented = "unconsented"
	StateConsented   = "consented"
	StateReviewing   = "reviewing"
	StateReviewed    = "reviewed"
	StateSigned      = "signed"
)

const eventSignatureApplied = "signature_applied"

var signerProtocol = fluo.NewMachine().
	State(StateUnconsented).Initial().
	To(StateConsented).On(EventConsentGiven).
	State(StateConsented).
	To(StateReviewing).On(EventReviewStarted).
	To(StateSigned).On(eventSignatureApplied).
	State(StateReviewing).
	To(StateReviewed).On(EventReviewCompleted).
	To(StateSigned).On(eventSignatureApplied).
	State(StateReviewed).
	To(StateSigned).On(eventSignatureApplied).
	State(StateSigned).Final().
	Build()

// ProtocolFacts are the persisted facts a signer's protocol position is
// derived from. The state machine is replayed from them on every evaluation;
// there is no long-lived machine instance per signer.
type ProtocolFacts struct {
	HasValidConsent bool
	ReviewStarted   bool
	ReviewCompleted bool
	Signed          bool
}

// ProtocolState replays the recorded facts through the signer protocol and
// returns the resulting state.
func ProtocolState(f ProtocolFacts) string {
	m := signerProtocol.CreateInstance()
	_ = m.Start()
	if f.HasValidConsent {
		m.HandleEvent(EventConsentGiven, nil)
	}
	if f.ReviewStarted {
		m.HandleEvent(EventReviewStarted, nil)
	}
	if f.ReviewCompleted {
		m.HandleEvent(EventReviewCompleted, nil)
	}
	if f.Signed {
		m.HandleEvent(eventSignatureApplied, nil)
	}
	return m.CurrentState()
}

// CanSign reports whether the signature_applied transition is available from
// the given protocol state.
func CanSign(state string) bool {
	m := signerProtocol.CreateInstance()
	if err := m.Start(); err != nil {
		return false
	}
	if err := m.SetState(state); err != nil {
		return false
	}
	return m.HandleEvent(eventSignatureApplied, nil).Processed
}
