package enums

// PartnerDecision is a delivery partner's answer to an assignment offer.
type PartnerDecision string

const (
	PartnerDecisionAccepted PartnerDecision = "accepted"
	PartnerDecisionRejected PartnerDecision = "rejected"
)

func (d PartnerDecision) IsValid() bool {
	return d == PartnerDecisionAccepted || d == PartnerDecisionRejected
}

func (d PartnerDecision) String() string { return string(d) }

func ParsePartnerDecision(value string) (PartnerDecision, bool) {
	decision := PartnerDecision(value)
	return decision, decision.IsValid()
}
