package domain

// MatchCandidate is the identity the match gateway proposes for a verified
// descriptor. A nil *MatchCandidate is the explicit no-match marker.
type MatchCandidate struct {
	IdentityID  string
	DisplayName string
	// Confidence is the gateway's match confidence in [0,1].
	Confidence float64
	// Distance is the descriptor-space distance to the enrolled identity.
	Distance float64
}
