package model

// Verdict is the closed set of categorical truth assessments a claim
// can receive. Qualifiers are part of the variant, never free text, so
// downstream consumers can pattern-match exhaustively.
type Verdict string

const (
	VerdictTrue        Verdict = "TRUE"
	VerdictMostlyTrue  Verdict = "MOSTLY_TRUE"
	VerdictMixed       Verdict = "MIXED"        // bundles sub-assertions of differing truth
	VerdictMostlyFalse Verdict = "MOSTLY_FALSE"
	VerdictFalse       Verdict = "FALSE"
	VerdictMisleading  Verdict = "MISLEADING" // narrowly true, deceptive framing

	VerdictUnverifiedInsufficientEvidence Verdict = "UNVERIFIED_INSUFFICIENT_EVIDENCE"
	VerdictUnverifiedTooRecent            Verdict = "UNVERIFIED_TOO_RECENT"

	VerdictError Verdict = "ERROR"
)

// Valid reports whether the verdict belongs to the closed enum
func (v Verdict) Valid() bool {
	switch v {
	case VerdictTrue, VerdictMostlyTrue, VerdictMixed, VerdictMostlyFalse,
		VerdictFalse, VerdictMisleading,
		VerdictUnverifiedInsufficientEvidence, VerdictUnverifiedTooRecent,
		VerdictError:
		return true
	}
	return false
}

// Unverified reports whether the verdict is one of the two UNVERIFIED variants
func (v Verdict) Unverified() bool {
	return v == VerdictUnverifiedInsufficientEvidence || v == VerdictUnverifiedTooRecent
}

// Issue reports whether the verdict counts as an open problem for the
// iteration controller's stopping rule
func (v Verdict) Issue() bool {
	return v == VerdictFalse || v == VerdictMisleading
}

// ValidationResult is the outcome of validating one claim against one
// evidence bundle. Invariant: an ERROR verdict always carries
// Confidence == 0 and a non-empty rationale.
type ValidationResult struct {
	ClaimRef       int     `json:"claim_ref"`
	Verdict        Verdict `json:"verdict"`
	Confidence     float64 `json:"confidence"` // clamped to [0,1]
	Rationale      string  `json:"rationale"`
	EvidenceCount  int     `json:"evidence_count"`
	ValidationMode string  `json:"validation_mode"` // engine mode the result was produced under
}
