package model

import (
	"errors"
	"fmt"
)

// ExtractionError is fatal to the job: the article text yields no
// checkable claims or exceeds size limits. Content problem, not
// transient — never retried.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return "extraction failed: " + e.Reason
}

// ProviderUnavailableError is a startup-time fatal condition: a
// configured evidence or validation provider cannot authenticate or
// connect. The engine must fail loudly here instead of degrading to
// fabricated data.
type ProviderUnavailableError struct {
	Provider string
	Err      error
}

func (e *ProviderUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s unavailable: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("provider %s unavailable", e.Provider)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }

// ValidationSchemaError marks a validator response that does not match
// the required {verdict, confidence, rationale, evidence_count} shape.
// It is rendered as an ERROR verdict on the claim, never coerced into a
// default.
type ValidationSchemaError struct {
	Detail string
}

func (e *ValidationSchemaError) Error() string {
	return "validation response schema violation: " + e.Detail
}

var (
	// ErrRoundTimeout marks claims left without a completed result when a
	// validation round's deadline passed; they become ERROR verdicts
	ErrRoundTimeout = errors.New("round deadline exceeded before validation completed")

	// ErrJobTimeout means the overall job deadline was exceeded before DONE
	ErrJobTimeout = errors.New("job deadline exceeded")

	// ErrJobNotFound is returned by the store for unknown job IDs
	ErrJobNotFound = errors.New("job not found")

	// ErrJobTerminal is returned on any write to a finished/failed job
	ErrJobTerminal = errors.New("job is terminal, no further writes permitted")

	// ErrSyntheticEvidence is returned when labeled test-mode evidence
	// reaches a live-mode validation or aggregation path
	ErrSyntheticEvidence = errors.New("synthetic evidence rejected in live mode")
)
