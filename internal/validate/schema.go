package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/veridex/veridex/internal/model"
)

// verdictResponse is the required shape of a generative validation
// response. Pointer fields distinguish "absent" from zero values so a
// renamed or dropped field can never silently decode into a default.
type verdictResponse struct {
	Verdict       *string  `json:"verdict"`
	Confidence    *float64 `json:"confidence"`
	Rationale     *string  `json:"rationale"`
	EvidenceCount *int     `json:"evidence_count"`
}

// parseVerdictResponse enforces the validation contract. Any response
// not matching {verdict, confidence, rationale, evidence_count} is a
// ValidationSchemaError — the caller renders it as an ERROR verdict,
// never as a best-effort guess.
func parseVerdictResponse(raw string) (model.Verdict, float64, string, error) {
	var parsed verdictResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return "", 0, "", &model.ValidationSchemaError{Detail: fmt.Sprintf("not valid JSON: %v", err)}
	}

	if parsed.Verdict == nil {
		return "", 0, "", &model.ValidationSchemaError{Detail: "missing verdict field"}
	}
	if parsed.Confidence == nil {
		return "", 0, "", &model.ValidationSchemaError{Detail: "missing confidence field"}
	}
	if parsed.Rationale == nil || strings.TrimSpace(*parsed.Rationale) == "" {
		return "", 0, "", &model.ValidationSchemaError{Detail: "missing rationale field"}
	}
	if parsed.EvidenceCount == nil {
		return "", 0, "", &model.ValidationSchemaError{Detail: "missing evidence_count field"}
	}

	verdict := model.Verdict(strings.ToUpper(strings.TrimSpace(*parsed.Verdict)))
	if !verdict.Valid() || verdict == model.VerdictError {
		return "", 0, "", &model.ValidationSchemaError{Detail: fmt.Sprintf("verdict %q outside the closed set", *parsed.Verdict)}
	}

	return verdict, clamp01(*parsed.Confidence), strings.TrimSpace(*parsed.Rationale), nil
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
