package model

import "testing"

func TestVerdict_Valid(t *testing.T) {
	valid := []Verdict{
		VerdictTrue, VerdictMostlyTrue, VerdictMixed, VerdictMostlyFalse,
		VerdictFalse, VerdictMisleading,
		VerdictUnverifiedInsufficientEvidence, VerdictUnverifiedTooRecent,
		VerdictError,
	}
	for _, v := range valid {
		if !v.Valid() {
			t.Errorf("%s should be valid", v)
		}
	}

	for _, v := range []Verdict{"", "true", "PARTIALLY_TRUE", "UNVERIFIED"} {
		if v.Valid() {
			t.Errorf("%q should be invalid", v)
		}
	}
}

func TestVerdict_Issue(t *testing.T) {
	if !VerdictFalse.Issue() || !VerdictMisleading.Issue() {
		t.Error("FALSE and MISLEADING are open issues")
	}
	for _, v := range []Verdict{VerdictTrue, VerdictMostlyFalse, VerdictMixed, VerdictError} {
		if v.Issue() {
			t.Errorf("%s should not count as an issue", v)
		}
	}
}

func TestVerdict_Unverified(t *testing.T) {
	if !VerdictUnverifiedInsufficientEvidence.Unverified() || !VerdictUnverifiedTooRecent.Unverified() {
		t.Error("both UNVERIFIED variants should report Unverified")
	}
	if VerdictError.Unverified() {
		t.Error("ERROR is not an UNVERIFIED variant")
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	if !StatusFinished.Terminal() || !StatusFailed.Terminal() {
		t.Error("finished and failed are terminal")
	}
	for _, s := range []JobStatus{StatusSubmitted, StatusExtracting, StatusValidating, StatusSynthesizing} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestResolveMode(t *testing.T) {
	cfg := IterationConfig{MaxIterations: 3, TopK: 5, PerCategoryLimit: 3}

	if p := ResolveMode(ModeStandard, cfg); p.MaxIterations != 1 || p.TopK != 5 {
		t.Errorf("standard: %+v", p)
	}
	if p := ResolveMode(ModeSummary, cfg); p.MaxIterations != 1 || p.TopK != 3 {
		t.Errorf("summary: %+v", p)
	}
	if p := ResolveMode(ModeIterative, cfg); p.MaxIterations != 3 || p.TopK != 5 {
		t.Errorf("iterative: %+v", p)
	}
	if p := ResolveMode(ModeThorough, cfg); p.MaxIterations != 4 || p.TopK != 10 || p.PerCategoryLimit != 5 {
		t.Errorf("thorough: %+v", p)
	}
}

func TestRiskLevel_Rank(t *testing.T) {
	if RiskHigh.Rank() <= RiskMedium.Rank() || RiskMedium.Rank() <= RiskLow.Rank() {
		t.Error("rank order should be HIGH > MEDIUM > LOW")
	}
}
