package scoring

import (
	"testing"

	"earnradar/internal/models"
	"earnradar/internal/wallet"
)

func intPtr(v int) *int { return &v }

func signals(age, tx int, chains ...string) *wallet.Signals {
	return &wallet.Signals{
		Address:       "0x1234567890abcdef1234567890abcdef12345678",
		WalletAgeDays: intPtr(age),
		TxCount90d:    intPtr(tx),
		ChainsActive:  chains,
	}
}

func oppWithRequirements(req models.Requirements) *models.Opportunity {
	return &models.Opportunity{
		Slug:         "layerzero-ethereum-zro",
		TrustScore:   85,
		Requirements: models.EncodeRequirements(req),
	}
}

func hasReason(result EligibilityResult, want string) bool {
	for _, r := range result.Reasons {
		if r == want {
			return true
		}
	}
	return false
}

func TestEligibilityAllPass(t *testing.T) {
	sig := signals(180, 50, "ethereum", "base")
	opp := oppWithRequirements(models.Requirements{
		Chains:           []string{"ethereum"},
		MinWalletAgeDays: 90,
		MinTxCount:       10,
	})

	got := EvaluateEligibility(sig, opp)
	if got.Status != StatusLikely {
		t.Fatalf("status = %q, want likely", got.Status)
	}
	if got.Score < 0.8 {
		t.Fatalf("score = %v, want >= 0.8", got.Score)
	}
	if !hasReason(got, ReasonChainMatch) || !hasReason(got, ReasonAgeMet) {
		t.Fatalf("missing pass reasons: %v", got.Reasons)
	}
}

func TestEligibilityChainHardGate(t *testing.T) {
	sig := signals(180, 50, "ethereum", "base")
	opp := oppWithRequirements(models.Requirements{
		Chains:           []string{"blast"},
		MinWalletAgeDays: 90,
		MinTxCount:       10,
	})

	got := EvaluateEligibility(sig, opp)
	if got.Status != StatusUnlikely {
		t.Fatalf("status = %q, want unlikely", got.Status)
	}
	if got.Score >= 0.5 {
		t.Fatalf("score = %v, want < 0.5", got.Score)
	}
	if !hasReason(got, ReasonChainMismatch) {
		t.Fatalf("missing chain reason: %v", got.Reasons)
	}
}

func TestEligibilityAgeHardGate(t *testing.T) {
	sig := signals(30, 500, "ethereum")
	opp := oppWithRequirements(models.Requirements{
		Chains:           []string{"ethereum"},
		MinWalletAgeDays: 90,
	})

	got := EvaluateEligibility(sig, opp)
	if got.Status != StatusUnlikely || got.Score >= 0.5 {
		t.Fatalf("got %q/%v, want unlikely/<0.5", got.Status, got.Score)
	}
	if !hasReason(got, ReasonAgeBelowMinimum) {
		t.Fatalf("missing age reason: %v", got.Reasons)
	}
}

func TestEligibilityTxSoftGate(t *testing.T) {
	sig := signals(180, 3, "ethereum")
	opp := oppWithRequirements(models.Requirements{
		Chains:           []string{"ethereum"},
		MinWalletAgeDays: 90,
		MinTxCount:       10,
	})

	got := EvaluateEligibility(sig, opp)
	if got.Status != StatusMaybe {
		t.Fatalf("status = %q, want maybe", got.Status)
	}
	if got.Score < 0.5 || got.Score >= 0.8 {
		t.Fatalf("score = %v, want in [0.5, 0.8)", got.Score)
	}
	if hasReason(got, ReasonChainMismatch) || hasReason(got, ReasonAgeBelowMinimum) {
		t.Fatalf("soft gate must not add hard-failure reasons: %v", got.Reasons)
	}
}

func TestEligibilityNoWalletData(t *testing.T) {
	sig := &wallet.Signals{Address: "0x1234567890abcdef1234567890abcdef12345678"}
	opp := oppWithRequirements(models.Requirements{Chains: []string{"ethereum"}})

	got := EvaluateEligibility(sig, opp)
	if got.Status != StatusMaybe || got.Score != 0.5 {
		t.Fatalf("got %q/%v, want maybe/0.5", got.Status, got.Score)
	}
	if len(got.Reasons) != 1 || got.Reasons[0] != ReasonWalletDataUnavailable {
		t.Fatalf("reasons = %v", got.Reasons)
	}
}

func TestEligibilityNoRequirements(t *testing.T) {
	sig := signals(180, 50, "ethereum")
	opp := &models.Opportunity{Slug: "aave-v3-base-usdc", TrustScore: 90}

	got := EvaluateEligibility(sig, opp)
	if got.Status != StatusMaybe || got.Score != 0.5 {
		t.Fatalf("got %q/%v, want maybe/0.5", got.Status, got.Score)
	}
	if len(got.Reasons) != 1 || got.Reasons[0] != ReasonNoRequirements {
		t.Fatalf("reasons = %v", got.Reasons)
	}
}

func TestEligibilityPartialWalletData(t *testing.T) {
	// Age known, tx count unknown: both-null short-circuit must not fire.
	sig := &wallet.Signals{
		Address:       "0x1234567890abcdef1234567890abcdef12345678",
		WalletAgeDays: intPtr(200),
		ChainsActive:  []string{"ethereum"},
	}
	opp := oppWithRequirements(models.Requirements{
		Chains:           []string{"ethereum"},
		MinWalletAgeDays: 90,
		MinTxCount:       10,
	})

	got := EvaluateEligibility(sig, opp)
	if got.Status != StatusMaybe {
		t.Fatalf("unknown tx count with a tx requirement should cap at maybe, got %q", got.Status)
	}
}
