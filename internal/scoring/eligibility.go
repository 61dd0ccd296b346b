package scoring

import (
	"earnradar/internal/models"
	"earnradar/internal/wallet"
)

const (
	StatusLikely   = "likely"
	StatusMaybe    = "maybe"
	StatusUnlikely = "unlikely"
)

const (
	ReasonWalletDataUnavailable = "Wallet data unavailable"
	ReasonNoRequirements        = "No specific requirements"
	ReasonChainMismatch         = "Not active on required chains"
	ReasonChainMatch            = "Active on required chains"
	ReasonAgeBelowMinimum       = "Wallet age below minimum"
	ReasonAgeMet                = "Meets wallet age requirement"
	ReasonLowTxActivity         = "Low recent transaction activity"
)

// EligibilityResult is computed per (wallet, opportunity) pair and never
// persisted. A 0.5 score with one of the degraded-data reasons is a valid
// outcome, distinguishable from a computed mid-confidence score only by its
// reasons literal.
type EligibilityResult struct {
	Status  string   `json:"status"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// EvaluateEligibility scores an opportunity's requirements against the
// wallet's signals. The chain and age checks are hard gates: failing either
// forces "unlikely" regardless of the rest. The transaction-count check is a
// soft gate that can only cap the verdict at "maybe".
func EvaluateEligibility(sig *wallet.Signals, opp *models.Opportunity) EligibilityResult {
	if sig == nil || !sig.HasActivityData() {
		return EligibilityResult{
			Status:  StatusMaybe,
			Score:   0.5,
			Reasons: []string{ReasonWalletDataUnavailable},
		}
	}

	req := opp.RequirementSpec()
	if req.Empty() {
		return EligibilityResult{
			Status:  StatusMaybe,
			Score:   0.5,
			Reasons: []string{ReasonNoRequirements},
		}
	}

	chainOK := len(req.Chains) == 0 || sig.ActiveOn(req.Chains)
	ageOK := passesMinimum(sig.WalletAgeDays, req.MinWalletAgeDays)
	txOK := passesMinimum(sig.TxCount90d, req.MinTxCount)

	score := 0.5
	reasons := make([]string, 0, 3)

	if chainOK {
		score += 0.2
		if len(req.Chains) > 0 {
			reasons = append(reasons, ReasonChainMatch)
		}
	} else {
		score -= 0.25
		reasons = append(reasons, ReasonChainMismatch)
	}
	if ageOK {
		score += 0.2
		if req.MinWalletAgeDays > 0 {
			reasons = append(reasons, ReasonAgeMet)
		}
	} else {
		score -= 0.25
		reasons = append(reasons, ReasonAgeBelowMinimum)
	}
	if txOK {
		score += 0.1
	} else {
		score -= 0.1
		reasons = append(reasons, ReasonLowTxActivity)
	}

	// Severity bands are asymmetric: hard-gate failures land below 0.5, a
	// lone soft-gate failure stays in [0.5, 0.8), full passes at or above 0.8.
	switch {
	case !chainOK || !ageOK:
		return EligibilityResult{Status: StatusUnlikely, Score: clamp(score, 0.05, 0.45), Reasons: reasons}
	case !txOK:
		return EligibilityResult{Status: StatusMaybe, Score: clamp(score, 0.5, 0.75), Reasons: reasons}
	default:
		return EligibilityResult{Status: StatusLikely, Score: clamp(score, 0.8, 1.0), Reasons: reasons}
	}
}

// passesMinimum treats an unknown value as failing only when something is
// actually required.
func passesMinimum(value *int, minimum int) bool {
	if minimum <= 0 {
		return true
	}
	return value != nil && *value >= minimum
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
