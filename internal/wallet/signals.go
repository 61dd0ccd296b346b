package wallet

import "strings"

// Signals is the cached, read-only view of a wallet's on-chain footprint.
// Nil pointer fields mean "data unavailable", never zero.
type Signals struct {
	Address          string   `json:"address"`
	WalletAgeDays    *int     `json:"wallet_age_days"`
	TxCount90d       *int     `json:"tx_count_90d"`
	ChainsActive     []string `json:"chains_active"`
	TopAssets        []Asset  `json:"top_assets"`
	StablecoinUSDEst *float64 `json:"stablecoin_usd_est"`
}

type Asset struct {
	Symbol string  `json:"symbol"`
	Amount float64 `json:"amount"`
}

// HasActivityData reports whether at least one of the activity fields is
// known. When false, eligibility scoring short-circuits to "maybe".
func (s *Signals) HasActivityData() bool {
	return s != nil && (s.WalletAgeDays != nil || s.TxCount90d != nil)
}

// ActiveOn reports whether the wallet has activity on any of the given chains.
// Providers are not consistent about chain name casing.
func (s *Signals) ActiveOn(chains []string) bool {
	if s == nil {
		return false
	}
	for _, want := range chains {
		for _, have := range s.ChainsActive {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}
