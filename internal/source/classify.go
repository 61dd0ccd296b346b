package source

import (
	"strings"

	"earnradar/internal/models"
)

// Keyword families that signal what a campaign actually is. Matching is
// case-insensitive over the campaign's combined title and description.
var (
	airdropKeywords = []string{"airdrop", "air drop", "retroactive", "token distribution", "eligibility check"}
	questKeywords   = []string{"quest", "task", "mission", "complete steps"}
)

// ClassifyCampaign labels campaign-style records as airdrop or quest.
// A record is an airdrop only when airdrop-signaling text is present AND no
// quest-signaling text is. Every other combination, including both families
// present, is a quest — the ambiguous case intentionally resolves to quest.
func ClassifyCampaign(text string) string {
	lower := strings.ToLower(text)
	if containsAny(lower, airdropKeywords) && !containsAny(lower, questKeywords) {
		return models.OpportunityTypeAirdrop
	}
	return models.OpportunityTypeQuest
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
