package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"earnradar/internal/cache"
	"earnradar/internal/models"
)

const galxeFixture = `{"campaigns":[
	{"id":"c-101","name":"LayerZero Quest","description":"Complete steps to earn XP","project":"LayerZero","chain":"arbitrum","end_time":"2026-10-01T00:00:00Z","xp":150,"steps":["Bridge once","Swap once"],"required_chains":["Arbitrum"],"min_wallet_age_days":30,"min_tx_count":5},
	{"id":"c-102","name":"ZkSync Retroactive Airdrop","description":"Eligibility check for early users","project":"zkSync","chain":""},
	{"id":"","name":"orphan","project":"nobody"},
	{"id":"c-103","name":"Doge Quest","description":"complete steps","project":"doge","chain":"dogechain"}
]}`

func TestGalxeFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/campaigns" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(galxeFixture))
	}))
	defer srv.Close()

	adapter := NewGalxeAdapter(srv.Client(), cache.NewMemory(), time.Minute, 0)
	adapter.BaseURL = srv.URL
	adapter.SupportedChains = []string{"ethereum", "arbitrum"}

	opps, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	// The orphan record has no id and dogechain is unsupported.
	if len(opps) != 2 {
		t.Fatalf("kept %d opportunities, want 2", len(opps))
	}

	quest := opps[0]
	if quest.Slug != "layerzero-arbitrum-c-101" {
		t.Fatalf("slug = %q", quest.Slug)
	}
	if quest.Type != models.OpportunityTypeQuest {
		t.Fatalf("type = %q, want quest", quest.Type)
	}
	if quest.XPReward == nil || *quest.XPReward != 150 {
		t.Fatalf("xp = %v", quest.XPReward)
	}
	if len(quest.QuestSteps) == 0 {
		t.Fatalf("quest steps missing")
	}
	if quest.ExpiresAt == nil || !quest.ExpiresAt.Equal(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expires_at = %v", quest.ExpiresAt)
	}
	req := quest.RequirementSpec()
	if len(req.Chains) != 1 || req.Chains[0] != "arbitrum" {
		t.Fatalf("required chains = %v", req.Chains)
	}
	if req.MinWalletAgeDays != 30 || req.MinTxCount != 5 {
		t.Fatalf("requirements = %+v", req)
	}

	airdrop := opps[1]
	if airdrop.Type != models.OpportunityTypeAirdrop {
		t.Fatalf("type = %q, want airdrop", airdrop.Type)
	}
	// Missing chain defaults to ethereum.
	if got := airdrop.ChainList(); len(got) != 1 || got[0] != "ethereum" {
		t.Fatalf("chains = %v", got)
	}
	// Airdrops carry no quest payload even if the provider sent one.
	if airdrop.XPReward != nil || len(airdrop.QuestSteps) != 0 {
		t.Fatalf("airdrop carries quest payload")
	}
}
