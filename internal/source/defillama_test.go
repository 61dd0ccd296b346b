package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"earnradar/internal/cache"
	"earnradar/internal/models"
)

const llamaFixture = `{"status":"success","data":[
	{"chain":"Ethereum","project":"aave-v3","symbol":"USDC","pool":"pool-aave-usdc","tvlUsd":2500000,"apy":4.2,"apyBase":3.1},
	{"chain":"Ethereum","project":"tiny-farm","symbol":"TINY","pool":"pool-tiny","tvlUsd":5000,"apy":900},
	{"chain":"Dogechain","project":"doge-yield","symbol":"DOGE","pool":"pool-doge","tvlUsd":9000000,"apy":12},
	{"chain":"Ethereum","project":"lido","symbol":"stETH","pool":"pool-lido","tvlUsd":9000000000,"apy":3.5,"poolMeta":"liquid staking"},
	{"chain":"Ethereum","project":"dead-pool","symbol":"DEAD","pool":"pool-dead","tvlUsd":2000000,"apy":0}
]}`

func TestDeFiLlamaFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pools" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(llamaFixture))
	}))
	defer srv.Close()

	adapter := NewDeFiLlamaAdapter(srv.Client(), cache.NewMemory(), time.Minute, 0)
	adapter.BaseURL = srv.URL
	adapter.SupportedChains = []string{"ethereum", "arbitrum", "base"}

	opps, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	// tiny-farm drops below the TVL floor, dogechain is unsupported, and
	// dead-pool has no yield.
	if len(opps) != 2 {
		t.Fatalf("kept %d opportunities, want 2", len(opps))
	}

	aave := opps[0]
	if aave.Slug != "aave-v3-ethereum-usdc" {
		t.Fatalf("slug = %q", aave.Slug)
	}
	if aave.Source != SourceDeFiLlama || aave.SourceRef != "pool-aave-usdc" {
		t.Fatalf("source ref = %s/%s", aave.Source, aave.SourceRef)
	}
	if aave.Type != models.OpportunityTypeYield {
		t.Fatalf("type = %q, want yield", aave.Type)
	}
	if aave.TrustScore != defillamaTrustDefault {
		t.Fatalf("trust = %v, want %d", aave.TrustScore, defillamaTrustDefault)
	}
	if aave.APY == nil || !aave.APY.Equal(decimal.NewFromFloat(4.2)) {
		t.Fatalf("apy = %v", aave.APY)
	}
	if got := aave.ChainList(); len(got) != 1 || got[0] != "ethereum" {
		t.Fatalf("chains = %v", got)
	}

	lido := opps[1]
	if lido.Type != models.OpportunityTypeStaking {
		t.Fatalf("lido type = %q, want staking", lido.Type)
	}
}

func TestDeFiLlamaFetchReusesCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"status":"success","data":[]}`))
	}))
	defer srv.Close()

	adapter := NewDeFiLlamaAdapter(srv.Client(), cache.NewMemory(), time.Minute, 0)
	adapter.BaseURL = srv.URL

	for i := 0; i < 2; i++ {
		if _, err := adapter.Fetch(context.Background()); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if calls != 1 {
		t.Fatalf("upstream called %d times, want 1", calls)
	}
}
