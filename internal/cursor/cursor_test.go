package cursor

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"earnradar/internal/models"
)

func validTuple() Tuple {
	return Tuple{
		RankScore:  91.5,
		TrustScore: 88,
		ExpiresAt:  "2025-06-30T00:00:00Z",
		ID:         "42",
		SnapshotTS: 1704067200,
		SlugHash:   HashSlug("layerzero-ethereum-zro"),
	}
}

func TestRoundTrip(t *testing.T) {
	tuple := validTuple()
	encoded, err := Encode(tuple)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		decoded, err := Decode(encoded)
		if err != nil {
			t.Fatalf("cycle %d: decode failed: %v", i, err)
		}
		if decoded != tuple {
			t.Fatalf("cycle %d: got %+v, want %+v", i, decoded, tuple)
		}
		re, err := Encode(decoded)
		if err != nil {
			t.Fatalf("cycle %d: re-encode failed: %v", i, err)
		}
		if re != encoded {
			t.Fatalf("cycle %d: re-encode not byte-identical: %q vs %q", i, re, encoded)
		}
		encoded = re
	}
}

func TestEncodeDeterministic(t *testing.T) {
	a, err := Encode(validTuple())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	b, err := Encode(validTuple())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if a != b {
		t.Fatalf("same tuple produced different cursors: %q vs %q", a, b)
	}
}

func TestEncodeURLSafe(t *testing.T) {
	tuple := validTuple()
	tuple.ID = "opportunity-with-a-much-longer-identifier-0123456789"
	encoded, err := Encode(tuple)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if strings.ContainsAny(encoded, "+/=") {
		t.Fatalf("cursor %q contains unsafe characters", encoded)
	}
}

func TestHashSlugDeterministic(t *testing.T) {
	if HashSlug("aave-v3-base-usdc") != HashSlug("aave-v3-base-usdc") {
		t.Fatalf("hash not deterministic")
	}
	if HashSlug("aave-v3-base-usdc") == HashSlug("aave-v3-base-usdt") {
		t.Fatalf("distinct slugs should hash differently here")
	}
}

func TestInjectivityPressure(t *testing.T) {
	base := validTuple()
	variants := []Tuple{base, base, base}
	variants[0].ID = "43"
	variants[1].ExpiresAt = "2025-07-01T00:00:00Z"
	variants[2].SlugHash = HashSlug("different-slug")

	baseCursor, err := Encode(base)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	for i, v := range variants {
		got, err := Encode(v)
		if err != nil {
			t.Fatalf("variant %d: encode failed: %v", i, err)
		}
		if got == baseCursor {
			t.Fatalf("variant %d: cursor identical to base", i)
		}
	}
}

func TestEncodeValidation(t *testing.T) {
	tests := []struct {
		name    string
		fields  []any
		wantErr string
	}{
		{"nil input", nil, ErrNotArray.Error()},
		{"too short", []any{1.0, 2.0, "a", "b", int64(3)}, ErrLength.Error()},
		{"too long", []any{1.0, 2.0, "a", "b", int64(3), uint32(4), "extra"}, ErrLength.Error()},
		{"nan rank", []any{math.NaN(), 2.0, "a", "b", int64(3), uint32(4)}, "field 0 (rank_score) must be a finite number"},
		{"string rank", []any{"80", 2.0, "a", "b", int64(3), uint32(4)}, "field 0 (rank_score) must be a finite number"},
		{"nan trust", []any{1.0, math.NaN(), "a", "b", int64(3), uint32(4)}, "field 1 (trust_score) must be a finite number"},
		{"empty expires", []any{1.0, 2.0, "", "b", int64(3), uint32(4)}, "field 2 (expires_at) must be a non-empty string"},
		{"empty id", []any{1.0, 2.0, "a", "", int64(3), uint32(4)}, "field 3 (id) must be a non-empty string"},
		{"zero snapshot", []any{1.0, 2.0, "a", "b", int64(0), uint32(4)}, "field 4 (snapshot_ts) must be a positive number"},
		{"negative snapshot", []any{1.0, 2.0, "a", "b", int64(-5), uint32(4)}, "field 4 (snapshot_ts) must be a positive number"},
		{"string snapshot", []any{1.0, 2.0, "a", "b", "1704067200", uint32(4)}, "field 4 (snapshot_ts) must be a positive number"},
		{"string slug hash", []any{1.0, 2.0, "a", "b", int64(3), "4"}, "field 5 (slug_hash) must be a non-negative number"},
	}
	for _, tt := range tests {
		_, err := EncodeFields(tt.fields)
		if err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Fatalf("%s: got %q, want substring %q", tt.name, err.Error(), tt.wantErr)
		}
	}
}

func TestDecodeRejections(t *testing.T) {
	if _, err := Decode(""); !errors.Is(err, ErrEmptyCursor) {
		t.Fatalf("empty input: got %v", err)
	}
	if _, err := Decode("%%%not-base64%%%"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("bad base64: got %v", err)
	}
	// "e30" is base64url for "{}" — valid JSON, not an array.
	if _, err := Decode("e30"); !errors.Is(err, ErrNotArray) {
		t.Fatalf("non-array: got %v", err)
	}
	// "WzFd" is base64url for "[1]".
	if _, err := Decode("WzFd"); !errors.Is(err, ErrLength) {
		t.Fatalf("short array: got %v", err)
	}
	if IsValid("WzFd") {
		t.Fatalf("IsValid accepted invalid cursor")
	}
	valid, err := Encode(validTuple())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !IsValid(valid) {
		t.Fatalf("IsValid rejected valid cursor")
	}
}

func TestSnapshotStability(t *testing.T) {
	const snapshot = int64(1704067200)
	rank := func(v float64) *float64 { return &v }
	expiry := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	opps := []*models.Opportunity{
		{ID: 1, Slug: "aave-v3-base-usdc", TrustScore: 90, RankScore: rank(95)},
		{ID: 2, Slug: "layerzero-ethereum-zro", TrustScore: 80, ExpiresAt: &expiry},
		{ID: 3, Slug: "eigenlayer-ethereum-eigen", TrustScore: 85, RankScore: rank(70)},
	}

	seen := map[string]bool{}
	for _, opp := range opps {
		tuple := FromOpportunity(opp, snapshot)
		if tuple.SnapshotTS != snapshot {
			t.Fatalf("opp %d: snapshot %d, want %d", opp.ID, tuple.SnapshotTS, snapshot)
		}
		encoded, err := Encode(tuple)
		if err != nil {
			t.Fatalf("opp %d: encode failed: %v", opp.ID, err)
		}
		if seen[encoded] {
			t.Fatalf("opp %d: duplicate cursor", opp.ID)
		}
		seen[encoded] = true

		got, err := SnapshotFrom(encoded)
		if err != nil {
			t.Fatalf("opp %d: snapshot extract failed: %v", opp.ID, err)
		}
		if got != snapshot {
			t.Fatalf("opp %d: extracted snapshot %d, want %d", opp.ID, got, snapshot)
		}
	}
}

func TestFromOpportunityFallbacks(t *testing.T) {
	opp := &models.Opportunity{ID: 7, Slug: "blur-ethereum-blur", TrustScore: 72}
	tuple := FromOpportunity(opp, 100)
	if tuple.RankScore != 72 {
		t.Fatalf("rank fallback: got %v, want trust score 72", tuple.RankScore)
	}
	if tuple.ExpiresAt != FarFutureExpiry {
		t.Fatalf("expiry sentinel: got %q", tuple.ExpiresAt)
	}
	if tuple.ID != "7" {
		t.Fatalf("id: got %q", tuple.ID)
	}

	pinned := FromOpportunity(opp, 0)
	if pinned.SnapshotTS <= 0 {
		t.Fatalf("zero snapshot must pin a fresh watermark")
	}
}

func TestCompareOrder(t *testing.T) {
	base := validTuple()

	higherRank := base
	higherRank.RankScore = base.RankScore + 1
	if Compare(higherRank, base) != -1 {
		t.Fatalf("higher rank must sort first")
	}

	higherTrust := base
	higherTrust.TrustScore = base.TrustScore + 1
	if Compare(higherTrust, base) != -1 {
		t.Fatalf("higher trust must sort first on rank tie")
	}

	laterExpiry := base
	laterExpiry.ExpiresAt = "2026-01-01T00:00:00Z"
	if Compare(base, laterExpiry) != -1 {
		t.Fatalf("earlier expiry must sort first")
	}

	biggerID := base
	biggerID.ID = "43"
	if Compare(base, biggerID) != -1 {
		t.Fatalf("smaller id must sort first")
	}

	if Compare(base, base) != 0 {
		t.Fatalf("identical tuples must compare equal")
	}
	if !After(biggerID, base) || After(base, biggerID) {
		t.Fatalf("After must agree with Compare")
	}
}
