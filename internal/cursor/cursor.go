package cursor

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"time"

	"earnradar/internal/models"
)

// FarFutureExpiry is the sortable sentinel for opportunities without a
// deadline, so expires_at stays a non-empty, comparable string.
const FarFutureExpiry = "9999-12-31T23:59:59Z"

const tupleLen = 6

// Field positions inside the encoded tuple.
const (
	fieldRankScore = iota
	fieldTrustScore
	fieldExpiresAt
	fieldID
	fieldSnapshotTS
	fieldSlugHash
)

var fieldNames = [tupleLen]string{
	"rank_score",
	"trust_score",
	"expires_at",
	"id",
	"snapshot_ts",
	"slug_hash",
}

var (
	ErrEmptyCursor = errors.New("cursor: empty input")
	// ErrMalformed wraps any base64 or JSON failure so callers see a single
	// generic decode error regardless of which layer broke.
	ErrMalformed = errors.New("cursor: malformed cursor")
	ErrNotArray  = errors.New("cursor: tuple must be an array")
	ErrLength    = fmt.Errorf("cursor: tuple must contain exactly %d fields", tupleLen)
)

func fieldError(pos int, want string) error {
	return fmt.Errorf("cursor: field %d (%s) must be %s", pos, fieldNames[pos], want)
}

// Tuple is a position in the feed's five-key total order plus the snapshot
// watermark of the pagination session that produced it.
type Tuple struct {
	RankScore  float64
	TrustScore float64
	ExpiresAt  string
	ID         string
	SnapshotTS int64
	SlugHash   uint32
}

// NewSnapshot returns the watermark for a fresh pagination session.
func NewSnapshot() int64 {
	return time.Now().Unix()
}

// HashSlug maps a slug to a stable non-negative tie-break value (FNV-1a).
// Collisions are accepted: four higher-priority keys compare first.
func HashSlug(slug string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(slug))
	return h.Sum32()
}

// FromOpportunity builds the cursor tuple for the last item of a page.
// snapshotTS must be the session watermark; pass 0 only on the first page,
// where a new snapshot is pinned.
func FromOpportunity(opp *models.Opportunity, snapshotTS int64) Tuple {
	t := Tuple{SnapshotTS: snapshotTS}
	if t.SnapshotTS <= 0 {
		t.SnapshotTS = NewSnapshot()
	}
	if opp == nil {
		return t
	}
	t.TrustScore = opp.TrustScore
	t.RankScore = opp.TrustScore
	if opp.RankScore != nil {
		t.RankScore = *opp.RankScore
	}
	t.ExpiresAt = FarFutureExpiry
	if opp.ExpiresAt != nil {
		t.ExpiresAt = opp.ExpiresAt.UTC().Format(time.RFC3339)
	}
	t.ID = strconv.FormatUint(opp.ID, 10)
	t.SlugHash = HashSlug(opp.Slug)
	return t
}

func (t Tuple) fields() []any {
	return []any{t.RankScore, t.TrustScore, t.ExpiresAt, t.ID, t.SnapshotTS, t.SlugHash}
}

// Encode validates the tuple and returns its opaque token: the JSON array,
// base64url-encoded without padding. Safe for URL query parameters as-is.
func Encode(t Tuple) (string, error) {
	return EncodeFields(t.fields())
}

// EncodeFields is the positional form of Encode. It performs the full
// validation surface so that callers assembling tuples dynamically get the
// same field-identifying rejections as Decode.
func EncodeFields(fields []any) (string, error) {
	if fields == nil {
		return "", ErrNotArray
	}
	if len(fields) != tupleLen {
		return "", ErrLength
	}
	normalized, err := validateFields(fields)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(normalized)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode rejects empty input, wraps transport-level failures as ErrMalformed,
// and re-validates every field with a position-identifying error.
func Decode(cursor string) (Tuple, error) {
	if cursor == "" {
		return Tuple{}, ErrEmptyCursor
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return Tuple{}, ErrMalformed
	}
	var fields []any
	if err := json.Unmarshal(raw, &fields); err != nil {
		// Distinguish a valid JSON non-array from broken JSON.
		var probe any
		if json.Unmarshal(raw, &probe) == nil {
			return Tuple{}, ErrNotArray
		}
		return Tuple{}, ErrMalformed
	}
	if len(fields) != tupleLen {
		return Tuple{}, ErrLength
	}
	normalized, err := validateFields(fields)
	if err != nil {
		return Tuple{}, err
	}
	return Tuple{
		RankScore:  normalized[fieldRankScore].(float64),
		TrustScore: normalized[fieldTrustScore].(float64),
		ExpiresAt:  normalized[fieldExpiresAt].(string),
		ID:         normalized[fieldID].(string),
		SnapshotTS: normalized[fieldSnapshotTS].(int64),
		SlugHash:   normalized[fieldSlugHash].(uint32),
	}, nil
}

// IsValid reports whether Decode would accept the cursor.
func IsValid(cursor string) bool {
	_, err := Decode(cursor)
	return err == nil
}

// SnapshotFrom extracts the session watermark for propagation into the next
// page's FromOpportunity call.
func SnapshotFrom(cursor string) (int64, error) {
	t, err := Decode(cursor)
	if err != nil {
		return 0, err
	}
	return t.SnapshotTS, nil
}

// validateFields checks each position and returns a normalized copy whose
// entries have the canonical Go types, so Encode(Decode(c)) is byte-stable.
func validateFields(fields []any) ([]any, error) {
	out := make([]any, tupleLen)

	rank, ok := asFinite(fields[fieldRankScore])
	if !ok {
		return nil, fieldError(fieldRankScore, "a finite number")
	}
	out[fieldRankScore] = rank

	trust, ok := asFinite(fields[fieldTrustScore])
	if !ok {
		return nil, fieldError(fieldTrustScore, "a finite number")
	}
	out[fieldTrustScore] = trust

	expires, ok := fields[fieldExpiresAt].(string)
	if !ok || expires == "" {
		return nil, fieldError(fieldExpiresAt, "a non-empty string")
	}
	out[fieldExpiresAt] = expires

	id, ok := fields[fieldID].(string)
	if !ok || id == "" {
		return nil, fieldError(fieldID, "a non-empty string")
	}
	out[fieldID] = id

	snapshot, ok := asFinite(fields[fieldSnapshotTS])
	if !ok || snapshot <= 0 {
		return nil, fieldError(fieldSnapshotTS, "a positive number")
	}
	out[fieldSnapshotTS] = int64(snapshot)

	slugHash, ok := asFinite(fields[fieldSlugHash])
	if !ok || slugHash < 0 {
		return nil, fieldError(fieldSlugHash, "a non-negative number")
	}
	out[fieldSlugHash] = uint32(slugHash)

	return out, nil
}

func asFinite(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
