package cursor

import "strings"

// Compare implements the feed's five-key total order:
// rank_score desc, trust_score desc, expires_at asc, id asc, slug_hash asc.
// It returns -1 when a sorts before b, 0 when equal, 1 otherwise.
func Compare(a, b Tuple) int {
	if a.RankScore != b.RankScore {
		if a.RankScore > b.RankScore {
			return -1
		}
		return 1
	}
	if a.TrustScore != b.TrustScore {
		if a.TrustScore > b.TrustScore {
			return -1
		}
		return 1
	}
	if c := strings.Compare(a.ExpiresAt, b.ExpiresAt); c != 0 {
		return c
	}
	if c := strings.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	if a.SlugHash != b.SlugHash {
		if a.SlugHash < b.SlugHash {
			return -1
		}
		return 1
	}
	return 0
}

// After reports whether item sorts strictly after last. Forward progress
// between pages is defined purely by this predicate, so items already served
// under the session snapshot are never re-served.
func After(item, last Tuple) bool {
	return Compare(item, last) > 0
}
