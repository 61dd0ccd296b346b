package ingest

import (
	"strings"

	"earnradar/internal/models"
	"earnradar/internal/source"
)

// Source priority for cross-source conflicts. Aggregated on-chain data beats
// the curated feed, which beats campaign providers.
var sourcePriority = map[string]int{
	source.SourceDeFiLlama: 3,
	source.SourceAdmin:     2,
	source.SourceGalxe:     1,
}

func Priority(src string) int {
	return sourcePriority[strings.ToLower(strings.TrimSpace(src))]
}

// DedupKey identifies the same real-world opportunity across sources. Two
// records collide when they name the same protocol on the same primary chain.
func DedupKey(opp *models.Opportunity) string {
	if opp == nil {
		return ""
	}
	chain := ""
	if chains := opp.ChainList(); len(chains) > 0 {
		chain = strings.ToLower(chains[0])
	}
	return strings.ToLower(strings.TrimSpace(opp.ProtocolName)) + "|" + chain
}

type candidate struct {
	opp      *models.Opportunity
	thisPass bool
}

// resolve picks the survivor for one dedup key. A record always refreshes its
// own earlier self. Against a record already persisted in a previous pass a
// different source must be strictly higher priority to displace it; within the
// same pass equal priority means last write wins.
func resolve(current candidate, incoming *models.Opportunity) *models.Opportunity {
	if current.opp == nil {
		return incoming
	}
	if incoming == nil {
		return current.opp
	}
	if strings.EqualFold(current.opp.Source, incoming.Source) {
		return incoming
	}
	cur, inc := Priority(current.opp.Source), Priority(incoming.Source)
	if current.thisPass {
		if inc >= cur {
			return incoming
		}
		return current.opp
	}
	if inc > cur {
		return incoming
	}
	return current.opp
}

// Reconcile merges one pass of fetched records against the persisted active
// set and returns the records that should be upserted. Losers are dropped,
// never deleted: their source row simply is not refreshed this pass.
func Reconcile(existing []models.Opportunity, incoming []models.Opportunity) []models.Opportunity {
	byKey := make(map[string]candidate, len(existing))
	for i := range existing {
		opp := &existing[i]
		key := DedupKey(opp)
		if key == "|" || key == "" {
			continue
		}
		prev, ok := byKey[key]
		if !ok || Priority(opp.Source) > Priority(prev.opp.Source) {
			byKey[key] = candidate{opp: opp}
		}
	}

	winners := make(map[string]*models.Opportunity, len(incoming))
	for i := range incoming {
		opp := &incoming[i]
		key := DedupKey(opp)
		if key == "|" || key == "" {
			continue
		}
		cur := byKey[key]
		won := resolve(cur, opp)
		if won != opp {
			continue
		}
		byKey[key] = candidate{opp: opp, thisPass: true}
		winners[key] = opp
	}

	out := make([]models.Opportunity, 0, len(winners))
	for i := range incoming {
		if winners[DedupKey(&incoming[i])] == &incoming[i] {
			out = append(out, incoming[i])
		}
	}
	return out
}
