package ingest

import (
	"testing"

	"earnradar/internal/models"
	"earnradar/internal/source"
)

func makeOpp(src, ref, protocol, chain string) models.Opportunity {
	return models.Opportunity{
		Slug:         source.Slugify(protocol, chain, ref),
		ProtocolName: protocol,
		Source:       src,
		SourceRef:    ref,
		Chains:       models.EncodeChains([]string{chain}),
		Status:       models.OpportunityStatusActive,
	}
}

func TestReconcileSamePassPriority(t *testing.T) {
	incoming := []models.Opportunity{
		makeOpp(source.SourceGalxe, "g-1", "LayerZero", "ethereum"),
		makeOpp(source.SourceDeFiLlama, "d-1", "LayerZero", "ethereum"),
		makeOpp(source.SourceAdmin, "a-1", "LayerZero", "ethereum"),
	}

	winners := Reconcile(nil, incoming)
	if len(winners) != 1 {
		t.Fatalf("winners = %d, want 1", len(winners))
	}
	if winners[0].Source != source.SourceDeFiLlama {
		t.Fatalf("winner source = %q, want defillama", winners[0].Source)
	}
}

func TestReconcileSamePassLastWriteWins(t *testing.T) {
	incoming := []models.Opportunity{
		makeOpp(source.SourceAdmin, "a-1", "LayerZero", "ethereum"),
		makeOpp(source.SourceAdmin, "a-2", "LayerZero", "ethereum"),
	}

	winners := Reconcile(nil, incoming)
	if len(winners) != 1 || winners[0].SourceRef != "a-2" {
		t.Fatalf("winners = %+v, want only a-2", winners)
	}
}

func TestReconcileCrossPassStrictlyHigher(t *testing.T) {
	existing := []models.Opportunity{
		makeOpp(source.SourceAdmin, "a-1", "LayerZero", "ethereum"),
	}

	// A lower-priority source does not displace a persisted record.
	winners := Reconcile(existing, []models.Opportunity{
		makeOpp(source.SourceGalxe, "g-1", "LayerZero", "ethereum"),
	})
	if len(winners) != 0 {
		t.Fatalf("galxe displaced admin: %+v", winners)
	}

	// A higher-priority source does.
	winners = Reconcile(existing, []models.Opportunity{
		makeOpp(source.SourceDeFiLlama, "d-1", "LayerZero", "ethereum"),
	})
	if len(winners) != 1 || winners[0].Source != source.SourceDeFiLlama {
		t.Fatalf("defillama did not displace admin: %+v", winners)
	}
}

func TestReconcileSameSourceRefresh(t *testing.T) {
	existing := []models.Opportunity{
		makeOpp(source.SourceGalxe, "g-1", "LayerZero", "ethereum"),
	}
	refresh := makeOpp(source.SourceGalxe, "g-1", "LayerZero", "ethereum")
	refresh.Title = "updated"

	winners := Reconcile(existing, []models.Opportunity{refresh})
	if len(winners) != 1 || winners[0].Title != "updated" {
		t.Fatalf("refresh dropped: %+v", winners)
	}
}

func TestReconcileDistinctKeysAllSurvive(t *testing.T) {
	incoming := []models.Opportunity{
		makeOpp(source.SourceGalxe, "g-1", "LayerZero", "ethereum"),
		makeOpp(source.SourceGalxe, "g-2", "LayerZero", "arbitrum"),
		makeOpp(source.SourceDeFiLlama, "d-1", "Aave", "ethereum"),
	}

	winners := Reconcile(nil, incoming)
	if len(winners) != 3 {
		t.Fatalf("winners = %d, want 3", len(winners))
	}
}

func TestPriorityOrder(t *testing.T) {
	if !(Priority(source.SourceDeFiLlama) > Priority(source.SourceAdmin) &&
		Priority(source.SourceAdmin) > Priority(source.SourceGalxe)) {
		t.Fatalf("priority order broken: %d/%d/%d",
			Priority(source.SourceDeFiLlama), Priority(source.SourceAdmin), Priority(source.SourceGalxe))
	}
	if Priority("unknown") != 0 {
		t.Fatalf("unknown source priority = %d, want 0", Priority("unknown"))
	}
}
