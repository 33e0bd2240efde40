package stockledger

import (
	"reflect"
	"testing"

	"github.com/tranvda/mfg-backend/internal/domain"
)

func material(id int64, stock int) domain.Material {
	return domain.Material{ID: id, Name: "material", Stock: stock}
}

func orderWith(status domain.OrderStatus, lines ...domain.CommittedMaterial) domain.ProductionOrder {
	return domain.ProductionOrder{Status: status, CommittedMaterials: lines}
}

func TestComputeCommittedOnlyCountsActiveOrders(t *testing.T) {
	orders := []domain.ProductionOrder{
		orderWith(domain.StatusPending, domain.CommittedMaterial{MaterialID: 1, Quantity: 30}),
		orderWith(domain.StatusInProduction, domain.CommittedMaterial{MaterialID: 1, Quantity: 10}, domain.CommittedMaterial{MaterialID: 2, Quantity: 5}),
		orderWith(domain.StatusCompleted, domain.CommittedMaterial{MaterialID: 1, Quantity: 99}),
		orderWith(domain.StatusCancelled, domain.CommittedMaterial{MaterialID: 2, Quantity: 99}),
		orderWith(domain.StatusNew, domain.CommittedMaterial{MaterialID: 2, Quantity: 99}),
	}

	got := ComputeCommitted(orders)
	want := map[int64]int{1: 40, 2: 5}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ComputeCommitted = %v, want %v", got, want)
	}
}

func TestComputeCommittedMissingLinesMeanZero(t *testing.T) {
	orders := []domain.ProductionOrder{
		{Status: domain.StatusPending},
	}

	if got := ComputeCommitted(orders); len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
}

func TestEnhanceStockStatus(t *testing.T) {
	tests := []struct {
		name       string
		stock      int
		committed  int
		wantAvail  int
		wantStatus domain.StockStatus
	}{
		{"good stock at exactly half", 100, 30, 70, domain.StockStatusGood},
		{"low stock under 20 percent", 20, 18, 2, domain.StockStatusLow},
		{"medium stock", 100, 60, 40, domain.StockStatusMedium},
		{"zero stock is always out", 0, 0, 0, domain.StockStatusOut},
		{"fully committed", 50, 50, 0, domain.StockStatusOut},
		{"over-committed clamps to zero", 50, 80, 0, domain.StockStatusOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Enhance([]domain.Material{material(1, tt.stock)}, map[int64]int{1: tt.committed})
			if len(got) != 1 {
				t.Fatalf("expected 1 enhanced material, got %d", len(got))
			}
			if got[0].AvailableStock != tt.wantAvail {
				t.Errorf("available = %d, want %d", got[0].AvailableStock, tt.wantAvail)
			}
			if got[0].StockStatus != tt.wantStatus {
				t.Errorf("status = %s, want %s", got[0].StockStatus, tt.wantStatus)
			}
		})
	}
}

func TestEnhanceInvariant(t *testing.T) {
	materials := []domain.Material{material(1, 100), material(2, 10), material(3, 0)}
	committed := map[int64]int{1: 25, 2: 40}

	for _, em := range Enhance(materials, committed) {
		want := em.Stock - em.CommittedQuantity
		if want < 0 {
			want = 0
		}
		if em.AvailableStock != want {
			t.Errorf("material %d: available = %d, want max(0, %d-%d)", em.ID, em.AvailableStock, em.Stock, em.CommittedQuantity)
		}
		if em.CommittedQuantity < 0 {
			t.Errorf("material %d: negative committed quantity", em.ID)
		}
	}
}

func TestEnhanceCommitmentRatio(t *testing.T) {
	got := Enhance([]domain.Material{material(1, 100)}, map[int64]int{1: 25})
	if got[0].CommitmentRatio != 0.25 {
		t.Fatalf("commitment ratio = %v, want 0.25", got[0].CommitmentRatio)
	}

	// zero stock must not divide
	got = Enhance([]domain.Material{material(2, 0)}, map[int64]int{2: 10})
	if got[0].CommitmentRatio != 0 {
		t.Fatalf("commitment ratio with zero stock = %v, want 0", got[0].CommitmentRatio)
	}
}

func TestCheckAvailability(t *testing.T) {
	enhanced := Enhance(
		[]domain.Material{material(1, 100), material(2, 20)},
		map[int64]int{1: 30, 2: 18},
	)

	t.Run("all satisfied", func(t *testing.T) {
		res := CheckAvailability(enhanced, []Requirement{
			{MaterialID: 1, Quantity: 70},
			{MaterialID: 2, Quantity: 2},
		})
		if !res.IsAvailable {
			t.Fatalf("expected available, shortages: %v", res.Shortages)
		}
		if len(res.Shortages) != 0 {
			t.Fatalf("expected no shortages, got %v", res.Shortages)
		}
	})

	t.Run("shortages are exactly the failing subset", func(t *testing.T) {
		res := CheckAvailability(enhanced, []Requirement{
			{MaterialID: 1, Quantity: 71},
			{MaterialID: 2, Quantity: 2},
		})
		if res.IsAvailable {
			t.Fatal("expected unavailable")
		}
		if len(res.Shortages) != 1 || res.Shortages[0].MaterialID != 1 {
			t.Fatalf("unexpected shortages: %v", res.Shortages)
		}
		if res.Shortages[0].Required != 71 || res.Shortages[0].Available != 70 {
			t.Fatalf("shortage numbers wrong: %+v", res.Shortages[0])
		}
	})

	t.Run("unknown material is a zero-availability shortage", func(t *testing.T) {
		res := CheckAvailability(enhanced, []Requirement{{MaterialID: 42, Quantity: 1}})
		if res.IsAvailable {
			t.Fatal("expected unavailable")
		}
		if res.Shortages[0].Available != 0 {
			t.Fatalf("expected zero availability, got %v", res.Shortages[0].Available)
		}
	})
}

func TestCheckAvailabilityDoesNotMutate(t *testing.T) {
	materials := []domain.Material{material(1, 10)}
	enhanced := Enhance(materials, nil)
	before := enhanced[0]

	CheckAvailability(enhanced, []Requirement{{MaterialID: 1, Quantity: 5}})

	if !reflect.DeepEqual(enhanced[0], before) {
		t.Fatal("CheckAvailability mutated the enhanced view")
	}
}

func TestMonotonicityAvailableNeverIncreasesWithCommitment(t *testing.T) {
	prev := -1
	for committed := 0; committed <= 120; committed += 10 {
		got := Enhance([]domain.Material{material(1, 100)}, map[int64]int{1: committed})
		if prev >= 0 && got[0].AvailableStock > prev {
			t.Fatalf("available increased from %d to %d when committed rose to %d", prev, got[0].AvailableStock, committed)
		}
		prev = got[0].AvailableStock
	}
}
