package forecast

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/tranvda/mfg-backend/internal/domain"
)

// A fixed clock in May keeps every projection bucket at the neutral
// seasonal factor.
var mayClock = func() time.Time {
	return time.Date(2025, time.May, 1, 8, 0, 0, 0, time.UTC)
}

func snapshotWith(materials []domain.Material, orders []domain.ProductionOrder, boms []domain.BOM) *domain.Snapshot {
	return &domain.Snapshot{Materials: materials, Orders: orders, BOMs: boms}
}

func activeOrder(id, bomID int64, qty int, created time.Time) domain.ProductionOrder {
	return domain.ProductionOrder{
		ID:               id,
		BOMID:            bomID,
		QuantityProduced: qty,
		Status:           domain.StatusPending,
		CreationDate:     created,
	}
}

func consumedOrder(materialID int64, qty float64) domain.ProductionOrder {
	done := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	return domain.ProductionOrder{
		Status:      domain.StatusCompleted,
		CompletedAt: &done,
		ActualCosts: &domain.ActualCosts{
			MaterialCosts: []domain.MaterialCost{{MaterialID: materialID, Quantity: qty}},
		},
	}
}

func TestDemandProjectionBucketsActiveOrders(t *testing.T) {
	now := mayClock()
	bom := domain.BOM{ID: 1, Lines: []domain.BOMLine{{MaterialID: 1, Quantity: 2}}}
	orders := []domain.ProductionOrder{
		activeOrder(10, 1, 5, now),                    // +1 day -> week 0, demand 10
		activeOrder(11, 1, 3, now.AddDate(0, 0, 8)),   // -> week 1, demand 6
		activeOrder(12, 1, 4, now.AddDate(0, 0, -10)), // overdue -> week 0, demand 8
		activeOrder(13, 1, 9, now.AddDate(0, 0, 40)),  // beyond horizon, dropped
		{ID: 14, BOMID: 1, QuantityProduced: 100, Status: domain.StatusCompleted, CreationDate: now},
	}
	snap := snapshotWith([]domain.Material{{ID: 1, Stock: 1000}}, orders, []domain.BOM{bom})

	f := NewForecaster(snap, WithClock(mayClock))
	fc := f.ForecastMaterial(f.Materials()[0])

	if len(fc.ProjectedDemand) != 4 {
		t.Fatalf("expected 4 weekly buckets, got %d", len(fc.ProjectedDemand))
	}
	if got := fc.ProjectedDemand[0].ProjectedDemand; got != 18 {
		t.Errorf("week 0 demand = %v, want 18", got)
	}
	if got := fc.ProjectedDemand[1].ProjectedDemand; got != 6 {
		t.Errorf("week 1 demand = %v, want 6", got)
	}
	if got := fc.ProjectedDemand[2].ProjectedDemand; got != 0 {
		t.Errorf("week 2 demand = %v, want 0", got)
	}
	if !reflect.DeepEqual(fc.ProjectedDemand[0].BasedOnOrders, []int64{10, 12}) {
		t.Errorf("week 0 orders = %v, want [10 12]", fc.ProjectedDemand[0].BasedOnOrders)
	}
}

func TestDemandProjectionAddsSeasonalTrend(t *testing.T) {
	// December clock: every bucket lands in the peak season (Dec/Jan).
	decClock := func() time.Time {
		return time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)
	}
	snap := snapshotWith(
		[]domain.Material{{ID: 1, Stock: 100}},
		[]domain.ProductionOrder{consumedOrder(1, 10), consumedOrder(1, 20)},
		nil,
	)

	f := NewForecaster(snap, WithClock(decClock))
	fc := f.ForecastMaterial(f.Materials()[0])

	// historical average 15, peak factor 1.2 -> 18 per bucket
	for i, w := range fc.ProjectedDemand {
		if math.Abs(w.ProjectedDemand-18) > 1e-9 {
			t.Errorf("bucket %d demand = %v, want 18", i, w.ProjectedDemand)
		}
	}
}

func TestBucketConfidence(t *testing.T) {
	now := mayClock()
	bom := domain.BOM{ID: 1, Lines: []domain.BOMLine{{MaterialID: 1, Quantity: 1}}}
	orders := []domain.ProductionOrder{
		activeOrder(10, 1, 1, now),
		activeOrder(11, 1, 1, now),
		consumedOrder(1, 5),
	}
	snap := snapshotWith([]domain.Material{{ID: 1, Stock: 100}}, orders, []domain.BOM{bom})

	f := NewForecaster(snap, WithClock(mayClock))
	fc := f.ForecastMaterial(f.Materials()[0])

	// week 0: 0.5 + 2 orders x 0.1 + 0.2 history bonus = 0.9
	if got := fc.ProjectedDemand[0].Confidence; math.Abs(got-0.9) > 1e-9 {
		t.Errorf("week 0 confidence = %v, want 0.9", got)
	}
	// week 3: no orders, history bonus only
	if got := fc.ProjectedDemand[3].Confidence; math.Abs(got-0.7) > 1e-9 {
		t.Errorf("week 3 confidence = %v, want 0.7", got)
	}
}

func TestReorderPointUsesVariability(t *testing.T) {
	now := mayClock()
	bom := domain.BOM{ID: 1, Lines: []domain.BOMLine{{MaterialID: 1, Quantity: 1}}}
	// One active order consuming 30 in week 0 -> avg daily = 1.
	orders := []domain.ProductionOrder{activeOrder(10, 1, 30, now)}
	snap := snapshotWith([]domain.Material{{ID: 1, Stock: 500}}, orders, []domain.BOM{bom})

	f := NewForecaster(snap, WithClock(mayClock))
	fc := f.ForecastMaterial(f.Materials()[0])

	// No consumption history -> default variability 0.3:
	// 1x7 + 1x3x1.3 = 10.9 -> ceil 11
	if fc.ReorderPoint != 11 {
		t.Errorf("reorder point = %d, want 11", fc.ReorderPoint)
	}
}

func TestEOQClamping(t *testing.T) {
	tests := []struct {
		name     string
		avgDaily float64
		price    float64
		want     int
	}{
		{"zero demand floors at minimum", 0, 100, 10},
		{"zero price floors at minimum", 5, 0, 10},
		{"huge demand cheap item caps at maximum", 1000, 1, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := economicOrderQuantity(tt.avgDaily, tt.price); got != tt.want {
				t.Errorf("eoq = %d, want %d", got, tt.want)
			}
		})
	}

	// Middle of the range: sqrt(2 x 365 x 100000 / 2000) ~ 191
	got := economicOrderQuantity(1, 10_000)
	if got < 10 || got > 1000 {
		t.Fatalf("eoq %d outside clamp range", got)
	}
	want := int(math.Round(math.Sqrt(2 * 365 * 100_000 / 2000.0)))
	if got != want {
		t.Errorf("eoq = %d, want %d", got, want)
	}
}

func TestStockoutRiskTiers(t *testing.T) {
	tests := []struct {
		name      string
		available int
		demand    float64
		want      float64
	}{
		{"no available stock", 0, 100, 1.0},
		{"no available stock no demand", 0, 0, 1.0},
		{"no demand", 50, 0, 0.1},
		{"ample coverage", 150, 100, 0.1},
		{"adequate coverage", 100, 100, 0.3},
		{"half coverage", 50, 100, 0.6},
		{"deep shortage", 10, 100, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stockoutRisk(tt.available, tt.demand); got != tt.want {
				t.Errorf("risk = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestZeroStockMaterialAlwaysMaxRisk(t *testing.T) {
	snap := snapshotWith([]domain.Material{{ID: 1, Stock: 0}}, nil, nil)
	f := NewForecaster(snap, WithClock(mayClock))
	fc := f.ForecastMaterial(f.Materials()[0])

	if fc.StockoutRisk != 1.0 {
		t.Errorf("risk = %v, want 1.0 for zero stock", fc.StockoutRisk)
	}
	if f.Materials()[0].StockStatus != domain.StockStatusOut {
		t.Errorf("status = %v, want out-of-stock", f.Materials()[0].StockStatus)
	}
}

func TestRecommendationOutOfStock(t *testing.T) {
	// Fully committed material: stock present but nothing available.
	bom := domain.BOM{ID: 1, Lines: []domain.BOMLine{{MaterialID: 1, Quantity: 1}}}
	orders := []domain.ProductionOrder{
		{ID: 10, BOMID: 1, QuantityProduced: 50, Status: domain.StatusInProduction,
			CreationDate:       mayClock(),
			CommittedMaterials: []domain.CommittedMaterial{{MaterialID: 1, Quantity: 50}}},
	}
	snap := snapshotWith(
		[]domain.Material{{ID: 1, Name: "Vải bố", Stock: 50, PurchasePrice: 200, Supplier: "Dệt Nam Định"}},
		orders, []domain.BOM{bom},
	)

	f := NewForecaster(snap, WithClock(mayClock))
	fc := f.ForecastMaterial(f.Materials()[0])

	rec := fc.Recommendation
	if rec.Action != domain.ActionImmediate || rec.UrgencyLevel != domain.UrgencyCritical || rec.ReasonCode != domain.ReasonOutOfStock {
		t.Fatalf("unexpected recommendation: %+v", rec)
	}
	if rec.RecommendedQuantity != 2*fc.OptimalOrderQuantity {
		t.Errorf("quantity = %d, want double EOQ %d", rec.RecommendedQuantity, 2*fc.OptimalOrderQuantity)
	}
	if rec.EstimatedCost != float64(rec.RecommendedQuantity)*200 {
		t.Errorf("estimated cost = %v, want quantity x purchase price", rec.EstimatedCost)
	}
	if rec.PreferredSupplier != "Dệt Nam Định" {
		t.Errorf("supplier = %q", rec.PreferredSupplier)
	}
}

func TestRecommendationTiers(t *testing.T) {
	rp, eoq := 20, 100
	m := func(available int) domain.EnhancedMaterial {
		return domain.EnhancedMaterial{
			Material:       domain.Material{PurchasePrice: 10},
			AvailableStock: available,
		}
	}

	tests := []struct {
		name       string
		material   domain.EnhancedMaterial
		risk       float64
		wantReason string
		wantQty    int
	}{
		{"critical low stock", m(5), 0.9, domain.ReasonCriticalLowStock, eoq},
		{"below reorder point", m(15), 0.6, domain.ReasonBelowReorderPoint, eoq},
		{"projected shortage", m(50), 0.6, domain.ReasonProjectedShortage, 70},
		{"adequate", m(500), 0.1, domain.ReasonStockAdequate, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := recommend(tt.material, tt.risk, rp, eoq)
			if rec.ReasonCode != tt.wantReason {
				t.Errorf("reason = %s, want %s", rec.ReasonCode, tt.wantReason)
			}
			if rec.RecommendedQuantity != tt.wantQty {
				t.Errorf("quantity = %d, want %d", rec.RecommendedQuantity, tt.wantQty)
			}
		})
	}
}

func TestForecastIsIdempotent(t *testing.T) {
	now := mayClock()
	bom := domain.BOM{ID: 1, Lines: []domain.BOMLine{{MaterialID: 1, Quantity: 2}}}
	orders := []domain.ProductionOrder{
		activeOrder(10, 1, 5, now),
		consumedOrder(1, 12),
	}
	snap := snapshotWith([]domain.Material{{ID: 1, Stock: 40, PurchasePrice: 100}}, orders, []domain.BOM{bom})
	f := NewForecaster(snap, WithClock(mayClock))

	first := f.GenerateInventoryForecast()
	second := f.GenerateInventoryForecast()
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two forecasts over the same snapshot differ")
	}
}

func TestStockoutRiskMonotonicInCommitment(t *testing.T) {
	bom := domain.BOM{ID: 1, Lines: []domain.BOMLine{{MaterialID: 1, Quantity: 1}}}
	now := mayClock()

	prevRisk := -1.0
	for committed := 0; committed <= 100; committed += 20 {
		orders := []domain.ProductionOrder{
			activeOrder(10, 1, 30, now),
			{ID: 11, BOMID: 1, Status: domain.StatusPending, CreationDate: now,
				CommittedMaterials: []domain.CommittedMaterial{{MaterialID: 1, Quantity: committed}}},
		}
		snap := snapshotWith([]domain.Material{{ID: 1, Stock: 100, PurchasePrice: 100}}, orders, []domain.BOM{bom})
		f := NewForecaster(snap, WithClock(mayClock))
		fc := f.ForecastMaterial(f.Materials()[0])

		if prevRisk >= 0 && fc.StockoutRisk < prevRisk {
			t.Fatalf("risk decreased from %v to %v when committed rose to %d", prevRisk, fc.StockoutRisk, committed)
		}
		prevRisk = fc.StockoutRisk
	}
}

func TestInventorySummaryClassification(t *testing.T) {
	now := mayClock()
	bom := domain.BOM{ID: 1, Lines: []domain.BOMLine{{MaterialID: 1, Quantity: 10}}}
	orders := []domain.ProductionOrder{activeOrder(10, 1, 100, now)} // demand 1000 on material 1

	materials := []domain.Material{
		{ID: 1, Stock: 50, PurchasePrice: 1000}, // deep shortage -> critical
		{ID: 2, Stock: 5000, PurchasePrice: 10}, // way above 3x EOQ -> overstock
		{ID: 3, Stock: 20, PurchasePrice: 10},   // no demand -> adequate
	}
	snap := snapshotWith(materials, orders, []domain.BOM{bom})

	f := NewForecaster(snap, WithClock(mayClock))
	summary := f.GetInventorySummary()

	if summary.TotalMaterials != 3 {
		t.Fatalf("total = %d, want 3", summary.TotalMaterials)
	}
	if summary.CriticalMaterials != 1 || summary.OverstockMaterials != 1 || summary.AdequateMaterials != 1 {
		t.Fatalf("classification = %+v", summary)
	}
	if summary.ValueAtRisk != 50*1000 {
		t.Errorf("value at risk = %v, want 50000", summary.ValueAtRisk)
	}
}

func TestCriticalAlerts(t *testing.T) {
	now := mayClock()
	bom := domain.BOM{ID: 1, Lines: []domain.BOMLine{{MaterialID: 1, Quantity: 10}}}
	orders := []domain.ProductionOrder{activeOrder(10, 1, 100, now)}
	materials := []domain.Material{
		{ID: 1, Stock: 50, PurchasePrice: 100},  // risk 0.9
		{ID: 2, Stock: 500, PurchasePrice: 100}, // no demand, low risk
	}
	snap := snapshotWith(materials, orders, []domain.BOM{bom})

	f := NewForecaster(snap, WithClock(mayClock))
	alerts := f.GetCriticalAlerts()

	if len(alerts) != 1 || alerts[0].MaterialID != 1 {
		t.Fatalf("alerts = %v, want only material 1", alerts)
	}
}

func TestUrgentMaterialsSortedByRisk(t *testing.T) {
	now := mayClock()
	boms := []domain.BOM{
		{ID: 1, Lines: []domain.BOMLine{{MaterialID: 1, Quantity: 10}}},
		{ID: 2, Lines: []domain.BOMLine{{MaterialID: 2, Quantity: 1}}},
	}
	orders := []domain.ProductionOrder{
		activeOrder(10, 1, 100, now), // material 1: demand 1000 vs 50 -> 0.9
		activeOrder(11, 2, 100, now), // material 2: demand 100 vs 60 -> 0.6
	}
	materials := []domain.Material{
		{ID: 1, Stock: 50, PurchasePrice: 100},
		{ID: 2, Stock: 60, PurchasePrice: 100},
		{ID: 3, Stock: 500, PurchasePrice: 100},
	}
	snap := snapshotWith(materials, orders, boms)

	f := NewForecaster(snap, WithClock(mayClock))
	urgent := f.GetUrgentMaterials(10)

	if len(urgent) != 2 {
		t.Fatalf("urgent count = %d, want 2", len(urgent))
	}
	if urgent[0].MaterialID != 1 || urgent[1].MaterialID != 2 {
		t.Errorf("order = [%d %d], want [1 2]", urgent[0].MaterialID, urgent[1].MaterialID)
	}
}
