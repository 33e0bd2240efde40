package costing

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/tranvda/mfg-backend/internal/domain"
)

var testClock = func() time.Time {
	// A fixed mid-year date keeps the seasonal capacity factor quiet.
	return time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
}

func completedOrder(id int64, name string, qty int, bomID int64, total, actual float64, completedAt time.Time) domain.ProductionOrder {
	variance := 0.0
	if total > 0 {
		variance = (actual - total) / total
	}
	return domain.ProductionOrder{
		ID:               id,
		BOMID:            bomID,
		ProductName:      name,
		QuantityProduced: qty,
		Status:           domain.StatusCompleted,
		TotalCost:        total,
		CostAnalysis:     &domain.CostAnalysis{EstimatedCost: total, ActualCost: actual, Variance: variance},
		CompletedAt:      &completedAt,
		CreationDate:     completedAt.AddDate(0, 0, -7),
	}
}

func targetOrder(total float64) domain.ProductionOrder {
	return domain.ProductionOrder{
		ID:               500,
		BOMID:            7,
		ProductName:      "Ghế gỗ sồi",
		QuantityProduced: 50,
		Status:           domain.StatusPending,
		TotalCost:        total,
		CreationDate:     testClock(),
	}
}

func similarHistory(n int) History {
	orders := make([]domain.ProductionOrder, 0, n)
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		orders = append(orders, completedOrder(
			int64(i+1), "Ghế gỗ sồi", 50, 7,
			1_000_000, 1_000_000, base.AddDate(0, 0, i*7),
		))
	}
	return NewHistory(orders)
}

func TestBasicPredictionWithEmptyHistory(t *testing.T) {
	p := NewPredictor(NewHistory(nil), WithClock(testClock))

	got := p.PredictCost(targetOrder(1_000_000), domain.BOM{}, nil)

	if got.PredictedTotalCost != 1_050_000 {
		t.Errorf("predicted = %v, want 1050000", got.PredictedTotalCost)
	}
	if got.ConfidenceLevel != 0.6 {
		t.Errorf("confidence = %v, want 0.6", got.ConfidenceLevel)
	}
	if got.RiskAssessment.OverallRisk != domain.RiskMedium {
		t.Errorf("overall risk = %v, want medium", got.RiskAssessment.OverallRisk)
	}
	if len(got.RiskAssessment.MitigationSuggestions) == 0 {
		t.Error("expected a mitigation suggestion about collecting more data")
	}
	if len(got.PredictionFactors) != 1 || got.PredictionFactors[0].Impact != domain.ImpactNeutral {
		t.Errorf("expected single neutral factor, got %v", got.PredictionFactors)
	}
}

func TestBasicPredictionBelowThreeComparables(t *testing.T) {
	p := NewPredictor(similarHistory(2), WithClock(testClock))

	got := p.PredictCost(targetOrder(2_000_000), domain.BOM{}, nil)
	if got.PredictedTotalCost != 2_100_000 {
		t.Errorf("predicted = %v, want flat 5%% contingency", got.PredictedTotalCost)
	}
	if got.ConfidenceLevel != 0.6 {
		t.Errorf("confidence = %v, want 0.6", got.ConfidenceLevel)
	}
}

func TestBasicPredictionZeroCostOrderIsWellDefined(t *testing.T) {
	p := NewPredictor(NewHistory(nil), WithClock(testClock))

	got := p.PredictCost(targetOrder(0), domain.BOM{}, nil)
	if got.PredictedTotalCost != 0 {
		t.Errorf("predicted = %v, want 0", got.PredictedTotalCost)
	}
	if len(got.RiskAssessment.RiskFactors) != 0 {
		t.Errorf("zero-cost order must not produce risk factors, got %v", got.RiskAssessment.RiskFactors)
	}
}

func TestSimilarityScoring(t *testing.T) {
	target := domain.ProductionOrder{ProductName: "Bàn làm việc", QuantityProduced: 100, BOMID: 3}

	tests := []struct {
		name      string
		candidate domain.ProductionOrder
		want      float64
	}{
		{
			"identical order",
			domain.ProductionOrder{ProductName: "Bàn làm việc", QuantityProduced: 100, BOMID: 3},
			1.0,
		},
		{
			"exact name different bom and qty",
			domain.ProductionOrder{ProductName: "bàn làm việc", QuantityProduced: 50, BOMID: 9},
			0.4 + 0.5*0.3,
		},
		{
			"substring name",
			domain.ProductionOrder{ProductName: "Bàn làm việc gỗ óc chó", QuantityProduced: 100, BOMID: 9},
			0.2 + 0.3,
		},
		{
			"same bom only",
			domain.ProductionOrder{ProductName: "Kệ sách", QuantityProduced: 0, BOMID: 3},
			0.3,
		},
		{
			"nothing in common",
			domain.ProductionOrder{ProductName: "Kệ sách", QuantityProduced: 0, BOMID: 8},
			0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := similarity(target, tt.candidate)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("similarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPredictCostWithSufficientHistory(t *testing.T) {
	// Five comparables that all ran 10% over estimate.
	orders := make([]domain.ProductionOrder, 0, 5)
	base := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		orders = append(orders, completedOrder(int64(i+1), "Ghế gỗ sồi", 50, 7, 1_000_000, 1_100_000, base.AddDate(0, 0, i*10)))
	}

	p := NewPredictor(NewHistory(orders), WithClock(testClock), WithReliability(FixedReliability(0.9)))

	bom := domain.BOM{ID: 7, Lines: []domain.BOMLine{{MaterialID: 1, Quantity: 2}}}
	materials := []domain.EnhancedMaterial{{
		Material:       domain.Material{ID: 1, Supplier: "Gỗ Việt", PurchasePrice: 500},
		AvailableStock: 1000,
	}}

	got := p.PredictCost(targetOrder(1_000_000), bom, materials)

	if got.BasedOnHistoricalOrders != 5 {
		t.Fatalf("based on = %d, want 5", got.BasedOnHistoricalOrders)
	}
	if len(got.PredictionFactors) != 4 {
		t.Fatalf("expected 4 factors, got %d", len(got.PredictionFactors))
	}
	// Base cost amplified by the observed 10% overrun.
	if got.PredictedTotalCost < 1_000_000 {
		t.Errorf("predicted = %v, expected above estimate given historical overruns", got.PredictedTotalCost)
	}
	// Confidence: 0.5 + (5/10)*0.3 + 0.25*0.2 = 0.70
	if diff := got.ConfidenceLevel - 0.70; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("confidence = %v, want 0.70", got.ConfidenceLevel)
	}
}

func TestPredictCostIsIdempotent(t *testing.T) {
	p := NewPredictor(similarHistory(6), WithClock(testClock), WithReliability(FixedReliability(0.8)))

	bom := domain.BOM{ID: 7, Lines: []domain.BOMLine{{MaterialID: 1, Quantity: 1}}}
	materials := []domain.EnhancedMaterial{{
		Material:       domain.Material{ID: 1, Supplier: "A", PurchasePrice: 100},
		AvailableStock: 10,
	}}
	order := targetOrder(3_000_000)

	first := p.PredictCost(order, bom, materials)
	second := p.PredictCost(order, bom, materials)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two predictions over the same inputs differ")
	}
}

func TestFactorAdjustmentDirection(t *testing.T) {
	factors := []domain.PredictionFactor{
		{Impact: domain.ImpactPositive, Weight: 0.3},
		{Impact: domain.ImpactNeutral, Weight: 0.2},
	}
	got := applyFactors(1000, factors)
	want := 1000 * (1 - 0.05*0.3)
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("applyFactors = %v, want %v", got, want)
	}

	factors[0].Impact = domain.ImpactNegative
	got = applyFactors(1000, factors)
	want = 1000 * (1 + 0.10*0.3)
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("applyFactors = %v, want %v", got, want)
	}
}

func TestComplexityBuckets(t *testing.T) {
	lines := func(n int) []domain.BOMLine {
		out := make([]domain.BOMLine, n)
		for i := range out {
			out[i] = domain.BOMLine{MaterialID: int64(i + 1), Quantity: 1}
		}
		return out
	}

	tests := []struct {
		count int
		want  domain.FactorImpact
	}{
		{0, domain.ImpactPositive},
		{3, domain.ImpactPositive},
		{4, domain.ImpactNeutral},
		{6, domain.ImpactNeutral},
		{7, domain.ImpactNegative},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d lines", tt.count), func(t *testing.T) {
			f := complexityFactor(domain.BOM{Lines: lines(tt.count)})
			if f.Impact != tt.want {
				t.Errorf("impact = %v, want %v", f.Impact, tt.want)
			}
		})
	}
}

func TestHistoryWindowCapsAtHundred(t *testing.T) {
	orders := make([]domain.ProductionOrder, 0, 150)
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 150; i++ {
		orders = append(orders, completedOrder(int64(i+1), "SP", 10, 1, 100, 100, base.AddDate(0, 0, i)))
	}

	h := NewHistory(orders)
	if h.Len() != 100 {
		t.Fatalf("history len = %d, want 100", h.Len())
	}
	// Most recent completion must survive the trim.
	if h.Orders()[0].ID != 150 {
		t.Errorf("newest order id = %d, want 150", h.Orders()[0].ID)
	}
}

func TestHistoryAppendIsFunctional(t *testing.T) {
	h := similarHistory(5)
	newOrder := completedOrder(99, "Ghế gỗ sồi", 50, 7, 100, 100, testClock())

	h2 := h.Append(newOrder)
	if h.Len() != 5 {
		t.Errorf("original history mutated: len = %d", h.Len())
	}
	if h2.Len() != 6 || h2.Orders()[0].ID != 99 {
		t.Errorf("appended history wrong: len=%d first=%d", h2.Len(), h2.Orders()[0].ID)
	}

	// Ineligible orders are ignored.
	h3 := h2.Append(domain.ProductionOrder{Status: domain.StatusPending})
	if h3.Len() != 6 {
		t.Errorf("pending order accepted into history")
	}
}

func TestUpdateWithCompletedOrderFeedsPredictions(t *testing.T) {
	p := NewPredictor(similarHistory(2), WithClock(testClock))
	order := targetOrder(1_000_000)

	if got := p.PredictCost(order, domain.BOM{}, nil); got.ConfidenceLevel != 0.6 {
		t.Fatalf("expected basic prediction before update, confidence %v", got.ConfidenceLevel)
	}

	p.UpdateWithCompletedOrder(completedOrder(30, "Ghế gỗ sồi", 50, 7, 1_000_000, 1_000_000, testClock()))

	got := p.PredictCost(order, domain.BOM{ID: 7}, nil)
	if got.BasedOnHistoricalOrders != 3 {
		t.Fatalf("based on = %d, want 3 after update", got.BasedOnHistoricalOrders)
	}
	if got.ConfidenceLevel == 0.6 {
		t.Error("still on basic prediction after reaching three comparables")
	}
}

func TestDeliveryHistoryReliability(t *testing.T) {
	now := testClock()
	src := NewDeliveryHistorySource([]Delivery{
		{Supplier: "A", Promised: now, Delivered: now.Add(-time.Hour)},
		{Supplier: "A", Promised: now, Delivered: now},
		{Supplier: "A", Promised: now, Delivered: now.Add(48 * time.Hour)},
		{Supplier: "B", Promised: now, Delivered: now.Add(24 * time.Hour)},
	})

	// A: 2/3 on time -> 0.6 + (2/3)*0.35
	want := 0.6 + (2.0/3.0)*0.35
	if got := src.Score("A"); got < want-1e-9 || got > want+1e-9 {
		t.Errorf("score A = %v, want %v", got, want)
	}
	// B: 0/1 on time -> floor
	if got := src.Score("B"); got != 0.6 {
		t.Errorf("score B = %v, want 0.6", got)
	}
	// Unknown supplier: band midpoint, always inside [0.6, 0.95].
	if got := src.Score("C"); got < 0.6 || got > 0.95 {
		t.Errorf("score C = %v, outside band", got)
	}
}
