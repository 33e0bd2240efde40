package costing

import (
	"testing"
	"time"

	"github.com/tranvda/mfg-backend/internal/domain"
)

func TestBudgetOverrunSeverityTiers(t *testing.T) {
	order := domain.ProductionOrder{TotalCost: 1_000_000}

	tests := []struct {
		name      string
		predicted float64
		want      domain.RiskLevel
		included  bool
	}{
		{"within tolerance", 1_040_000, "", false},
		{"medium overrun", 1_080_000, domain.RiskMedium, true},
		{"high overrun", 1_150_000, domain.RiskHigh, true},
		{"critical overrun", 1_300_000, domain.RiskCritical, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := budgetOverrunRisk(order, tt.predicted)
			if ok != tt.included {
				t.Fatalf("included = %v, want %v", ok, tt.included)
			}
			if ok && f.Severity != tt.want {
				t.Errorf("severity = %v, want %v", f.Severity, tt.want)
			}
		})
	}
}

func TestBudgetOverrunProbabilityCapped(t *testing.T) {
	f, ok := budgetOverrunRisk(domain.ProductionOrder{TotalCost: 100}, 200)
	if !ok {
		t.Fatal("expected overrun factor")
	}
	if f.Probability != 0.9 {
		t.Errorf("probability = %v, want capped at 0.9", f.Probability)
	}
}

func TestShortageRiskAggregation(t *testing.T) {
	order := domain.ProductionOrder{QuantityProduced: 10}
	bom := domain.BOM{Lines: []domain.BOMLine{
		{MaterialID: 1, Quantity: 10}, // requires 100, available 20 -> ratio 0.8
		{MaterialID: 2, Quantity: 5},  // requires 50, plenty available
	}}
	materials := []domain.EnhancedMaterial{
		{Material: domain.Material{ID: 1, PurchasePrice: 1000}, AvailableStock: 20},
		{Material: domain.Material{ID: 2, PurchasePrice: 500}, AvailableStock: 500},
	}

	f, ok := shortageRisk(order, bom, materials)
	if !ok {
		t.Fatal("expected shortage factor")
	}
	// impact = shortfall(80) x price(1000) x premium(1.2)
	if f.Impact != 80*1000*1.2 {
		t.Errorf("impact = %v, want %v", f.Impact, 80*1000*1.2)
	}
	if f.Severity != domain.RiskHigh {
		t.Errorf("severity = %v, want high at 0.8 shortfall ratio", f.Severity)
	}
}

func TestShortageRiskBelowThresholdDropped(t *testing.T) {
	order := domain.ProductionOrder{QuantityProduced: 10}
	bom := domain.BOM{Lines: []domain.BOMLine{{MaterialID: 1, Quantity: 10}}}
	// 100 required, 80 available -> ratio 0.2, coverable
	materials := []domain.EnhancedMaterial{
		{Material: domain.Material{ID: 1, PurchasePrice: 1000}, AvailableStock: 80},
	}

	if _, ok := shortageRisk(order, bom, materials); ok {
		t.Fatal("shortfall ratio 0.2 should not surface as risk")
	}
}

func TestShortageRiskEmptyBOM(t *testing.T) {
	if _, ok := shortageRisk(domain.ProductionOrder{QuantityProduced: 5}, domain.BOM{}, nil); ok {
		t.Fatal("empty BOM must yield no shortage risk")
	}
}

func TestCapacityRiskSeasonal(t *testing.T) {
	order := domain.ProductionOrder{TotalCost: 1_000_000}

	peak := time.Date(2025, time.December, 5, 0, 0, 0, 0, time.UTC)
	f, ok := capacityRisk(order, peak)
	if !ok {
		t.Fatal("expected capacity factor in December")
	}
	if f.Probability != 0.7 || f.Impact != 150_000 {
		t.Errorf("got probability=%v impact=%v, want 0.7 and 150000", f.Probability, f.Impact)
	}

	offPeak := time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC)
	if _, ok := capacityRisk(order, offPeak); ok {
		t.Fatal("off-peak months must not surface capacity risk")
	}
}

func TestOverallRiskBuckets(t *testing.T) {
	mk := func(levels ...domain.RiskLevel) []domain.RiskFactor {
		out := make([]domain.RiskFactor, len(levels))
		for i, l := range levels {
			out[i] = domain.RiskFactor{Severity: l}
		}
		return out
	}

	tests := []struct {
		name    string
		factors []domain.RiskFactor
		want    domain.RiskLevel
	}{
		{"no factors", nil, domain.RiskLow},
		{"single critical", mk(domain.RiskCritical), domain.RiskCritical},
		{"critical and high", mk(domain.RiskCritical, domain.RiskHigh), domain.RiskCritical},
		{"high and medium", mk(domain.RiskHigh, domain.RiskMedium), domain.RiskHigh},
		{"two mediums", mk(domain.RiskMedium, domain.RiskMedium), domain.RiskMedium},
		{"two lows", mk(domain.RiskLow, domain.RiskLow), domain.RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overallRisk(tt.factors); got != tt.want {
				t.Errorf("overallRisk = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMitigationsDeduplicated(t *testing.T) {
	factors := []domain.RiskFactor{
		{Type: riskBudgetOverrun},
		{Type: riskMaterialShortage},
		{Type: riskBudgetOverrun},
	}

	got := mitigations(factors)
	if len(got) != 2 {
		t.Fatalf("expected 2 deduplicated suggestions, got %d: %v", len(got), got)
	}
}
