package costing

import (
	"fmt"
	"math"
	"time"

	"github.com/tranvda/mfg-backend/internal/domain"
)

// Risk factor types, also the dedup keys for mitigation suggestions.
const (
	riskBudgetOverrun    = "budget_overrun"
	riskMaterialShortage = "material_shortage"
	riskCapacity         = "capacity_constraint"
)

// urgentProcurementPremium marks up shortage costs for rush purchasing.
const urgentProcurementPremium = 1.2

var mitigationByType = map[string]string{
	riskBudgetOverrun:    "Rà soát lại định mức và đàm phán giá nguyên liệu trước khi sản xuất",
	riskMaterialShortage: "Đặt mua bổ sung nguyên liệu thiếu trước khi bắt đầu đơn hàng",
	riskCapacity:         "Lên kế hoạch sản xuất sớm để tránh giai đoạn cao điểm",
}

// assessRisk derives up to three independent risk factors for the order:
// budget overrun against the predicted cost, material shortage against
// available stock, and seasonal capacity pressure.
func (p *Predictor) assessRisk(order domain.ProductionOrder, bom domain.BOM, materials []domain.EnhancedMaterial, predicted float64) domain.RiskAssessment {
	factors := make([]domain.RiskFactor, 0, 3)

	if f, ok := budgetOverrunRisk(order, predicted); ok {
		factors = append(factors, f)
	}
	if f, ok := shortageRisk(order, bom, materials); ok {
		factors = append(factors, f)
	}
	if f, ok := capacityRisk(order, p.now()); ok {
		factors = append(factors, f)
	}

	return domain.RiskAssessment{
		OverallRisk:           overallRisk(factors),
		RiskFactors:           factors,
		MitigationSuggestions: mitigations(factors),
	}
}

// budgetOverrunRisk fires when the prediction exceeds the order's own
// estimate by more than 5%. A zero estimate contributes no risk rather
// than a division blowup.
func budgetOverrunRisk(order domain.ProductionOrder, predicted float64) (domain.RiskFactor, bool) {
	if order.TotalCost <= 0 {
		return domain.RiskFactor{}, false
	}

	variance := (predicted - order.TotalCost) / order.TotalCost
	if variance <= 0.05 {
		return domain.RiskFactor{}, false
	}

	severity := domain.RiskMedium
	switch {
	case variance > 0.2:
		severity = domain.RiskCritical
	case variance > 0.1:
		severity = domain.RiskHigh
	}

	return domain.RiskFactor{
		Type:        riskBudgetOverrun,
		Severity:    severity,
		Probability: math.Min(0.9, variance*2),
		Impact:      predicted - order.TotalCost,
		Description: fmt.Sprintf("Chi phí dự đoán vượt dự toán %.1f%%", variance*100),
	}, true
}

// shortageRisk aggregates BOM lines whose requirement exceeds available
// stock. The probability is the average shortfall ratio across short
// materials; below 0.3 the shortage is considered coverable and dropped.
func shortageRisk(order domain.ProductionOrder, bom domain.BOM, materials []domain.EnhancedMaterial) (domain.RiskFactor, bool) {
	byID := make(map[int64]domain.EnhancedMaterial, len(materials))
	for _, m := range materials {
		byID[m.ID] = m
	}

	var (
		ratioSum float64
		impact   float64
		short    int
	)
	for _, line := range bom.Lines {
		required := line.Quantity * float64(order.QuantityProduced)
		if required <= 0 {
			continue
		}

		m, ok := byID[line.MaterialID]
		available := 0.0
		if ok {
			available = float64(m.AvailableStock)
		}

		if available >= required {
			continue
		}

		shortfall := required - available
		ratioSum += shortfall / required
		impact += shortfall * m.PurchasePrice * urgentProcurementPremium
		short++
	}

	if short == 0 {
		return domain.RiskFactor{}, false
	}

	avgRatio := ratioSum / float64(short)
	if avgRatio <= 0.3 {
		return domain.RiskFactor{}, false
	}

	severity := domain.RiskMedium
	if avgRatio > 0.6 {
		severity = domain.RiskHigh
	}

	return domain.RiskFactor{
		Type:        riskMaterialShortage,
		Severity:    severity,
		Probability: math.Min(0.9, avgRatio),
		Impact:      impact,
		Description: fmt.Sprintf("Thiếu %d nguyên liệu so với tồn kho khả dụng", short),
	}, true
}

// capacityRisk models seasonal production pressure: Tet-adjacent months
// (November through February) carry a 0.7 probability, the rest of the
// year 0.2. Only probabilities above 0.4 surface as a factor.
func capacityRisk(order domain.ProductionOrder, now time.Time) (domain.RiskFactor, bool) {
	probability := 0.2
	switch now.Month() {
	case time.November, time.December, time.January, time.February:
		probability = 0.7
	}

	if probability <= 0.4 {
		return domain.RiskFactor{}, false
	}

	return domain.RiskFactor{
		Type:        riskCapacity,
		Severity:    domain.RiskMedium,
		Probability: probability,
		Impact:      order.TotalCost * 0.15,
		Description: "Giai đoạn cao điểm sản xuất, nguy cơ thiếu công suất",
	}, true
}

var severityScores = map[domain.RiskLevel]float64{
	domain.RiskLow:      1,
	domain.RiskMedium:   2,
	domain.RiskHigh:     3,
	domain.RiskCritical: 4,
}

// overallRisk buckets the average severity score of the included factors.
func overallRisk(factors []domain.RiskFactor) domain.RiskLevel {
	if len(factors) == 0 {
		return domain.RiskLow
	}

	sum := 0.0
	for _, f := range factors {
		sum += severityScores[f.Severity]
	}
	avg := sum / float64(len(factors))

	switch {
	case avg >= 3.5:
		return domain.RiskCritical
	case avg >= 2.5:
		return domain.RiskHigh
	case avg >= 1.5:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// mitigations collects one suggestion per distinct risk-factor type,
// preserving factor order.
func mitigations(factors []domain.RiskFactor) []string {
	seen := make(map[string]bool, len(factors))
	suggestions := make([]string, 0, len(factors))
	for _, f := range factors {
		if seen[f.Type] {
			continue
		}
		seen[f.Type] = true
		if s, ok := mitigationByType[f.Type]; ok {
			suggestions = append(suggestions, s)
		}
	}
	return suggestions
}
