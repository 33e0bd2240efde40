// Package costing implements the predictive cost engine: similarity-based
// matching against completed production orders, multi-factor cost
// adjustment, and structured risk assessment. All computation is
// synchronous and deterministic over the inputs it is handed.
package costing

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tranvda/mfg-backend/internal/domain"
)

// Similarity scoring weights. They sum to 1.0 so the raw score needs no
// normalizer.
const (
	nameExactWeight     = 0.4
	nameSubstringWeight = 0.2
	quantityWeight      = 0.3
	sameBOMWeight       = 0.3

	similarityThreshold = 0.3
	maxSimilarOrders    = 10
	minSimilarOrders    = 3
)

// Prediction factor weights
const (
	weightPriceTrend  = 0.3
	weightReliability = 0.2
	weightComplexity  = 0.25
	weightEfficiency  = 0.25
)

// Predictor estimates the total cost and risk of a prospective production
// order from a window of completed orders.
type Predictor struct {
	history     History
	reliability ReliabilitySource
	now         func() time.Time
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithClock overrides the time source, used for the seasonal capacity risk
// and output timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Predictor) { p.now = now }
}

// WithReliability wires a supplier reliability signal.
func WithReliability(src ReliabilitySource) Option {
	return func(p *Predictor) { p.reliability = src }
}

// NewPredictor builds a predictor over the given historical window.
func NewPredictor(history History, opts ...Option) *Predictor {
	p := &Predictor{
		history:     history,
		reliability: FixedReliability(reliabilityFloor + (reliabilityCeil-reliabilityFloor)/2),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// History returns the current window.
func (p *Predictor) History() History {
	return p.history
}

// UpdateWithCompletedOrder appends a completed order to the window so future
// predictions see it. This is the engine's only mutating operation.
func (p *Predictor) UpdateWithCompletedOrder(order domain.ProductionOrder) {
	p.history = p.history.Append(order)
}

// PredictCost estimates the total cost of the order before it runs. The
// enhanced materials view is used for shortage-risk estimation only. With
// fewer than three comparable historical orders it falls back to a flat
// contingency estimate rather than failing.
func (p *Predictor) PredictCost(order domain.ProductionOrder, bom domain.BOM, materials []domain.EnhancedMaterial) domain.CostPrediction {
	similar := p.findSimilarOrders(order)

	if len(similar) < minSimilarOrders {
		return p.basicPrediction(order, len(similar))
	}

	factors := p.predictionFactors(order, bom, materials, similar)
	predicted := applyFactors(baseCost(order, similar), factors)
	risk := p.assessRisk(order, bom, materials, predicted)

	return domain.CostPrediction{
		OrderID:                 order.ID,
		PredictedTotalCost:      math.Round(predicted),
		ConfidenceLevel:         confidence(len(similar), factors),
		BasedOnHistoricalOrders: len(similar),
		PredictionFactors:       factors,
		RiskAssessment:          risk,
		LastUpdated:             p.now(),
	}
}

// basicPrediction is the insufficient-data fallback: a flat 5% contingency
// on the order's own estimate, fixed 0.6 confidence and a medium overall
// risk. It never divides or indexes into history so it is total.
func (p *Predictor) basicPrediction(order domain.ProductionOrder, similarCount int) domain.CostPrediction {
	return domain.CostPrediction{
		OrderID:                 order.ID,
		PredictedTotalCost:      math.Round(order.TotalCost * 1.05),
		ConfidenceLevel:         0.6,
		BasedOnHistoricalOrders: similarCount,
		PredictionFactors: []domain.PredictionFactor{
			{
				Factor:      "historical_data",
				Impact:      domain.ImpactNeutral,
				Weight:      1.0,
				Description: "Chưa đủ đơn sản xuất tương tự để phân tích, áp dụng dự phòng 5%",
			},
		},
		RiskAssessment: domain.RiskAssessment{
			OverallRisk: domain.RiskMedium,
			RiskFactors: []domain.RiskFactor{},
			MitigationSuggestions: []string{
				"Hoàn thành thêm đơn sản xuất có phân tích chi phí để cải thiện dự đoán",
			},
		},
		LastUpdated: p.now(),
	}
}

type scoredOrder struct {
	order domain.ProductionOrder
	score float64
}

// findSimilarOrders scores every order in the window against the target and
// keeps those above the threshold, best first, capped at maxSimilarOrders.
func (p *Predictor) findSimilarOrders(target domain.ProductionOrder) []domain.ProductionOrder {
	scored := make([]scoredOrder, 0, p.history.Len())
	for _, candidate := range p.history.Orders() {
		if s := similarity(target, candidate); s > similarityThreshold {
			scored = append(scored, scoredOrder{order: candidate, score: s})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > maxSimilarOrders {
		scored = scored[:maxSimilarOrders]
	}

	orders := make([]domain.ProductionOrder, len(scored))
	for i, s := range scored {
		orders[i] = s.order
	}
	return orders
}

// similarity scores how comparable two orders are:
// product name (exact 0.4, substring 0.2), quantity ratio (x0.3) and
// identical BOM (0.3).
func similarity(a, b domain.ProductionOrder) float64 {
	score := 0.0

	nameA, nameB := normalizeName(a.ProductName), normalizeName(b.ProductName)
	switch {
	case nameA != "" && nameA == nameB:
		score += nameExactWeight
	case nameA != "" && nameB != "" && (contains(nameA, nameB) || contains(nameB, nameA)):
		score += nameSubstringWeight
	}

	qa, qb := float64(a.QuantityProduced), float64(b.QuantityProduced)
	if qa > 0 && qb > 0 {
		score += math.Min(qa, qb) / math.Max(qa, qb) * quantityWeight
	}

	if a.BOMID != 0 && a.BOMID == b.BOMID {
		score += sameBOMWeight
	}

	return score
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func contains(haystack, needle string) bool {
	return needle != "" && strings.Contains(haystack, needle)
}

// predictionFactors derives the four weighted adjustment factors.
func (p *Predictor) predictionFactors(order domain.ProductionOrder, bom domain.BOM, materials []domain.EnhancedMaterial, similar []domain.ProductionOrder) []domain.PredictionFactor {
	return []domain.PredictionFactor{
		priceTrendFactor(similar),
		p.reliabilityFactor(bom, materials),
		complexityFactor(bom),
		efficiencyFactor(similar),
	}
}

// priceTrendFactor compares the oldest vs newest cost variance over the
// five most recently completed similar orders. Drift above 5% in either
// direction moves the factor off neutral.
func priceTrendFactor(similar []domain.ProductionOrder) domain.PredictionFactor {
	recent := make([]domain.ProductionOrder, len(similar))
	copy(recent, similar)
	sort.SliceStable(recent, func(i, j int) bool {
		return completedTime(recent[i]).Before(completedTime(recent[j]))
	})
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}

	trend := 0.0
	if len(recent) >= 2 {
		trend = recent[len(recent)-1].CostAnalysis.Variance - recent[0].CostAnalysis.Variance
	}

	impact := domain.ImpactNeutral
	desc := "Biến động giá nguyên liệu ổn định"
	switch {
	case trend > 0.05:
		impact = domain.ImpactNegative
		desc = fmt.Sprintf("Chênh lệch chi phí tăng %.1f%% so với các đơn trước", trend*100)
	case trend < -0.05:
		impact = domain.ImpactPositive
		desc = fmt.Sprintf("Chênh lệch chi phí giảm %.1f%% so với các đơn trước", -trend*100)
	}

	return domain.PredictionFactor{
		Factor:      "material_price_trend",
		Impact:      impact,
		Weight:      weightPriceTrend,
		Description: desc,
	}
}

// reliabilityFactor averages the reliability score over the distinct
// suppliers of the BOM's materials.
func (p *Predictor) reliabilityFactor(bom domain.BOM, materials []domain.EnhancedMaterial) domain.PredictionFactor {
	supplierOf := make(map[int64]string, len(materials))
	for _, m := range materials {
		supplierOf[m.ID] = m.Supplier
	}

	seen := make(map[string]bool)
	sum, count := 0.0, 0
	for _, line := range bom.Lines {
		supplier := supplierOf[line.MaterialID]
		if seen[supplier] {
			continue
		}
		seen[supplier] = true
		sum += p.reliability.Score(supplier)
		count++
	}

	score := p.reliability.Score("")
	if count > 0 {
		score = sum / float64(count)
	}

	impact := domain.ImpactNeutral
	switch {
	case score >= 0.85:
		impact = domain.ImpactPositive
	case score < 0.7:
		impact = domain.ImpactNegative
	}

	return domain.PredictionFactor{
		Factor:      "supplier_reliability",
		Impact:      impact,
		Weight:      weightReliability,
		Description: fmt.Sprintf("Độ tin cậy nhà cung cấp: %.0f%%", score*100),
	}
}

// complexityFactor buckets the BOM by material count: up to 3 lines is
// simple, up to 6 moderate, beyond that complex. An empty BOM is simple.
func complexityFactor(bom domain.BOM) domain.PredictionFactor {
	n := len(bom.Lines)

	impact := domain.ImpactNeutral
	desc := fmt.Sprintf("Định mức trung bình (%d nguyên liệu)", n)
	switch {
	case n <= 3:
		impact = domain.ImpactPositive
		desc = fmt.Sprintf("Định mức đơn giản (%d nguyên liệu)", n)
	case n > 6:
		impact = domain.ImpactNegative
		desc = fmt.Sprintf("Định mức phức tạp (%d nguyên liệu)", n)
	}

	return domain.PredictionFactor{
		Factor:      "bom_complexity",
		Impact:      impact,
		Weight:      weightComplexity,
		Description: desc,
	}
}

// efficiencyFactor averages estimated/actual cost ratios over the similar
// orders. A team that consistently beats its estimates (ratio above 1.1)
// lowers the prediction; consistent overruns (below 0.9) raise it.
func efficiencyFactor(similar []domain.ProductionOrder) domain.PredictionFactor {
	sum, count := 0.0, 0
	for _, o := range similar {
		if o.CostAnalysis.ActualCost > 0 {
			sum += o.TotalCost / o.CostAnalysis.ActualCost
			count++
		}
	}

	ratio := 1.0
	if count > 0 {
		ratio = sum / float64(count)
	}

	impact := domain.ImpactNeutral
	switch {
	case ratio > 1.1:
		impact = domain.ImpactPositive
	case ratio < 0.9:
		impact = domain.ImpactNegative
	}

	return domain.PredictionFactor{
		Factor:      "team_efficiency",
		Impact:      impact,
		Weight:      weightEfficiency,
		Description: fmt.Sprintf("Tỷ lệ dự toán/thực tế trung bình: %.2f", ratio),
	}
}

// baseCost scales the order's own estimate by the average actual/estimated
// ratio observed across the similar orders.
func baseCost(order domain.ProductionOrder, similar []domain.ProductionOrder) float64 {
	sum, count := 0.0, 0
	for _, o := range similar {
		if o.TotalCost > 0 {
			sum += o.CostAnalysis.ActualCost / o.TotalCost
			count++
		}
	}

	ratio := 1.0
	if count > 0 {
		ratio = sum / float64(count)
	}

	return order.TotalCost * ratio
}

// applyFactors multiplies the base cost by (1 + adjustment) per factor.
// Positive factors shave 5% of their weight off, negative ones add 10%.
// Multiplication commutes, so application order is irrelevant.
func applyFactors(cost float64, factors []domain.PredictionFactor) float64 {
	for _, f := range factors {
		switch f.Impact {
		case domain.ImpactPositive:
			cost *= 1 - 0.05*f.Weight
		case domain.ImpactNegative:
			cost *= 1 + 0.10*f.Weight
		}
	}
	return cost
}

// confidence grows with the number of comparables and the average factor
// weight, from a 0.5 floor up to 1.0.
func confidence(similarCount int, factors []domain.PredictionFactor) float64 {
	avgWeight := 0.0
	if len(factors) > 0 {
		sum := 0.0
		for _, f := range factors {
			sum += f.Weight
		}
		avgWeight = sum / float64(len(factors))
	}

	c := 0.5 + math.Min(1, float64(similarCount)/10)*0.3 + avgWeight*0.2
	return math.Min(c, 1.0)
}
