// Package forecast implements the smart inventory analytics engine:
// time-bucketed demand projection, reorder-point and EOQ computation,
// stockout-risk scoring and reorder recommendations per material.
package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/tranvda/mfg-backend/internal/domain"
	"github.com/tranvda/mfg-backend/internal/stockledger"
)

const (
	horizonDays = 30
	weekCount   = 4

	leadTimeDays    = 7.0
	safetyStockDays = 3.0

	// consumptionLeadTime is the fixed assumption for when an active
	// order starts drawing down its materials.
	consumptionLeadTime = 24 * time.Hour

	orderingCost = 100_000 // flat cost per purchase order
	holdingRate  = 0.2     // annual holding cost as a share of purchase price

	minOrderQty = 10
	maxOrderQty = 1000

	defaultVariability = 0.3
)

// Forecaster computes inventory forecasts over an immutable snapshot of
// materials, orders and BOMs. The historical consumption index is built
// once at construction and never patched incrementally; build a new
// Forecaster when the snapshot changes.
type Forecaster struct {
	materials   []domain.EnhancedMaterial
	orders      []domain.ProductionOrder
	boms        map[int64]domain.BOM
	consumption map[int64][]float64
	now         func() time.Time
}

// Option configures a Forecaster.
type Option func(*Forecaster)

// WithClock overrides the time source used for bucketing and seasonality.
func WithClock(now func() time.Time) Option {
	return func(f *Forecaster) { f.now = now }
}

// NewForecaster builds a forecaster over the snapshot. Committed and
// available stock are derived through the stock ledger; historical
// consumption comes from completed orders that recorded material costs.
func NewForecaster(snapshot *domain.Snapshot, opts ...Option) *Forecaster {
	f := &Forecaster{
		materials:   stockledger.EnhanceSnapshot(snapshot),
		orders:      snapshot.Orders,
		boms:        make(map[int64]domain.BOM, len(snapshot.BOMs)),
		consumption: buildConsumptionIndex(snapshot.Orders),
		now:         time.Now,
	}
	for _, b := range snapshot.BOMs {
		f.boms[b.ID] = b
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// buildConsumptionIndex collects historical per-order consumption
// quantities per material from completed orders.
func buildConsumptionIndex(orders []domain.ProductionOrder) map[int64][]float64 {
	index := make(map[int64][]float64)
	for _, o := range orders {
		if !o.Status.IsCompleted() || o.ActualCosts == nil {
			continue
		}
		for _, mc := range o.ActualCosts.MaterialCosts {
			if mc.Quantity > 0 {
				index[mc.MaterialID] = append(index[mc.MaterialID], mc.Quantity)
			}
		}
	}
	return index
}

// Materials returns the enhanced material view the forecaster works on.
func (f *Forecaster) Materials() []domain.EnhancedMaterial {
	return f.materials
}

// GenerateInventoryForecast forecasts every material in the snapshot.
func (f *Forecaster) GenerateInventoryForecast() []domain.InventoryForecast {
	forecasts := make([]domain.InventoryForecast, 0, len(f.materials))
	for _, m := range f.materials {
		forecasts = append(forecasts, f.ForecastMaterial(m))
	}
	return forecasts
}

// ForecastMaterial computes the full forecast for one material.
func (f *Forecaster) ForecastMaterial(m domain.EnhancedMaterial) domain.InventoryForecast {
	projection := f.projectDemand(m)

	totalDemand := 0.0
	for _, w := range projection {
		totalDemand += w.ProjectedDemand
	}

	avgDaily := totalDemand / horizonDays
	variability := f.demandVariability(m.ID)
	reorderPoint := int(math.Ceil(avgDaily*leadTimeDays + avgDaily*safetyStockDays*(1+variability)))
	eoq := economicOrderQuantity(avgDaily, m.PurchasePrice)
	risk := stockoutRisk(m.AvailableStock, totalDemand)

	return domain.InventoryForecast{
		MaterialID:           m.ID,
		MaterialName:         m.Name,
		CurrentStock:         m.Stock,
		AvailableStock:       m.AvailableStock,
		ProjectedDemand:      projection,
		ReorderPoint:         reorderPoint,
		OptimalOrderQuantity: eoq,
		StockoutRisk:         risk,
		Recommendation:       recommend(m, risk, reorderPoint, eoq),
	}
}

// projectDemand builds four weekly demand buckets over the 30-day horizon.
// Committed demand comes from active orders, scheduled one day after
// creation; on top of that sits a trend component from historical
// consumption, seasonally adjusted per bucket.
func (f *Forecaster) projectDemand(m domain.EnhancedMaterial) []domain.WeeklyDemand {
	start := f.now()
	histAvg := mean(f.consumption[m.ID])

	buckets := make([]domain.WeeklyDemand, weekCount)
	for i := range buckets {
		buckets[i].Date = start.AddDate(0, 0, i*7)
		buckets[i].BasedOnOrders = []int64{}
	}

	for _, o := range f.orders {
		if !o.Status.CountsTowardCommitment() {
			continue
		}
		bom, ok := f.boms[o.BOMID]
		if !ok {
			continue
		}
		for _, line := range bom.Lines {
			if line.MaterialID != m.ID {
				continue
			}

			scheduled := o.CreationDate.Add(consumptionLeadTime)
			idx := int(math.Floor(scheduled.Sub(start).Hours() / (24 * 7)))
			if idx < 0 {
				// overdue consumption lands in the current week
				idx = 0
			}
			if idx >= weekCount {
				continue
			}

			buckets[idx].ProjectedDemand += line.Quantity * float64(o.QuantityProduced)
			buckets[idx].BasedOnOrders = append(buckets[idx].BasedOnOrders, o.ID)
		}
	}

	for i := range buckets {
		trend := histAvg * seasonalFactor(buckets[i].Date.Month())
		buckets[i].ProjectedDemand += trend

		confidence := 0.5 + math.Min(0.4, float64(len(buckets[i].BasedOnOrders))*0.1)
		if histAvg > 0 {
			confidence += 0.2
		}
		buckets[i].Confidence = math.Min(1, confidence)
	}

	return buckets
}

// seasonalFactor scales the historical trend: October through March is the
// peak season, June through August the slow one.
func seasonalFactor(month time.Month) float64 {
	switch month {
	case time.October, time.November, time.December, time.January, time.February, time.March:
		return 1.2
	case time.June, time.July, time.August:
		return 0.8
	default:
		return 1.0
	}
}

// demandVariability is the coefficient of variation of historical
// consumption, defaulting when there is too little data to measure.
func (f *Forecaster) demandVariability(materialID int64) float64 {
	samples := f.consumption[materialID]
	if len(samples) < 2 {
		return defaultVariability
	}

	avg := mean(samples)
	if avg <= 0 {
		return defaultVariability
	}

	variance := 0.0
	for _, s := range samples {
		variance += (s - avg) * (s - avg)
	}
	variance /= float64(len(samples))

	return math.Sqrt(variance) / avg
}

// economicOrderQuantity is the classical EOQ, clamped to a sane purchasing
// range. Zero demand or a free material falls to the minimum order size.
func economicOrderQuantity(avgDailyDemand, purchasePrice float64) int {
	annualDemand := avgDailyDemand * 365
	holdingCost := purchasePrice * holdingRate
	if annualDemand <= 0 || holdingCost <= 0 {
		return minOrderQty
	}

	eoq := math.Sqrt(2 * annualDemand * orderingCost / holdingCost)
	eoq = math.Max(minOrderQty, math.Min(maxOrderQty, eoq))

	return int(math.Round(eoq))
}

// stockoutRisk scores the chance of exhaustion before projected demand is
// met, by coverage ratio.
func stockoutRisk(available int, totalDemand float64) float64 {
	if available <= 0 {
		return 1.0
	}
	if totalDemand == 0 {
		return 0.1
	}

	coverage := float64(available) / totalDemand
	switch {
	case coverage >= 1.5:
		return 0.1
	case coverage >= 1.0:
		return 0.3
	case coverage >= 0.5:
		return 0.6
	default:
		return 0.9
	}
}

// recommend tiers the action by available stock and risk.
func recommend(m domain.EnhancedMaterial, risk float64, reorderPoint, eoq int) domain.ReorderRecommendation {
	var rec domain.ReorderRecommendation
	switch {
	case m.AvailableStock <= 0:
		rec = domain.ReorderRecommendation{
			Action:              domain.ActionImmediate,
			RecommendedQuantity: 2 * eoq,
			UrgencyLevel:        domain.UrgencyCritical,
			ReasonCode:          domain.ReasonOutOfStock,
		}
	case risk > 0.8:
		rec = domain.ReorderRecommendation{
			Action:              domain.ActionImmediate,
			RecommendedQuantity: eoq,
			UrgencyLevel:        domain.UrgencyCritical,
			ReasonCode:          domain.ReasonCriticalLowStock,
		}
	case m.AvailableStock <= reorderPoint:
		rec = domain.ReorderRecommendation{
			Action:              domain.ActionWithinWeek,
			RecommendedQuantity: eoq,
			UrgencyLevel:        domain.UrgencyHigh,
			ReasonCode:          domain.ReasonBelowReorderPoint,
		}
	case risk > 0.5:
		rec = domain.ReorderRecommendation{
			Action:              domain.ActionWithinMonth,
			RecommendedQuantity: int(math.Ceil(0.7 * float64(eoq))),
			UrgencyLevel:        domain.UrgencyMedium,
			ReasonCode:          domain.ReasonProjectedShortage,
		}
	default:
		rec = domain.ReorderRecommendation{
			Action:       domain.ActionNoneNeeded,
			UrgencyLevel: domain.UrgencyLow,
			ReasonCode:   domain.ReasonStockAdequate,
		}
	}

	rec.EstimatedCost = float64(rec.RecommendedQuantity) * m.PurchasePrice
	rec.PreferredSupplier = m.Supplier

	return rec
}

// GetCriticalAlerts filters forecasts that need attention now.
func (f *Forecaster) GetCriticalAlerts() []domain.InventoryForecast {
	alerts := make([]domain.InventoryForecast, 0)
	for _, fc := range f.GenerateInventoryForecast() {
		if fc.Recommendation.Action == domain.ActionImmediate ||
			fc.StockoutRisk > 0.7 ||
			fc.Recommendation.UrgencyLevel == domain.UrgencyCritical {
			alerts = append(alerts, fc)
		}
	}
	return alerts
}

// GetUrgentMaterials returns forecasts at meaningful risk, highest first.
func (f *Forecaster) GetUrgentMaterials(limit int) []domain.InventoryForecast {
	urgent := make([]domain.InventoryForecast, 0)
	for _, fc := range f.GenerateInventoryForecast() {
		if fc.StockoutRisk >= 0.5 {
			urgent = append(urgent, fc)
		}
	}

	sort.SliceStable(urgent, func(i, j int) bool {
		return urgent[i].StockoutRisk > urgent[j].StockoutRisk
	})

	if limit > 0 && len(urgent) > limit {
		urgent = urgent[:limit]
	}
	return urgent
}

// GetInventorySummary classifies every material and accumulates the value
// at risk of the critical ones.
func (f *Forecaster) GetInventorySummary() domain.InventorySummary {
	summary := domain.InventorySummary{}
	for _, fc := range f.GenerateInventoryForecast() {
		summary.TotalMaterials++
		switch {
		case fc.StockoutRisk > 0.7:
			summary.CriticalMaterials++
			summary.ValueAtRisk += purchasePriceOf(f.materials, fc.MaterialID) * float64(fc.CurrentStock)
		case fc.CurrentStock > 3*fc.OptimalOrderQuantity:
			summary.OverstockMaterials++
		default:
			summary.AdequateMaterials++
		}
	}
	return summary
}

func purchasePriceOf(materials []domain.EnhancedMaterial, id int64) float64 {
	for _, m := range materials {
		if m.ID == id {
			return m.PurchasePrice
		}
	}
	return 0
}

func mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}
