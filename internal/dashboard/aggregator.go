// Package dashboard composes the stock ledger and the inventory
// forecaster into the summary view the back office polls.
package dashboard

import (
	"fmt"
	"time"

	"github.com/tranvda/mfg-backend/internal/domain"
	"github.com/tranvda/mfg-backend/internal/forecast"
)

const urgentMaterialLimit = 10

// Aggregator builds dashboard summaries over a materials snapshot.
type Aggregator struct {
	now func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the timestamp source for generated summaries.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Summarize runs the forecaster over the snapshot and folds the results
// into a single dashboard payload.
func (a *Aggregator) Summarize(snapshot *domain.Snapshot, opts ...forecast.Option) domain.DashboardSummary {
	opts = append(opts, forecast.WithClock(a.now))
	f := forecast.NewForecaster(snapshot, opts...)

	summary := domain.DashboardSummary{
		GeneratedAt: a.now(),
		Inventory:   f.GetInventorySummary(),
		Alerts:      []domain.Alert{},
	}

	for _, m := range f.Materials() {
		switch m.StockStatus {
		case domain.StockStatusOut:
			summary.OutOfStockCount++
		case domain.StockStatusLow:
			summary.LowStockCount++
		}
		summary.TotalStockValue += float64(m.Stock) * m.PurchasePrice
		summary.CommittedValue += float64(m.CommittedQuantity) * m.PurchasePrice
	}

	for _, o := range snapshot.Orders {
		if o.Status.CountsTowardCommitment() {
			summary.ActiveOrders++
		}
	}

	riskSum := 0.0
	forecasts := f.GenerateInventoryForecast()
	for _, fc := range forecasts {
		riskSum += fc.StockoutRisk
	}
	if len(forecasts) > 0 {
		summary.AverageStockoutRisk = riskSum / float64(len(forecasts))
	}

	for _, fc := range f.GetCriticalAlerts() {
		summary.Alerts = append(summary.Alerts, toAlert(fc))
	}
	summary.UrgentMaterials = f.GetUrgentMaterials(urgentMaterialLimit)

	return summary
}

func toAlert(fc domain.InventoryForecast) domain.Alert {
	return domain.Alert{
		MaterialID:   fc.MaterialID,
		MaterialName: fc.MaterialName,
		ReasonCode:   fc.Recommendation.ReasonCode,
		UrgencyLevel: fc.Recommendation.UrgencyLevel,
		StockoutRisk: fc.StockoutRisk,
		Message:      alertMessage(fc),
	}
}

func alertMessage(fc domain.InventoryForecast) string {
	switch fc.Recommendation.ReasonCode {
	case domain.ReasonOutOfStock:
		return fmt.Sprintf("%s đã hết hàng khả dụng, cần đặt %d ngay",
			fc.MaterialName, fc.Recommendation.RecommendedQuantity)
	case domain.ReasonCriticalLowStock:
		return fmt.Sprintf("%s sắp hết hàng (rủi ro %.0f%%), cần đặt %d ngay",
			fc.MaterialName, fc.StockoutRisk*100, fc.Recommendation.RecommendedQuantity)
	case domain.ReasonBelowReorderPoint:
		return fmt.Sprintf("%s dưới điểm đặt hàng lại (%d khả dụng, ngưỡng %d)",
			fc.MaterialName, fc.AvailableStock, fc.ReorderPoint)
	default:
		return fmt.Sprintf("%s có rủi ro thiếu hụt %.0f%%", fc.MaterialName, fc.StockoutRisk*100)
	}
}
