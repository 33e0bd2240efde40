package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/tranvda/mfg-backend/internal/cache"
	"github.com/tranvda/mfg-backend/internal/costing"
	"github.com/tranvda/mfg-backend/internal/dashboard"
	"github.com/tranvda/mfg-backend/internal/domain"
	"github.com/tranvda/mfg-backend/internal/forecast"
	"github.com/tranvda/mfg-backend/internal/repository"
	"github.com/tranvda/mfg-backend/internal/stockledger"
)

// AnalyticsService is the application facade over the stock ledger, cost
// predictor and inventory forecaster. It loads a snapshot per request and
// runs the engines over it; mutations go through the stock repository and
// invalidate the caches.
type AnalyticsService struct {
	repo          repository.SnapshotRepository
	stock         repository.StockRepository
	forecastCache cache.ForecastCache
	dashCache     cache.DashboardCache
	aggregator    *dashboard.Aggregator
	reliability   costing.ReliabilitySource
}

func NewAnalyticsService(
	repo repository.SnapshotRepository,
	stock repository.StockRepository,
	forecastCache cache.ForecastCache,
	dashCache cache.DashboardCache,
) *AnalyticsService {
	if forecastCache == nil {
		forecastCache = cache.NewNoopForecastCache()
	}
	if dashCache == nil {
		dashCache = cache.NewNoopDashboardCache()
	}
	return &AnalyticsService{
		repo:          repo,
		stock:         stock,
		forecastCache: forecastCache,
		dashCache:     dashCache,
		aggregator:    dashboard.NewAggregator(),
	}
}

// WithReliabilitySource sets the supplier reliability source used by cost
// predictions.
func (s *AnalyticsService) WithReliabilitySource(src costing.ReliabilitySource) *AnalyticsService {
	s.reliability = src
	return s
}

// GetEnhancedMaterials returns every material with commitment-derived
// fields computed from the current order book.
func (s *AnalyticsService) GetEnhancedMaterials(ctx context.Context) ([]domain.EnhancedMaterial, error) {
	snapshot, err := s.repo.GetSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return stockledger.EnhanceSnapshot(snapshot), nil
}

// CheckAvailability reports whether the requested quantities can be
// satisfied from available stock, without reserving anything.
func (s *AnalyticsService) CheckAvailability(ctx context.Context, requirements []stockledger.Requirement) (*stockledger.AvailabilityResult, error) {
	materials, err := s.GetEnhancedMaterials(ctx)
	if err != nil {
		return nil, err
	}
	result := stockledger.CheckAvailability(materials, requirements)
	return &result, nil
}

// ReserveForOrder atomically commits stock to an order and invalidates
// derived caches.
func (s *AnalyticsService) ReserveForOrder(ctx context.Context, orderID int64, lines []domain.CommittedMaterial) error {
	if err := s.stock.ReserveMaterials(ctx, orderID, lines); err != nil {
		return err
	}
	s.invalidateCaches(ctx)
	return nil
}

// CancelOrder drops an open order's commitments.
func (s *AnalyticsService) CancelOrder(ctx context.Context, orderID int64) error {
	if err := s.stock.ReleaseMaterials(ctx, orderID); err != nil {
		return err
	}
	s.invalidateCaches(ctx)
	return nil
}

// CompleteOrder records actual consumption, deducts it from stock, and
// closes the order.
func (s *AnalyticsService) CompleteOrder(ctx context.Context, orderID int64, actuals domain.ActualCosts) error {
	if err := s.stock.CompleteOrder(ctx, orderID, actuals); err != nil {
		return err
	}
	s.invalidateCaches(ctx)
	return nil
}

// PredictCost predicts the final cost of the given order from the
// completed-order history in the snapshot.
func (s *AnalyticsService) PredictCost(ctx context.Context, orderID int64) (*domain.CostPrediction, error) {
	snapshot, err := s.repo.GetSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var order *domain.ProductionOrder
	for i := range snapshot.Orders {
		if snapshot.Orders[i].ID == orderID {
			order = &snapshot.Orders[i]
			break
		}
	}
	if order == nil {
		return nil, repository.ErrNotFound
	}

	var bom domain.BOM
	for _, b := range snapshot.BOMs {
		if b.ID == order.BOMID {
			bom = b
			break
		}
	}

	opts := []costing.Option{}
	if s.reliability != nil {
		opts = append(opts, costing.WithReliability(s.reliability))
	}
	predictor := costing.NewPredictor(costing.NewHistory(snapshot.Orders), opts...)

	prediction := predictor.PredictCost(*order, bom, stockledger.EnhanceSnapshot(snapshot))
	return &prediction, nil
}

// GetForecasts returns inventory forecasts, filtered and paginated.
func (s *AnalyticsService) GetForecasts(ctx context.Context, filter domain.ForecastFilter) ([]domain.InventoryForecast, error) {
	if forecasts, ok, err := s.forecastCache.Get(ctx, filter); err == nil && ok {
		return forecasts, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("forecast: cache get failed")
	}

	snapshot, err := s.repo.GetSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	forecasts := applyForecastFilter(forecast.NewForecaster(snapshot).GenerateInventoryForecast(), filter)

	if err := s.forecastCache.Set(ctx, filter, forecasts); err != nil {
		log.Warn().Err(err).Msg("forecast: cache set failed")
	}
	return forecasts, nil
}

// GetDashboard builds or serves the cached dashboard summary.
func (s *AnalyticsService) GetDashboard(ctx context.Context) (*domain.DashboardSummary, error) {
	if summary, ok, err := s.dashCache.GetSummary(ctx); err == nil && ok {
		return summary, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("dashboard: cache get failed")
	}

	snapshot, err := s.repo.GetSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	summary := s.aggregator.Summarize(snapshot)
	if err := s.dashCache.SetSummary(ctx, &summary); err != nil {
		log.Warn().Err(err).Msg("dashboard: cache set failed")
	}
	return &summary, nil
}

func (s *AnalyticsService) invalidateCaches(ctx context.Context) {
	if err := s.forecastCache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("forecast: cache invalidate failed")
	}
	if err := s.dashCache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("dashboard: cache invalidate failed")
	}
}

func applyForecastFilter(forecasts []domain.InventoryForecast, filter domain.ForecastFilter) []domain.InventoryForecast {
	filtered := make([]domain.InventoryForecast, 0, len(forecasts))

	wanted := make(map[int64]bool, len(filter.MaterialIDs))
	for _, id := range filter.MaterialIDs {
		wanted[id] = true
	}

	for _, fc := range forecasts {
		if len(wanted) > 0 && !wanted[fc.MaterialID] {
			continue
		}
		if fc.StockoutRisk < filter.MinRisk {
			continue
		}
		if filter.OnlyCritical && fc.Recommendation.UrgencyLevel != domain.UrgencyCritical {
			continue
		}
		filtered = append(filtered, fc)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].StockoutRisk > filtered[j].StockoutRisk
	})

	return paginate(filtered, filter.Page, filter.PageSize)
}

func paginate(forecasts []domain.InventoryForecast, page, pageSize int) []domain.InventoryForecast {
	if pageSize <= 0 {
		return forecasts
	}
	if page <= 0 {
		page = 1
	}

	start := (page - 1) * pageSize
	if start >= len(forecasts) {
		return []domain.InventoryForecast{}
	}
	end := start + pageSize
	if end > len(forecasts) {
		end = len(forecasts)
	}
	return forecasts[start:end]
}
