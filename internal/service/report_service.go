package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tranvda/mfg-backend/internal/domain"
	"github.com/tranvda/mfg-backend/internal/storage"
)

// ReportService renders forecast reports to CSV and archives them in
// object storage.
type ReportService struct {
	analytics *AnalyticsService
	store     storage.ObjectStorage
	now       func() time.Time
}

func NewReportService(analytics *AnalyticsService, store storage.ObjectStorage) *ReportService {
	return &ReportService{analytics: analytics, store: store, now: time.Now}
}

// ExportForecastReport builds the forecast CSV and uploads it. Returns
// the object key of the archived report.
func (s *ReportService) ExportForecastReport(ctx context.Context, filter domain.ForecastFilter) (string, error) {
	forecasts, err := s.analytics.GetForecasts(ctx, filter)
	if err != nil {
		return "", fmt.Errorf("failed to load forecasts: %w", err)
	}

	payload, err := renderForecastCSV(forecasts)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("reports/forecast/%s.csv", s.now().Format("2006-01-02_150405"))
	if s.store == nil {
		return "", fmt.Errorf("object storage not configured")
	}
	if err := s.store.UploadObject(ctx, key, payload); err != nil {
		return "", fmt.Errorf("failed to archive report: %w", err)
	}

	log.Info().Str("key", key).Int("rows", len(forecasts)).Msg("forecast report archived")
	return key, nil
}

func renderForecastCSV(forecasts []domain.InventoryForecast) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"material_id", "material_name", "current_stock", "available_stock",
		"reorder_point", "optimal_order_quantity", "stockout_risk",
		"action", "recommended_quantity", "urgency", "reason",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, fc := range forecasts {
		row := []string{
			strconv.FormatInt(fc.MaterialID, 10),
			fc.MaterialName,
			strconv.Itoa(fc.CurrentStock),
			strconv.Itoa(fc.AvailableStock),
			strconv.Itoa(fc.ReorderPoint),
			strconv.Itoa(fc.OptimalOrderQuantity),
			strconv.FormatFloat(fc.StockoutRisk, 'f', 2, 64),
			fc.Recommendation.Action,
			strconv.Itoa(fc.Recommendation.RecommendedQuantity),
			string(fc.Recommendation.UrgencyLevel),
			fc.Recommendation.ReasonCode,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
