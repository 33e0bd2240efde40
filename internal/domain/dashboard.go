package domain

import "time"

// InventorySummary classifies every material and accumulates value at risk
type InventorySummary struct {
	TotalMaterials     int     `json:"total_materials"`
	CriticalMaterials  int     `json:"critical_materials"`
	OverstockMaterials int     `json:"overstock_materials"`
	AdequateMaterials  int     `json:"adequate_materials"`
	ValueAtRisk        float64 `json:"value_at_risk"`
}

// Alert is one actionable line on the dashboard
type Alert struct {
	MaterialID   int64        `json:"material_id"`
	MaterialName string       `json:"material_name"`
	ReasonCode   string       `json:"reason_code"`
	UrgencyLevel UrgencyLevel `json:"urgency_level"`
	StockoutRisk float64      `json:"stockout_risk"`
	Message      string       `json:"message"`
}

// DashboardSummary composes both engines' outputs for the back-office UI
type DashboardSummary struct {
	GeneratedAt         time.Time           `json:"generated_at"`
	Inventory           InventorySummary    `json:"inventory"`
	OutOfStockCount     int                 `json:"out_of_stock_count"`
	LowStockCount       int                 `json:"low_stock_count"`
	TotalStockValue     float64             `json:"total_stock_value"`
	CommittedValue      float64             `json:"committed_value"`
	AverageStockoutRisk float64             `json:"average_stockout_risk"`
	ActiveOrders        int                 `json:"active_orders"`
	Alerts              []Alert             `json:"alerts"`
	UrgentMaterials     []InventoryForecast `json:"urgent_materials"`
}

// ForecastFilter narrows forecast queries from the API layer
type ForecastFilter struct {
	MaterialIDs  []int64 `json:"material_ids"`
	MinRisk      float64 `json:"min_risk"`
	OnlyCritical bool    `json:"only_critical"`
	Page         int     `json:"page"`
	PageSize     int     `json:"page_size"`
}
