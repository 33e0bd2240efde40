// internal/domain/models.go
package domain

import "time"

// Material represents a raw material tracked by the inventory subsystem
type Material struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	SKU            string    `json:"sku" db:"sku"`
	Unit           string    `json:"unit" db:"unit"`
	PurchasePrice  float64   `json:"purchase_price" db:"purchase_price"`
	RetailPrice    float64   `json:"retail_price" db:"retail_price"`
	WholesalePrice float64   `json:"wholesale_price" db:"wholesale_price"`
	Stock          int       `json:"stock" db:"stock"`
	MinStock       int       `json:"min_stock" db:"min_stock"`
	Supplier       string    `json:"supplier" db:"supplier"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// StockStatus classifies available stock relative to total stock
type StockStatus string

const (
	StockStatusOut    StockStatus = "out-of-stock"
	StockStatusLow    StockStatus = "low-stock"
	StockStatusMedium StockStatus = "medium-stock"
	StockStatusGood   StockStatus = "good-stock"
)

// EnhancedMaterial is a Material plus commitment-derived fields.
// Recomputed from the current order snapshot on every read, never persisted.
type EnhancedMaterial struct {
	Material
	CommittedQuantity int         `json:"committed_quantity"`
	AvailableStock    int         `json:"available_stock"`
	StockStatus       StockStatus `json:"stock_status"`
	CommitmentRatio   float64     `json:"commitment_ratio"`
}

// BOMLine maps a material to the quantity needed per one unit of product
type BOMLine struct {
	MaterialID int64   `json:"material_id" db:"material_id"`
	Quantity   float64 `json:"quantity" db:"quantity"`
}

// BOM is the recipe for one finished product
type BOM struct {
	ID          int64     `json:"id" db:"id"`
	ProductName string    `json:"product_name" db:"product_name"`
	ProductSKU  string    `json:"product_sku" db:"product_sku"`
	Lines       []BOMLine `json:"materials" db:"-"`
	Notes       string    `json:"notes" db:"notes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CommittedMaterial is a reservation line on a production order.
// ActualQuantityUsed is filled in when the order completes.
type CommittedMaterial struct {
	MaterialID         int64 `json:"material_id" db:"material_id"`
	Quantity           int   `json:"quantity" db:"quantity"`
	ActualQuantityUsed *int  `json:"actual_quantity_used,omitempty" db:"actual_quantity_used"`
}

// AdditionalCost is a non-material cost line on a production order
type AdditionalCost struct {
	Description string  `json:"description" db:"description"`
	Amount      float64 `json:"amount" db:"amount"`
}

// MaterialCost records the actual consumption and cost of one material
type MaterialCost struct {
	MaterialID int64   `json:"material_id" db:"material_id"`
	Quantity   float64 `json:"quantity" db:"quantity"`
	Cost       float64 `json:"cost" db:"cost"`
}

// ActualCosts holds the real costs recorded when an order completes
type ActualCosts struct {
	MaterialCosts   []MaterialCost `json:"material_costs"`
	AdditionalCosts float64        `json:"additional_costs"`
	TotalActualCost float64        `json:"total_actual_cost"`
}

// CostAnalysis compares estimated vs actual cost for a completed order.
// Variance is the signed ratio (actual - estimated) / estimated.
type CostAnalysis struct {
	EstimatedCost float64 `json:"estimated_cost" db:"estimated_cost"`
	ActualCost    float64 `json:"actual_cost" db:"actual_cost"`
	Variance      float64 `json:"variance" db:"variance"`
}

// ProductionOrder is one production run of a BOM
type ProductionOrder struct {
	ID                 int64               `json:"id" db:"id"`
	BOMID              int64               `json:"bom_id" db:"bom_id"`
	ProductName        string              `json:"product_name" db:"product_name"`
	QuantityProduced   int                 `json:"quantity_produced" db:"quantity_produced"`
	Status             OrderStatus         `json:"status" db:"status"`
	MaterialsCost      float64             `json:"materials_cost" db:"materials_cost"`
	AdditionalCosts    []AdditionalCost    `json:"additional_costs,omitempty"`
	TotalCost          float64             `json:"total_cost" db:"total_cost"`
	CommittedMaterials []CommittedMaterial `json:"committed_materials"`
	ActualCosts        *ActualCosts        `json:"actual_costs,omitempty"`
	CostAnalysis       *CostAnalysis       `json:"cost_analysis,omitempty"`
	CreationDate       time.Time           `json:"creation_date" db:"creation_date"`
	CompletedAt        *time.Time          `json:"completed_at,omitempty" db:"completed_at"`
}

// Snapshot is the full in-memory input the analytics engines consume.
// Always supplied whole by the caller, never as deltas.
type Snapshot struct {
	Materials []Material        `json:"materials"`
	Orders    []ProductionOrder `json:"orders"`
	BOMs      []BOM             `json:"boms"`
}

// FactorImpact classifies how a prediction factor moves the cost estimate
type FactorImpact string

const (
	ImpactPositive FactorImpact = "positive"
	ImpactNegative FactorImpact = "negative"
	ImpactNeutral  FactorImpact = "neutral"
)

// PredictionFactor is one weighted adjustment applied to the base cost
type PredictionFactor struct {
	Factor      string       `json:"factor"`
	Impact      FactorImpact `json:"impact"`
	Weight      float64      `json:"weight"`
	Description string       `json:"description"`
}

// RiskLevel grades a risk factor or the overall assessment
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskFactor is one independent risk identified for a prospective order
type RiskFactor struct {
	Type        string    `json:"type"`
	Severity    RiskLevel `json:"severity"`
	Probability float64   `json:"probability"`
	Impact      float64   `json:"impact"`
	Description string    `json:"description"`
}

// RiskAssessment is the structured risk output of a cost prediction
type RiskAssessment struct {
	OverallRisk           RiskLevel    `json:"overall_risk"`
	RiskFactors           []RiskFactor `json:"risk_factors"`
	MitigationSuggestions []string     `json:"mitigation_suggestions"`
}

// CostPrediction is the ephemeral output of the predictive cost engine
type CostPrediction struct {
	OrderID                 int64              `json:"order_id"`
	PredictedTotalCost      float64            `json:"predicted_total_cost"`
	ConfidenceLevel         float64            `json:"confidence_level"`
	BasedOnHistoricalOrders int                `json:"based_on_historical_orders"`
	PredictionFactors       []PredictionFactor `json:"prediction_factors"`
	RiskAssessment          RiskAssessment     `json:"risk_assessment"`
	LastUpdated             time.Time          `json:"last_updated"`
}

// WeeklyDemand is one projected demand bucket for a material
type WeeklyDemand struct {
	Date            time.Time `json:"date"`
	ProjectedDemand float64   `json:"projected_demand"`
	Confidence      float64   `json:"confidence"`
	BasedOnOrders   []int64   `json:"based_on_orders"`
}

// UrgencyLevel grades how soon a reorder recommendation should be acted on
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// Recommendation actions
const (
	ActionImmediate   = "immediate"
	ActionWithinWeek  = "within_week"
	ActionWithinMonth = "within_month"
	ActionNoneNeeded  = "no_action_needed"
)

// Recommendation reason codes
const (
	ReasonOutOfStock        = "OUT_OF_STOCK"
	ReasonCriticalLowStock  = "CRITICAL_LOW_STOCK"
	ReasonBelowReorderPoint = "BELOW_REORDER_POINT"
	ReasonProjectedShortage = "PROJECTED_SHORTAGE"
	ReasonStockAdequate     = "STOCK_ADEQUATE"
)

// ReorderRecommendation is the actionable output for one material
type ReorderRecommendation struct {
	Action              string       `json:"action"`
	RecommendedQuantity int          `json:"recommended_quantity"`
	UrgencyLevel        UrgencyLevel `json:"urgency_level"`
	ReasonCode          string       `json:"reason_code"`
	EstimatedCost       float64      `json:"estimated_cost"`
	PreferredSupplier   string       `json:"preferred_supplier"`
}

// InventoryForecast is the ephemeral per-material output of the inventory
// analytics engine
type InventoryForecast struct {
	MaterialID           int64                 `json:"material_id"`
	MaterialName         string                `json:"material_name"`
	CurrentStock         int                   `json:"current_stock"`
	AvailableStock       int                   `json:"available_stock"`
	ProjectedDemand      []WeeklyDemand        `json:"projected_demand"`
	ReorderPoint         int                   `json:"reorder_point"`
	OptimalOrderQuantity int                   `json:"optimal_order_quantity"`
	StockoutRisk         float64               `json:"stockout_risk"`
	Recommendation       ReorderRecommendation `json:"recommended_action"`
}
