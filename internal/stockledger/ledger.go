// Package stockledger derives the committed/available view of material
// stock from the current production-order snapshot. Everything here is a
// pure function over its inputs; callers re-run it whenever the snapshot
// changes.
package stockledger

import (
	"github.com/tranvda/mfg-backend/internal/domain"
)

// ComputeCommitted sums the reserved quantity per material across orders
// that hold a commitment (pending and in-production only). Orders without
// committed lines contribute nothing.
func ComputeCommitted(orders []domain.ProductionOrder) map[int64]int {
	committed := make(map[int64]int)
	for _, order := range orders {
		if !order.Status.CountsTowardCommitment() {
			continue
		}
		for _, cm := range order.CommittedMaterials {
			committed[cm.MaterialID] += cm.Quantity
		}
	}

	return committed
}

// Enhance joins materials with the committed map and classifies each one.
//
//  1. available = max(0, stock - committed)
//  2. stock == 0 or available <= 0  -> out-of-stock
//  3. available < 20% of stock      -> low-stock
//  4. available < 50% of stock      -> medium-stock
//  5. otherwise                     -> good-stock
func Enhance(materials []domain.Material, committed map[int64]int) []domain.EnhancedMaterial {
	enhanced := make([]domain.EnhancedMaterial, 0, len(materials))
	for _, m := range materials {
		qty := committed[m.ID]
		if qty < 0 {
			qty = 0
		}

		available := m.Stock - qty
		if available < 0 {
			available = 0
		}

		ratio := 0.0
		if m.Stock > 0 {
			ratio = float64(qty) / float64(m.Stock)
		}

		enhanced = append(enhanced, domain.EnhancedMaterial{
			Material:          m,
			CommittedQuantity: qty,
			AvailableStock:    available,
			StockStatus:       classify(m.Stock, available),
			CommitmentRatio:   ratio,
		})
	}

	return enhanced
}

func classify(stock, available int) domain.StockStatus {
	if stock == 0 || available <= 0 {
		return domain.StockStatusOut
	}

	switch {
	case float64(available) < 0.2*float64(stock):
		return domain.StockStatusLow
	case float64(available) < 0.5*float64(stock):
		return domain.StockStatusMedium
	default:
		return domain.StockStatusGood
	}
}

// EnhanceSnapshot is the common entry point: committed quantities and the
// enhanced view in one call.
func EnhanceSnapshot(snapshot *domain.Snapshot) []domain.EnhancedMaterial {
	return Enhance(snapshot.Materials, ComputeCommitted(snapshot.Orders))
}

// Requirement is one (material, quantity) pair to check against available
// stock.
type Requirement struct {
	MaterialID int64   `json:"material_id"`
	Quantity   float64 `json:"quantity"`
}

// Shortage describes one requirement that cannot be satisfied
type Shortage struct {
	MaterialID   int64   `json:"material_id"`
	MaterialName string  `json:"material_name"`
	Required     float64 `json:"required"`
	Available    float64 `json:"available"`
}

// AvailabilityResult is the advisory outcome of an availability check
type AvailabilityResult struct {
	IsAvailable bool       `json:"is_available"`
	Shortages   []Shortage `json:"shortages"`
}

// CheckAvailability reports whether every requirement can be met from
// available stock and itemizes the failing subset. A material missing from
// the enhanced view is treated as zero availability, not an error.
//
// This is a read-only advisory check: it reserves nothing and does not
// guard against concurrent commits. The persistence layer's conditional
// reservation is the transactional counterpart.
func CheckAvailability(materials []domain.EnhancedMaterial, requirements []Requirement) AvailabilityResult {
	byID := make(map[int64]domain.EnhancedMaterial, len(materials))
	for _, m := range materials {
		byID[m.ID] = m
	}

	result := AvailabilityResult{IsAvailable: true, Shortages: []Shortage{}}
	for _, req := range requirements {
		m, ok := byID[req.MaterialID]
		if !ok {
			result.Shortages = append(result.Shortages, Shortage{
				MaterialID: req.MaterialID,
				Required:   req.Quantity,
				Available:  0,
			})
			continue
		}

		if float64(m.AvailableStock) < req.Quantity {
			result.Shortages = append(result.Shortages, Shortage{
				MaterialID:   m.ID,
				MaterialName: m.Name,
				Required:     req.Quantity,
				Available:    float64(m.AvailableStock),
			})
		}
	}

	result.IsAvailable = len(result.Shortages) == 0

	return result
}
