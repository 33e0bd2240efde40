package costing

import (
	"sort"
	"time"

	"github.com/tranvda/mfg-backend/internal/domain"
)

// historyCap bounds the rolling window of completed orders the predictor
// learns from.
const historyCap = 100

// History is the explicit historical window the predictor is evaluated
// against. It holds only completed orders carrying a cost analysis, newest
// first, capped at historyCap. The caller threads it through; appending
// returns a new value rather than mutating in place, so two predictions
// against the same History are guaranteed identical.
type History struct {
	orders []domain.ProductionOrder
}

// NewHistory builds a window from an arbitrary order list, keeping only
// eligible comparables (completed with a cost analysis) and trimming to the
// most recently completed historyCap entries.
func NewHistory(orders []domain.ProductionOrder) History {
	eligible := make([]domain.ProductionOrder, 0, len(orders))
	for _, o := range orders {
		if o.Status.IsCompleted() && o.CostAnalysis != nil {
			eligible = append(eligible, o)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return completedTime(eligible[i]).After(completedTime(eligible[j]))
	})

	if len(eligible) > historyCap {
		eligible = eligible[:historyCap]
	}

	return History{orders: eligible}
}

// Append returns a new History with the completed order added at the front.
// Orders that are not eligible comparables are ignored.
func (h History) Append(order domain.ProductionOrder) History {
	if !order.Status.IsCompleted() || order.CostAnalysis == nil {
		return h
	}

	orders := make([]domain.ProductionOrder, 0, len(h.orders)+1)
	orders = append(orders, order)
	orders = append(orders, h.orders...)
	if len(orders) > historyCap {
		orders = orders[:historyCap]
	}

	return History{orders: orders}
}

// Len returns the number of comparables in the window.
func (h History) Len() int {
	return len(h.orders)
}

// Orders returns the window contents, newest first.
func (h History) Orders() []domain.ProductionOrder {
	return h.orders
}

func completedTime(o domain.ProductionOrder) time.Time {
	if o.CompletedAt != nil {
		return *o.CompletedAt
	}
	return o.CreationDate
}
