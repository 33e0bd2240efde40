package domain

import "strings"

// OrderStatus is the closed lifecycle state of a production order.
// The Vietnamese display strings used by the front office are a
// presentation concern; the core works with these codes only.
type OrderStatus int

const (
	StatusNew OrderStatus = iota
	StatusPending
	StatusInProduction
	StatusCompleted
	StatusCancelled
)

var orderStatusLabels = map[OrderStatus]string{
	StatusNew:          "Mới",
	StatusPending:      "Đang chờ",
	StatusInProduction: "Đang sản xuất",
	StatusCompleted:    "Hoàn thành",
	StatusCancelled:    "Đã hủy",
}

var orderStatusCodes = map[string]OrderStatus{
	"mới":           StatusNew,
	"new":           StatusNew,
	"đang chờ":      StatusPending,
	"pending":       StatusPending,
	"đang sản xuất": StatusInProduction,
	"in_production": StatusInProduction,
	"hoàn thành":    StatusCompleted,
	"completed":     StatusCompleted,
	"đã hủy":        StatusCancelled,
	"cancelled":     StatusCancelled,
}

// Label returns the display string for an order status.
func (s OrderStatus) Label() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}

	return "Mới"
}

// ParseOrderStatus returns the status code for a display or API label
// (case-insensitive).
func ParseOrderStatus(label string) (OrderStatus, bool) {
	code, ok := orderStatusCodes[strings.ToLower(strings.TrimSpace(label))]

	return code, ok
}

// CountsTowardCommitment reports whether an order in this status reserves
// material stock. Only pending and in-production orders do; this is the
// central invariant the commitment model relies on.
func (s OrderStatus) CountsTowardCommitment() bool {
	return s == StatusPending || s == StatusInProduction
}

// IsCompleted reports whether the order has finished and its actual costs
// are eligible as historical comparables.
func (s OrderStatus) IsCompleted() bool {
	return s == StatusCompleted
}
