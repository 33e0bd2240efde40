package repository

import (
	"context"
	"errors"

	"github.com/tranvda/mfg-backend/internal/domain"
)

// ErrInsufficientStock is returned when a reservation asks for more of a
// material than its uncommitted stock can cover.
var ErrInsufficientStock = errors.New("insufficient stock for reservation")

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrOrderNotOpen is returned when a lifecycle mutation targets an order
// that is no longer pending or in production.
var ErrOrderNotOpen = errors.New("order is not open")

type SnapshotRepository interface {
	GetSnapshot(ctx context.Context) (*domain.Snapshot, error)
	GetMaterials(ctx context.Context) ([]domain.Material, error)
	GetMaterial(ctx context.Context, id int64) (*domain.Material, error)
	GetBOMs(ctx context.Context) ([]domain.BOM, error)
	GetOrders(ctx context.Context) ([]domain.ProductionOrder, error)
	GetOrder(ctx context.Context, id int64) (*domain.ProductionOrder, error)
}

// StockRepository mutates order commitments and material stock. Every
// method is transactional; a reservation either holds all its lines or
// none of them. Reserving raises committed quantities only. Stock itself
// moves once, at completion, by the actual quantities used.
type StockRepository interface {
	ReserveMaterials(ctx context.Context, orderID int64, lines []domain.CommittedMaterial) error
	ReleaseMaterials(ctx context.Context, orderID int64) error
	CompleteOrder(ctx context.Context, orderID int64, actuals domain.ActualCosts) error
}
