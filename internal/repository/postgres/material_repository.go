package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/tranvda/mfg-backend/internal/domain"
	"github.com/tranvda/mfg-backend/internal/repository"
)

type materialRepository struct {
	db *DB
}

func NewMaterialRepository(db *DB) *materialRepository {
	return &materialRepository{db: db}
}

func (r *materialRepository) GetMaterials(ctx context.Context) ([]domain.Material, error) {
	query := `
		SELECT id, name, sku, unit, purchase_price, retail_price, wholesale_price,
		       stock, min_stock, supplier, created_at, updated_at
		FROM materials
		ORDER BY id
	`
	materials := make([]domain.Material, 0)
	if err := r.db.SelectContext(ctx, &materials, query); err != nil {
		return nil, fmt.Errorf("failed to load materials: %w", err)
	}
	return materials, nil
}

func (r *materialRepository) GetMaterial(ctx context.Context, id int64) (*domain.Material, error) {
	query := `
		SELECT id, name, sku, unit, purchase_price, retail_price, wholesale_price,
		       stock, min_stock, supplier, created_at, updated_at
		FROM materials
		WHERE id = $1
	`
	var m domain.Material
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load material %d: %w", id, err)
	}
	return &m, nil
}

// lockOpenOrder row-locks an order so lifecycle transitions serialize,
// and rejects orders that are no longer pending or in production.
func lockOpenOrder(ctx context.Context, tx *sql.Tx, orderID int64) error {
	var status int
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM production_orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("order %d: %w", orderID, repository.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock order %d: %w", orderID, err)
	}
	if !domain.OrderStatus(status).CountsTowardCommitment() {
		return fmt.Errorf("order %d: %w", orderID, repository.ErrOrderNotOpen)
	}
	return nil
}

// ReserveMaterials records commitment lines against an open order. Stock
// itself is never touched here; a reservation only raises the committed
// quantity, and each line must fit inside stock minus what other open
// orders already hold. Material rows are locked so concurrent
// reservations cannot both pass the same availability check.
func (r *materialRepository) ReserveMaterials(ctx context.Context, orderID int64, lines []domain.CommittedMaterial) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := lockOpenOrder(ctx, tx, orderID); err != nil {
			return err
		}

		lock := `SELECT stock FROM materials WHERE id = $1 FOR UPDATE`
		held := `
			SELECT COALESCE(SUM(c.quantity), 0)
			FROM order_committed_materials c
			JOIN production_orders o ON o.id = c.order_id
			WHERE c.material_id = $1 AND o.status IN ($2, $3)
		`
		record := `
			INSERT INTO order_committed_materials (order_id, material_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (order_id, material_id)
			DO UPDATE SET quantity = order_committed_materials.quantity + EXCLUDED.quantity
		`

		for _, line := range lines {
			var stock int
			if err := tx.QueryRowContext(ctx, lock, line.MaterialID).Scan(&stock); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("material %d: %w", line.MaterialID, repository.ErrNotFound)
				}
				return fmt.Errorf("failed to lock material %d: %w", line.MaterialID, err)
			}

			var committed int
			if err := tx.QueryRowContext(ctx, held, line.MaterialID,
				int(domain.StatusPending), int(domain.StatusInProduction)).Scan(&committed); err != nil {
				return fmt.Errorf("failed to sum commitments for material %d: %w", line.MaterialID, err)
			}
			if stock-committed < line.Quantity {
				return fmt.Errorf("material %d: %w", line.MaterialID, repository.ErrInsufficientStock)
			}

			if _, err := tx.ExecContext(ctx, record, orderID, line.MaterialID, line.Quantity); err != nil {
				return fmt.Errorf("failed to record commitment for material %d: %w", line.MaterialID, err)
			}
		}
		return nil
	})
}

// ReleaseMaterials cancels an open order and drops its commitment rows.
// Stock stays where it is because reservations never moved it.
func (r *materialRepository) ReleaseMaterials(ctx context.Context, orderID int64) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := lockOpenOrder(ctx, tx, orderID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE production_orders SET status = $2 WHERE id = $1`,
			orderID, int(domain.StatusCancelled)); err != nil {
			return fmt.Errorf("failed to cancel order %d: %w", orderID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM order_committed_materials WHERE order_id = $1`, orderID); err != nil {
			return fmt.Errorf("failed to clear commitments for order %d: %w", orderID, err)
		}
		return nil
	})
}

// CompleteOrder settles an open order. Stock drops by the quantities
// actually consumed and the order closes with its actual costs recorded.
// A second call finds the order closed and fails, so the settlement
// cannot run twice.
func (r *materialRepository) CompleteOrder(ctx context.Context, orderID int64, actuals domain.ActualCosts) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := lockOpenOrder(ctx, tx, orderID); err != nil {
			return err
		}

		consume := `
			UPDATE materials
			SET stock = GREATEST(stock - $2, 0), updated_at = NOW()
			WHERE id = $1
		`
		record := `
			UPDATE order_committed_materials
			SET actual_quantity_used = $3
			WHERE order_id = $1 AND material_id = $2
		`
		insertCost := `
			INSERT INTO order_material_costs (order_id, material_id, quantity, cost)
			VALUES ($1, $2, $3, $4)
		`

		for _, mc := range actuals.MaterialCosts {
			used := int(math.Round(mc.Quantity))
			if _, err := tx.ExecContext(ctx, consume, mc.MaterialID, used); err != nil {
				return fmt.Errorf("failed to consume material %d: %w", mc.MaterialID, err)
			}
			if _, err := tx.ExecContext(ctx, record, orderID, mc.MaterialID, used); err != nil {
				return fmt.Errorf("failed to record usage for material %d: %w", mc.MaterialID, err)
			}
			if _, err := tx.ExecContext(ctx, insertCost, orderID, mc.MaterialID, mc.Quantity, mc.Cost); err != nil {
				return fmt.Errorf("failed to record material cost: %w", err)
			}
		}

		complete := `
			UPDATE production_orders
			SET status = $2,
			    actual_additional_costs = $3,
			    total_actual_cost = $4,
			    completed_at = NOW()
			WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, complete, orderID,
			int(domain.StatusCompleted), actuals.AdditionalCosts, actuals.TotalActualCost); err != nil {
			return fmt.Errorf("failed to complete order %d: %w", orderID, err)
		}
		return nil
	})
}
