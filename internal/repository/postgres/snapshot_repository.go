package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tranvda/mfg-backend/internal/domain"
	"github.com/tranvda/mfg-backend/internal/repository"
)

type snapshotRepository struct {
	db        *DB
	materials *materialRepository
}

func NewSnapshotRepository(db *DB) *snapshotRepository {
	return &snapshotRepository{db: db, materials: NewMaterialRepository(db)}
}

func (r *snapshotRepository) GetMaterials(ctx context.Context) ([]domain.Material, error) {
	return r.materials.GetMaterials(ctx)
}

func (r *snapshotRepository) GetMaterial(ctx context.Context, id int64) (*domain.Material, error) {
	return r.materials.GetMaterial(ctx, id)
}

func (r *snapshotRepository) GetBOMs(ctx context.Context) ([]domain.BOM, error) {
	query := `
		SELECT id, product_name, product_sku, notes, created_at, updated_at
		FROM boms
		ORDER BY id
	`
	boms := make([]domain.BOM, 0)
	if err := r.db.SelectContext(ctx, &boms, query); err != nil {
		return nil, fmt.Errorf("failed to load boms: %w", err)
	}

	lines, err := r.bomLines(ctx)
	if err != nil {
		return nil, err
	}
	for i := range boms {
		boms[i].Lines = lines[boms[i].ID]
		if boms[i].Lines == nil {
			boms[i].Lines = []domain.BOMLine{}
		}
	}
	return boms, nil
}

func (r *snapshotRepository) bomLines(ctx context.Context) (map[int64][]domain.BOMLine, error) {
	query := `
		SELECT bom_id, material_id, quantity
		FROM bom_lines
		ORDER BY bom_id, material_id
	`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load bom lines: %w", err)
	}
	defer rows.Close()

	lines := make(map[int64][]domain.BOMLine)
	for rows.Next() {
		var bomID int64
		var line domain.BOMLine
		if err := rows.Scan(&bomID, &line.MaterialID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan bom line: %w", err)
		}
		lines[bomID] = append(lines[bomID], line)
	}
	return lines, rows.Err()
}

func (r *snapshotRepository) GetOrders(ctx context.Context) ([]domain.ProductionOrder, error) {
	query := `
		SELECT id, bom_id, product_name, quantity_produced, status,
		       materials_cost, total_cost, creation_date, completed_at,
		       actual_additional_costs, total_actual_cost
		FROM production_orders
		ORDER BY creation_date DESC
	`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.ProductionOrder, 0)
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachCommitments(ctx, orders); err != nil {
		return nil, err
	}
	if err := r.attachMaterialCosts(ctx, orders); err != nil {
		return nil, err
	}
	for i := range orders {
		finalizeCostAnalysis(&orders[i])
	}
	return orders, nil
}

func (r *snapshotRepository) GetOrder(ctx context.Context, id int64) (*domain.ProductionOrder, error) {
	query := `
		SELECT id, bom_id, product_name, quantity_produced, status,
		       materials_cost, total_cost, creation_date, completed_at,
		       actual_additional_costs, total_actual_cost
		FROM production_orders
		WHERE id = $1
	`
	row := r.db.QueryRowxContext(ctx, query, id)
	o, err := scanOrder(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order %d: %w", id, err)
	}

	orders := []domain.ProductionOrder{o}
	if err := r.attachCommitments(ctx, orders); err != nil {
		return nil, err
	}
	if err := r.attachMaterialCosts(ctx, orders); err != nil {
		return nil, err
	}
	finalizeCostAnalysis(&orders[0])
	return &orders[0], nil
}

// GetSnapshot loads the full analytics input in one call.
func (r *snapshotRepository) GetSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	materials, err := r.GetMaterials(ctx)
	if err != nil {
		return nil, err
	}
	boms, err := r.GetBOMs(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := r.GetOrders(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.Snapshot{Materials: materials, BOMs: boms, Orders: orders}, nil
}

type scanFunc func(dest ...any) error

func scanOrder(scan scanFunc) (domain.ProductionOrder, error) {
	var (
		o                domain.ProductionOrder
		status           int
		actualAdditional sql.NullFloat64
		totalActual      sql.NullFloat64
	)
	err := scan(&o.ID, &o.BOMID, &o.ProductName, &o.QuantityProduced, &status,
		&o.MaterialsCost, &o.TotalCost, &o.CreationDate, &o.CompletedAt,
		&actualAdditional, &totalActual)
	if err != nil {
		return o, err
	}

	o.Status = domain.OrderStatus(status)
	if totalActual.Valid {
		o.ActualCosts = &domain.ActualCosts{
			AdditionalCosts: actualAdditional.Float64,
			TotalActualCost: totalActual.Float64,
		}
	}
	return o, nil
}

func (r *snapshotRepository) attachCommitments(ctx context.Context, orders []domain.ProductionOrder) error {
	if len(orders) == 0 {
		return nil
	}
	query := `
		SELECT order_id, material_id, quantity, actual_quantity_used
		FROM order_committed_materials
		ORDER BY order_id, material_id
	`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to load commitments: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[int64][]domain.CommittedMaterial)
	for rows.Next() {
		var orderID int64
		var cm domain.CommittedMaterial
		if err := rows.Scan(&orderID, &cm.MaterialID, &cm.Quantity, &cm.ActualQuantityUsed); err != nil {
			return fmt.Errorf("failed to scan commitment: %w", err)
		}
		byOrder[orderID] = append(byOrder[orderID], cm)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range orders {
		orders[i].CommittedMaterials = byOrder[orders[i].ID]
	}
	return nil
}

func (r *snapshotRepository) attachMaterialCosts(ctx context.Context, orders []domain.ProductionOrder) error {
	if len(orders) == 0 {
		return nil
	}
	query := `
		SELECT order_id, material_id, quantity, cost
		FROM order_material_costs
		ORDER BY order_id, material_id
	`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to load material costs: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[int64][]domain.MaterialCost)
	for rows.Next() {
		var orderID int64
		var mc domain.MaterialCost
		if err := rows.Scan(&orderID, &mc.MaterialID, &mc.Quantity, &mc.Cost); err != nil {
			return fmt.Errorf("failed to scan material cost: %w", err)
		}
		byOrder[orderID] = append(byOrder[orderID], mc)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range orders {
		if orders[i].ActualCosts != nil {
			orders[i].ActualCosts.MaterialCosts = byOrder[orders[i].ID]
		}
	}
	return nil
}

// finalizeCostAnalysis derives the estimated vs actual comparison for
// completed orders with recorded actuals.
func finalizeCostAnalysis(o *domain.ProductionOrder) {
	if !o.Status.IsCompleted() || o.ActualCosts == nil || o.TotalCost <= 0 {
		return
	}
	actual := o.ActualCosts.TotalActualCost
	o.CostAnalysis = &domain.CostAnalysis{
		EstimatedCost: o.TotalCost,
		ActualCost:    actual,
		Variance:      (actual - o.TotalCost) / o.TotalCost,
	}
}
