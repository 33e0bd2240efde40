package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tranvda/mfg-backend/internal/domain"
)

// IngestRepository writes snapshot rows imported from external sources
// (seed CSVs, Drive exports). It works over database/sql so the seed and
// sync CLIs can share it.
type IngestRepository struct {
	db *sql.DB
}

func NewIngestRepository(db *sql.DB) *IngestRepository {
	return &IngestRepository{db: db}
}

func (r *IngestRepository) UpsertMaterial(ctx context.Context, m *domain.Material) (int64, error) {
	query := `
		INSERT INTO materials (sku, name, unit, purchase_price, retail_price,
		                       wholesale_price, stock, min_stock, supplier, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (sku)
		DO UPDATE SET
			name = EXCLUDED.name,
			unit = EXCLUDED.unit,
			purchase_price = EXCLUDED.purchase_price,
			retail_price = EXCLUDED.retail_price,
			wholesale_price = EXCLUDED.wholesale_price,
			stock = EXCLUDED.stock,
			min_stock = EXCLUDED.min_stock,
			supplier = EXCLUDED.supplier,
			updated_at = NOW()
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		m.SKU, m.Name, m.Unit, m.PurchasePrice, m.RetailPrice,
		m.WholesalePrice, m.Stock, m.MinStock, m.Supplier).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert material %s: %w", m.SKU, err)
	}
	return id, nil
}

func (r *IngestRepository) UpsertBOM(ctx context.Context, b *domain.BOM) (int64, error) {
	query := `
		INSERT INTO boms (product_sku, product_name, notes, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (product_sku)
		DO UPDATE SET
			product_name = EXCLUDED.product_name,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query, b.ProductSKU, b.ProductName, b.Notes).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert bom %s: %w", b.ProductSKU, err)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM bom_lines WHERE bom_id = $1`, id); err != nil {
		return 0, fmt.Errorf("failed to clear bom lines: %w", err)
	}
	for _, line := range b.Lines {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO bom_lines (bom_id, material_id, quantity) VALUES ($1, $2, $3)`,
			id, line.MaterialID, line.Quantity)
		if err != nil {
			return 0, fmt.Errorf("failed to insert bom line: %w", err)
		}
	}
	return id, nil
}

func (r *IngestRepository) InsertOrder(ctx context.Context, o *domain.ProductionOrder) (int64, error) {
	query := `
		INSERT INTO production_orders (bom_id, product_name, quantity_produced, status,
		                               materials_cost, total_cost, creation_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		o.BOMID, o.ProductName, o.QuantityProduced, int(o.Status),
		o.MaterialsCost, o.TotalCost, o.CreationDate).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, cm := range o.CommittedMaterials {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO order_committed_materials (order_id, material_id, quantity)
			 VALUES ($1, $2, $3)`,
			id, cm.MaterialID, cm.Quantity)
		if err != nil {
			return 0, fmt.Errorf("failed to insert commitment: %w", err)
		}
	}
	return id, nil
}

func (r *IngestRepository) MaterialIDBySKU(ctx context.Context, sku string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM materials WHERE sku = $1`, sku).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to look up material %s: %w", sku, err)
	}
	return id, nil
}
