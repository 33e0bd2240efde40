package main

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tranvda/mfg-backend/internal/domain"
	"github.com/tranvda/mfg-backend/internal/repository"
)

func seedMaterials(c *cli.Context) error {
	db, err := dbFromContext(c)
	if err != nil {
		return err
	}
	repo := repository.NewIngestRepository(db)

	path := filepath.Join(c.String("data-dir"), "materials.csv")
	count, err := csvFile(path, func(row []string, cols map[string]int) error {
		m := &domain.Material{
			SKU:            cell(row, cols, "sku"),
			Name:           cell(row, cols, "name"),
			Unit:           cell(row, cols, "unit"),
			PurchasePrice:  cellFloat(row, cols, "purchase_price"),
			RetailPrice:    cellFloat(row, cols, "retail_price"),
			WholesalePrice: cellFloat(row, cols, "wholesale_price"),
			Stock:          cellInt(row, cols, "stock"),
			MinStock:       cellInt(row, cols, "min_stock"),
			Supplier:       cell(row, cols, "supplier"),
		}
		_, err := repo.UpsertMaterial(c.Context, m)
		return err
	})
	if err != nil {
		return err
	}

	log.Printf("seeded %d materials", count)
	return nil
}

func seedBOMs(c *cli.Context) error {
	db, err := dbFromContext(c)
	if err != nil {
		return err
	}
	repo := repository.NewIngestRepository(db)
	dataDir := c.String("data-dir")

	// bom_lines.csv references materials by SKU; resolve to ids as we go.
	lines := make(map[string][]domain.BOMLine)
	linesPath := filepath.Join(dataDir, "bom_lines.csv")
	if _, err := csvFile(linesPath, func(row []string, cols map[string]int) error {
		productSKU := cell(row, cols, "product_sku")
		materialID, err := repo.MaterialIDBySKU(c.Context, cell(row, cols, "material_sku"))
		if err != nil {
			return err
		}
		lines[productSKU] = append(lines[productSKU], domain.BOMLine{
			MaterialID: materialID,
			Quantity:   cellFloat(row, cols, "quantity"),
		})
		return nil
	}); err != nil {
		return err
	}

	path := filepath.Join(dataDir, "boms.csv")
	count, err := csvFile(path, func(row []string, cols map[string]int) error {
		sku := cell(row, cols, "product_sku")
		b := &domain.BOM{
			ProductSKU:  sku,
			ProductName: cell(row, cols, "product_name"),
			Notes:       cell(row, cols, "notes"),
			Lines:       lines[sku],
		}
		_, err := repo.UpsertBOM(c.Context, b)
		return err
	})
	if err != nil {
		return err
	}

	log.Printf("seeded %d boms", count)
	return nil
}

func seedOrders(c *cli.Context) error {
	db, err := dbFromContext(c)
	if err != nil {
		return err
	}
	repo := repository.NewIngestRepository(db)

	path := filepath.Join(c.String("data-dir"), "orders.csv")
	count, err := csvFile(path, func(row []string, cols map[string]int) error {
		status, ok := domain.ParseOrderStatus(cell(row, cols, "status"))
		if !ok {
			return fmt.Errorf("unknown order status %q", cell(row, cols, "status"))
		}

		created := time.Now()
		if raw := cell(row, cols, "creation_date"); raw != "" {
			if t, err := time.Parse("2006-01-02", raw); err == nil {
				created = t
			}
		}

		o := &domain.ProductionOrder{
			BOMID:            cellInt64(row, cols, "bom_id"),
			ProductName:      cell(row, cols, "product_name"),
			QuantityProduced: cellInt(row, cols, "quantity_produced"),
			Status:           status,
			MaterialsCost:    cellFloat(row, cols, "materials_cost"),
			TotalCost:        cellFloat(row, cols, "total_cost"),
			CreationDate:     created,
		}
		_, err = repo.InsertOrder(c.Context, o)
		return err
	})
	if err != nil {
		return err
	}

	log.Printf("seeded %d orders", count)
	return nil
}
