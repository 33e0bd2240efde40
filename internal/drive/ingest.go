package drive

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tranvda/mfg-backend/internal/domain"
	"github.com/tranvda/mfg-backend/internal/repository"
)

// IngestService imports material snapshot CSVs exported to Drive by the
// procurement team. One file holds one full materials listing; rows are
// upserted by SKU so re-importing the same file is safe.
type IngestService struct {
	driveService *Service
	repo         *repository.IngestRepository
}

func NewIngestService(driveService *Service, repo *repository.IngestRepository) *IngestService {
	return &IngestService{
		driveService: driveService,
		repo:         repo,
	}
}

var requiredColumns = []string{"sku", "name", "unit", "purchase_price", "stock"}

func (s *IngestService) IngestFile(ctx context.Context, fileID string) (int, error) {
	pr, pw := io.Pipe()
	go func() {
		err := s.driveService.DownloadFile(fileID, pw)
		pw.CloseWithError(err)
	}()

	return s.ingestCSV(ctx, pr)
}

// IngestFolder pulls every CSV and XLSX export from a Drive folder to
// downloadDir and ingests them one by one. Returns total imported rows.
func (s *IngestService) IngestFolder(ctx context.Context, folderID, downloadDir string) (int, error) {
	downloader := NewDownloader(s.driveService)
	paths, err := downloader.DownloadFolderCSV(ctx, DownloadOptions{
		FolderID:    folderID,
		DownloadDir: downloadDir,
	})
	if err != nil {
		return 0, err
	}

	total := 0
	for _, path := range paths {
		n, err := s.ingestLocalFile(ctx, path)
		total += n
		if err != nil {
			return total, fmt.Errorf("ingest %s: %w", path, err)
		}
	}
	return total, nil
}

func (s *IngestService) ingestLocalFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return s.ingestCSV(ctx, f)
}

func (s *IngestService) ingestCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colMap := make(map[string]int)
	for i, col := range header {
		colMap[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colMap[col]; !ok {
			return 0, fmt.Errorf("missing required column: %s", col)
		}
	}

	imported := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("failed to read CSV record: %w", err)
		}

		if err := s.processRow(ctx, record, colMap); err != nil {
			// Fail fast so a bad file never half-applies.
			return imported, fmt.Errorf("row %d: %w", imported+1, err)
		}
		imported++
	}

	return imported, nil
}

func (s *IngestService) processRow(ctx context.Context, record []string, colMap map[string]int) error {
	getValue := func(colName string) string {
		if idx, ok := colMap[colName]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}

	getFloat := func(colName string) float64 {
		val := getValue(colName)
		if val == "" {
			return 0
		}
		f, _ := strconv.ParseFloat(val, 64)
		return f
	}

	getInt := func(colName string) int {
		val := getValue(colName)
		if val == "" {
			return 0
		}
		// Handle float strings like "12.0"
		f, _ := strconv.ParseFloat(val, 64)
		return int(f)
	}

	sku := getValue("sku")
	if sku == "" {
		return fmt.Errorf("empty sku")
	}

	material := &domain.Material{
		SKU:            sku,
		Name:           getValue("name"),
		Unit:           getValue("unit"),
		PurchasePrice:  getFloat("purchase_price"),
		RetailPrice:    getFloat("retail_price"),
		WholesalePrice: getFloat("wholesale_price"),
		Stock:          getInt("stock"),
		MinStock:       getInt("min_stock"),
		Supplier:       getValue("supplier"),
	}

	if _, err := s.repo.UpsertMaterial(ctx, material); err != nil {
		return fmt.Errorf("upsert material %s: %w", sku, err)
	}
	return nil
}
