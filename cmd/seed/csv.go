package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// csvFile reads a whole CSV and hands each data row to fn together with
// a header->index map. Column names are lowercased.
func csvFile(path string, fn func(row []string, cols map[string]int) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	cols := make(map[string]int, len(header))
	for i, col := range header {
		cols[strings.ToLower(strings.TrimSpace(col))] = i
	}

	count := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := fn(row, cols); err != nil {
			return count, fmt.Errorf("%s row %d: %w", path, count+1, err)
		}
		count++
	}
	return count, nil
}

func cell(row []string, cols map[string]int, name string) string {
	if idx, ok := cols[name]; ok && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func cellFloat(row []string, cols map[string]int, name string) float64 {
	v := cell(row, cols, name)
	if v == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(v, 64)
	return f
}

func cellInt(row []string, cols map[string]int, name string) int {
	// Seed exports sometimes carry integers as "12.0"
	return int(cellFloat(row, cols, name))
}

func cellInt64(row []string, cols map[string]int, name string) int64 {
	return int64(cellFloat(row, cols, name))
}
