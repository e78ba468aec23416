package main

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/stocksense/internal/domain"
	"github.com/andresuchdata/stocksense/internal/repository/postgres"
	"github.com/urfave/cli/v2"
	"github.com/xuri/excelize/v2"
)

// csvRow looks up cells by header name.
type csvRow struct {
	header map[string]int
	record []string
	line   int
}

func (r csvRow) str(col string) string {
	idx, ok := r.header[col]
	if !ok || idx >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[idx])
}

func (r csvRow) intValue(col string) (int, error) {
	v := r.str(col)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("line %d: column %s: %w", r.line, col, err)
	}
	return n, nil
}

func (r csvRow) floatValue(col string) (float64, error) {
	v := r.str(col)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: column %s: %w", r.line, col, err)
	}
	return f, nil
}

func readCSV(reader io.Reader, required []string, fn func(row csvRow) error) error {
	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true
	// Spreadsheet exports drop trailing empty cells
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return fmt.Errorf("missing required column %q", col)
		}
	}

	for line := 2; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV record: %w", err)
		}
		if err := fn(csvRow{header: index, record: record, line: line}); err != nil {
			return err
		}
	}
}

func parseProducts(reader io.Reader) ([]domain.Product, error) {
	var products []domain.Product

	err := readCSV(reader, []string{"sku", "name"}, func(row csvRow) error {
		p := domain.Product{SKU: row.str("sku"), Name: row.str("name"), IsActive: true}
		if p.SKU == "" {
			return fmt.Errorf("line %d: sku is required", row.line)
		}

		ints := []struct {
			col string
			dst *int
		}{
			{"current_stock", &p.CurrentStock},
			{"reorder_point", &p.ReorderPoint},
			{"min_stock_level", &p.MinStockLevel},
			{"max_stock_level", &p.MaxStockLevel},
			{"reorder_quantity", &p.ReorderQuantity},
			{"lead_time_days", &p.LeadTimeDays},
		}
		for _, f := range ints {
			v, err := row.intValue(f.col)
			if err != nil {
				return err
			}
			*f.dst = v
		}

		var err error
		if p.UnitCost, err = row.floatValue("unit_cost"); err != nil {
			return err
		}
		if p.SellingPrice, err = row.floatValue("selling_price"); err != nil {
			return err
		}
		if v := row.str("is_active"); v != "" {
			if p.IsActive, err = strconv.ParseBool(v); err != nil {
				return fmt.Errorf("line %d: column is_active: %w", row.line, err)
			}
		}

		products = append(products, p)
		return nil
	})
	return products, err
}

func parseSaleDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", v)
}

func parseSales(reader io.Reader) ([]postgres.SaleImport, error) {
	var sales []postgres.SaleImport

	err := readCSV(reader, []string{"sku", "quantity", "sale_date"}, func(row csvRow) error {
		qty, err := row.intValue("quantity")
		if err != nil {
			return err
		}
		if qty <= 0 {
			return fmt.Errorf("line %d: quantity must be positive", row.line)
		}
		price, err := row.floatValue("unit_price")
		if err != nil {
			return err
		}
		date, err := parseSaleDate(row.str("sale_date"))
		if err != nil {
			return fmt.Errorf("line %d: column sale_date: %w", row.line, err)
		}

		sales = append(sales, postgres.SaleImport{
			SKU: row.str("sku"),
			Sale: domain.Sale{
				Quantity:  qty,
				UnitPrice: price,
				SaleDate:  date,
				Channel:   row.str("channel"),
			},
		})
		return nil
	})
	return sales, err
}

// xlsxToCSV renders the first sheet of a workbook as CSV.
func xlsxToCSV(path string) (io.Reader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file %s has no sheets", path)
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row from %s: %w", path, err)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating rows in %s: %w", path, err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return &buf, nil
}

// loadCSVFile parses a .csv or .xlsx file; an empty path yields nothing.
func loadCSVFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	if path == "" {
		return nil, nil
	}

	var reader io.Reader
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		r, err := xlsxToCSV(path)
		if err != nil {
			return nil, err
		}
		reader = r
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file %s: %w", path, err)
		}
		defer file.Close()
		reader = file
	}

	rows, err := parse(reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func runSeed(c *cli.Context) error {
	products, err := loadCSVFile(c.String("products"), parseProducts)
	if err != nil {
		return err
	}
	sales, err := loadCSVFile(c.String("sales"), parseSales)
	if err != nil {
		return err
	}
	if len(products) == 0 && len(sales) == 0 {
		return errors.New("nothing to import: pass --products and/or --sales")
	}

	stats, err := postgres.NewCatalogImporter(appFrom(c).DB).Import(c.Context, c.Int64("user-id"), products, sales)
	if err != nil {
		return err
	}
	return printJSON(c, stats)
}
