package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/andresuchdata/stocksense/internal/domain"
	"github.com/andresuchdata/stocksense/internal/repository"
	"github.com/andresuchdata/stocksense/internal/storage"
	"github.com/rs/zerolog/log"
)

const exportObjectPrefix = "exports"

var exportHeader = []string{
	"suggestion_id", "product_id", "sku", "product_name", "current_stock",
	"suggested_quantity", "urgency", "reason", "estimated_stockout_date",
	"cost_impact", "created_at",
}

// ExportResult describes a written suggestion export
type ExportResult struct {
	Path      string `json:"path"`
	ObjectKey string `json:"object_key,omitempty"`
	Rows      int    `json:"rows"`
}

// ExportService writes pending suggestions to CSV for purchasing teams.
type ExportService struct {
	products    repository.ProductRepository
	suggestions repository.SuggestionRepository
	objects     storage.ObjectStorage
	dir         string
	now         func() time.Time
}

// NewExportService creates an export service. objects may be nil to keep exports local.
func NewExportService(store repository.Store, objects storage.ObjectStorage, dir string) *ExportService {
	if dir == "" {
		dir = "data/exports"
	}
	return &ExportService{
		products:    store,
		suggestions: store,
		objects:     objects,
		dir:         dir,
		now:         time.Now,
	}
}

// ExportPending writes the caller's pending suggestions, most urgent first.
func (s *ExportService) ExportPending(ctx context.Context, caller domain.Caller) (*ExportResult, error) {
	suggestions, err := s.suggestions.ListSuggestions(ctx, domain.SuggestionFilter{
		OwnerID: caller.UserID,
		Status:  domain.StatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending suggestions: %w", err)
	}

	data, err := s.render(ctx, suggestions)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("reorder_suggestions_%d_%s.csv", caller.UserID, s.now().UTC().Format("20060102T150405Z"))
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export dir: %w", err)
	}
	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}

	result := &ExportResult{Path: path, Rows: len(suggestions)}

	if s.objects != nil {
		key := fmt.Sprintf("%s/%d/%s", exportObjectPrefix, caller.UserID, filename)
		if err := s.objects.UploadObject(ctx, key, data, "text/csv"); err != nil {
			return result, err
		}
		result.ObjectKey = key
	}

	log.Info().
		Str("path", result.Path).
		Str("object_key", result.ObjectKey).
		Int("rows", result.Rows).
		Msg("pending suggestions exported")

	return result, nil
}

func (s *ExportService) render(ctx context.Context, suggestions []domain.ReorderSuggestion) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	products := make(map[int64]*domain.Product)
	for _, sg := range suggestions {
		p, ok := products[sg.ProductID]
		if !ok {
			var err error
			p, err = s.products.GetProduct(ctx, sg.ProductID)
			if err != nil {
				return nil, err
			}
			products[sg.ProductID] = p
		}

		stockout := ""
		if sg.EstimatedStockoutDate != nil {
			stockout = sg.EstimatedStockoutDate.UTC().Format("2006-01-02")
		}

		row := []string{
			strconv.FormatInt(sg.ID, 10),
			strconv.FormatInt(p.ID, 10),
			p.SKU,
			p.Name,
			strconv.Itoa(p.CurrentStock),
			strconv.Itoa(sg.SuggestedQuantity),
			string(sg.Urgency),
			sg.Reason,
			stockout,
			strconv.FormatFloat(sg.CostImpact, 'f', 2, 64),
			sg.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush export: %w", err)
	}
	return buf.Bytes(), nil
}
