package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/docfind/docfind/internal/domain"
	"github.com/docfind/docfind/internal/mapping"
	"github.com/docfind/docfind/internal/template"
)

// Service writes the result set of a select query to a spreadsheet or
// CSV file, one row per document with columns taken from the entity
// mapping.
type Service struct {
	template template.DocumentTemplate

	exportDir   string
	pageSize    int
	concurrency int
	now         func() time.Time
}

type Option func(*Service)

// WithExportDirectory overrides where export files are written.
func WithExportDirectory(dir string) Option {
	return func(s *Service) {
		if strings.TrimSpace(dir) != "" {
			s.exportDir = filepath.Clean(dir)
		}
	}
}

// WithPageSize overrides how many documents each store fetch reads.
func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithConcurrency overrides how many pages are fetched in parallel.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates an export service over the given template.
func NewService(docTemplate template.DocumentTemplate, opts ...Option) *Service {
	service := &Service{
		template:    docTemplate,
		exportDir:   filepath.Join(os.TempDir(), "docfind-exports"),
		pageSize:    1000,
		concurrency: 4,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// ExportXLSX runs the query and writes the result set as a spreadsheet.
// It returns the path of the written file.
func (s *Service) ExportXLSX(ctx context.Context, q domain.SelectQuery, m *mapping.EntityMapping) (string, error) {
	documents, err := s.fetchAll(ctx, q)
	if err != nil {
		return "", err
	}

	columns := exportColumns(m)

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for col, header := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return "", fmt.Errorf("failed to address header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return "", fmt.Errorf("failed to write header %q: %w", header, err)
		}
	}

	for rowIdx, doc := range documents {
		values := rowValues(doc, m)
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return "", fmt.Errorf("failed to address cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return "", fmt.Errorf("failed to write row %d: %w", rowIdx+1, err)
			}
		}
	}

	path, err := s.exportPath(q.Collection, "xlsx")
	if err != nil {
		return "", err
	}
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save spreadsheet: %w", err)
	}
	return path, nil
}

// ExportCSV runs the query and writes the result set as CSV. It returns
// the path of the written file.
func (s *Service) ExportCSV(ctx context.Context, q domain.SelectQuery, m *mapping.EntityMapping) (string, error) {
	documents, err := s.fetchAll(ctx, q)
	if err != nil {
		return "", err
	}

	path, err := s.exportPath(q.Collection, "csv")
	if err != nil {
		return "", err
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(exportColumns(m)); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, doc := range documents {
		if err := writer.Write(rowValues(doc, m)); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}
	return path, nil
}

// fetchAll pages through the result set, fetching pages concurrently and
// reassembling them in order. A query carrying its own Limit or Skip is
// executed as-is; pagination only applies to unbounded queries.
func (s *Service) fetchAll(ctx context.Context, q domain.SelectQuery) ([]domain.Document, error) {
	if q.Limit > 0 || q.Skip > 0 {
		documents, err := s.template.Select(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch export result set: %w", err)
		}
		return documents, nil
	}

	total, err := s.template.Count(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to count export result set: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	pageCount := int((total + int64(s.pageSize) - 1) / int64(s.pageSize))
	pages := make([][]domain.Document, pageCount)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)
	for i := 0; i < pageCount; i++ {
		group.Go(func() error {
			page, err := s.template.Select(groupCtx, q.WithLimit(s.pageSize).WithSkip(i*s.pageSize))
			if err != nil {
				return fmt.Errorf("failed to fetch export page %d: %w", i, err)
			}
			pages[i] = page
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	documents := make([]domain.Document, 0, total)
	for _, page := range pages {
		documents = append(documents, page...)
	}
	return documents, nil
}

func (s *Service) exportPath(collection, extension string) (string, error) {
	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	name := fmt.Sprintf("%s-%s.%s", collection, s.now().Format("20060102-150405"), extension)
	return filepath.Join(s.exportDir, name), nil
}

func exportColumns(m *mapping.EntityMapping) []string {
	columns := []string{"id", "created_at", "updated_at"}
	for _, field := range m.Fields() {
		columns = append(columns, field.Persisted)
	}
	return columns
}

func rowValues(doc domain.Document, m *mapping.EntityMapping) []string {
	values := []string{
		doc.ID.String(),
		doc.CreatedAt.Format(time.RFC3339),
		doc.UpdatedAt.Format(time.RFC3339),
	}
	for _, field := range m.Fields() {
		values = append(values, renderValue(doc.Properties[field.Persisted]))
	}
	return values
}

func renderValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
	return fmt.Sprint(value)
}
