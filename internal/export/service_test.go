package export

import (
	"context"
	"encoding/csv"
	"os"
	"sync"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/docfind/docfind/internal/domain"
	"github.com/docfind/docfind/internal/mapping"
	"github.com/docfind/docfind/internal/template"
)

type fakeTemplate struct {
	template.DocumentTemplate

	documents []domain.Document

	mu          sync.Mutex
	selectCalls int
}

func (f *fakeTemplate) Count(ctx context.Context, q domain.SelectQuery) (int64, error) {
	return int64(len(f.documents)), nil
}

func (f *fakeTemplate) Select(ctx context.Context, q domain.SelectQuery) ([]domain.Document, error) {
	f.mu.Lock()
	f.selectCalls++
	f.mu.Unlock()
	start := q.Skip
	if start > len(f.documents) {
		return nil, nil
	}
	end := len(f.documents)
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	return f.documents[start:end], nil
}

func testMapping(t *testing.T) *mapping.EntityMapping {
	t.Helper()
	m, err := mapping.NewEntityMapping("people", []mapping.FieldDefinition{
		{Name: "name", Type: mapping.FieldTypeString},
		{Name: "age", Persisted: "age_years", Type: mapping.FieldTypeInteger},
	})
	if err != nil {
		t.Fatalf("failed to build mapping: %v", err)
	}
	return m
}

func testDocuments() []domain.Document {
	return []domain.Document{
		domain.NewDocument("people", map[string]any{"name": "Ada", "age_years": 36}),
		domain.NewDocument("people", map[string]any{"name": "Alan", "age_years": 41}),
		domain.NewDocument("people", map[string]any{"name": "Grace"}),
	}
}

func TestExportCSV(t *testing.T) {
	fake := &fakeTemplate{documents: testDocuments()}
	service := NewService(fake, WithExportDirectory(t.TempDir()), WithPageSize(2))

	path, err := service.ExportCSV(context.Background(), domain.NewSelectQuery("people"), testMapping(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open export: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("failed to read CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d records", len(records))
	}
	header := records[0]
	if header[0] != "id" || header[3] != "name" || header[4] != "age_years" {
		t.Fatalf("unexpected header %v", header)
	}
	if records[1][3] != "Ada" || records[1][4] != "36" {
		t.Fatalf("unexpected first row %v", records[1])
	}
	// Missing properties render as empty cells.
	if records[3][4] != "" {
		t.Fatalf("expected empty cell for missing property, got %q", records[3][4])
	}
}

func TestExportCSV_HonorsQueryLimitAndSkip(t *testing.T) {
	fake := &fakeTemplate{documents: testDocuments()}
	service := NewService(fake, WithExportDirectory(t.TempDir()), WithPageSize(1))

	q := domain.NewSelectQuery("people").WithSkip(1).WithLimit(1)
	path, err := service.ExportCSV(context.Background(), q, testMapping(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open export: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("failed to read CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus the one bounded row, got %d records", len(records))
	}
	if records[1][3] != "Alan" {
		t.Fatalf("expected the skipped window to start at Alan, got %v", records[1])
	}
	if fake.selectCalls != 1 {
		t.Fatalf("expected a bounded query to run unpaginated, got %d select(s)", fake.selectCalls)
	}
}

func TestExportXLSX(t *testing.T) {
	fake := &fakeTemplate{documents: testDocuments()}
	service := NewService(fake, WithExportDirectory(t.TempDir()))

	path, err := service.ExportXLSX(context.Background(), domain.NewSelectQuery("people"), testMapping(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open spreadsheet: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(rows))
	}
	if rows[0][3] != "name" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[2][3] != "Alan" {
		t.Fatalf("unexpected second row %v", rows[2])
	}
}

func TestExportCSV_Empty(t *testing.T) {
	fake := &fakeTemplate{}
	service := NewService(fake, WithExportDirectory(t.TempDir()))

	path, err := service.ExportCSV(context.Background(), domain.NewSelectQuery("people"), testMapping(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open export: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("failed to read CSV: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected header only, got %d records", len(records))
	}
}
