package ingestion

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/docfind/docfind/internal/domain"
	"github.com/docfind/docfind/internal/mapping"
	"github.com/docfind/docfind/internal/template"
)

type fakeTemplate struct {
	template.DocumentTemplate
	inserted []domain.Document
}

func (f *fakeTemplate) InsertAll(ctx context.Context, docs []domain.Document) ([]domain.Document, error) {
	f.inserted = append(f.inserted, docs...)
	return docs, nil
}

func peopleMapping(t *testing.T) *mapping.EntityMapping {
	t.Helper()
	m, err := mapping.NewEntityMapping("people", []mapping.FieldDefinition{
		{Name: "name", Required: true},
		{Name: "age", Persisted: "age_years", Type: mapping.FieldTypeInteger},
		{Name: "active", Type: mapping.FieldTypeBoolean},
	})
	if err != nil {
		t.Fatalf("failed to build mapping: %v", err)
	}
	return m
}

func TestIngestCSV(t *testing.T) {
	fake := &fakeTemplate{}
	service := NewService(fake)

	payload := []byte("name,age,active\nAda,36,true\nGrace,45,false\n")
	result, err := service.Ingest(context.Background(), peopleMapping(t), "people.csv", payload)
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if result.Total != 2 || result.Inserted != 2 || len(result.Rejected) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(fake.inserted) != 2 {
		t.Fatalf("expected 2 inserted documents, got %d", len(fake.inserted))
	}

	first := fake.inserted[0]
	if first.Collection != "people" {
		t.Errorf("expected collection 'people', got %q", first.Collection)
	}
	if first.Properties["name"] != "Ada" {
		t.Errorf("expected name 'Ada', got %v", first.Properties["name"])
	}
	if first.Properties["age_years"] != int64(36) {
		t.Errorf("expected age_years 36, got %v (%T)", first.Properties["age_years"], first.Properties["age_years"])
	}
	if first.Properties["active"] != true {
		t.Errorf("expected active true, got %v", first.Properties["active"])
	}
}

func TestIngestCSVWithBOM(t *testing.T) {
	fake := &fakeTemplate{}
	service := NewService(fake)

	payload := append([]byte{0xEF, 0xBB, 0xBF}, []byte("name\nAda\n")...)
	result, err := service.Ingest(context.Background(), peopleMapping(t), "people.csv", payload)
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if result.Inserted != 1 {
		t.Fatalf("expected 1 inserted, got %d", result.Inserted)
	}
	if fake.inserted[0].Properties["name"] != "Ada" {
		t.Errorf("BOM not stripped from header: %v", fake.inserted[0].Properties)
	}
}

func TestIngestRejectsInvalidRows(t *testing.T) {
	fake := &fakeTemplate{}
	service := NewService(fake)

	// Row 2 has a non-integer age, row 3 is missing the required name.
	payload := []byte("name,age\nAda,36\nGrace,old\n,45\n")
	result, err := service.Ingest(context.Background(), peopleMapping(t), "people.csv", payload)
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if result.Total != 3 {
		t.Fatalf("expected 3 total rows, got %d", result.Total)
	}
	if result.Inserted != 1 {
		t.Fatalf("expected 1 inserted, got %d", result.Inserted)
	}
	if len(result.Rejected) != 2 {
		t.Fatalf("expected 2 rejected rows, got %+v", result.Rejected)
	}
	if result.Rejected[0].Row != 2 {
		t.Errorf("expected first rejection at row 2, got %d", result.Rejected[0].Row)
	}
	if !strings.Contains(result.Rejected[0].Message, "age_years") {
		t.Errorf("expected message to name the column, got %q", result.Rejected[0].Message)
	}
	if result.Rejected[1].Row != 3 {
		t.Errorf("expected second rejection at row 3, got %d", result.Rejected[1].Row)
	}
}

func TestIngestSkipsUnmatchedColumnsAndEmptyRows(t *testing.T) {
	fake := &fakeTemplate{}
	service := NewService(fake)

	payload := []byte("name,notes\nAda,keep out\n,\nGrace,\n")
	result, err := service.Ingest(context.Background(), peopleMapping(t), "people.csv", payload)
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if result.Total != 2 {
		t.Fatalf("expected empty row filtered, got total %d", result.Total)
	}
	if _, ok := fake.inserted[0].Properties["notes"]; ok {
		t.Errorf("unmatched column should be skipped: %v", fake.inserted[0].Properties)
	}
}

func TestIngestXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetList()[0]
	rows := [][]any{
		{"name", "age"},
		{"Ada", 36},
		{"Grace", 45},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("failed to build cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("failed to write row: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("failed to serialize workbook: %v", err)
	}

	fake := &fakeTemplate{}
	service := NewService(fake)
	result, err := service.Ingest(context.Background(), peopleMapping(t), "people.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if result.Inserted != 2 {
		t.Fatalf("expected 2 inserted, got %+v", result)
	}
	if fake.inserted[1].Properties["age_years"] != int64(45) {
		t.Errorf("expected age_years 45, got %v", fake.inserted[1].Properties["age_years"])
	}
}

func TestIngestUnsupportedFormat(t *testing.T) {
	service := NewService(&fakeTemplate{})
	if _, err := service.Ingest(context.Background(), peopleMapping(t), "people.txt", []byte("x")); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestIngestNoMatchingHeaders(t *testing.T) {
	service := NewService(&fakeTemplate{})
	payload := []byte("foo,bar\n1,2\n")
	if _, err := service.Ingest(context.Background(), peopleMapping(t), "people.csv", payload); err == nil {
		t.Fatal("expected error when no header matches a mapped field")
	}
}
