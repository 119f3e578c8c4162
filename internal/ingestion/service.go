package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/docfind/docfind/internal/domain"
	"github.com/docfind/docfind/internal/mapping"
	"github.com/docfind/docfind/internal/template"
	"github.com/docfind/docfind/pkg/validator"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor
// XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// RowError reports one rejected row. Row numbers are 1-based positions
// in the source file, header excluded.
type RowError struct {
	Row     int
	Message string
}

// Result summarizes one ingestion run.
type Result struct {
	Total    int
	Inserted int
	Rejected []RowError
}

// Service ingests tabular files into a collection. Headers bind columns
// to mapped fields; rows failing validation are rejected individually
// without aborting the run.
type Service struct {
	template  template.DocumentTemplate
	validator *validator.DocumentValidator
}

// NewService creates an ingestion service over the given template.
func NewService(docTemplate template.DocumentTemplate) *Service {
	return &Service{
		template:  docTemplate,
		validator: validator.NewDocumentValidator(),
	}
}

// Ingest parses the payload according to the file extension, converts
// each row into a document of the mapping's collection and persists the
// valid ones.
func (s *Service) Ingest(ctx context.Context, m *mapping.EntityMapping, filename string, payload []byte) (Result, error) {
	rows, err := parseTable(filename, payload)
	if err != nil {
		return Result{}, err
	}
	if len(rows) == 0 {
		return Result{}, errors.New("no rows found in file")
	}

	columns, err := bindColumns(rows[0], m)
	if err != nil {
		return Result{}, err
	}

	dataRows := filterEmptyRows(rows[1:])
	result := Result{Total: len(dataRows)}

	var documents []domain.Document
	for i, row := range dataRows {
		row = padRow(row, len(columns))

		properties, err := buildProperties(row, columns)
		if err != nil {
			result.Rejected = append(result.Rejected, RowError{Row: i + 1, Message: err.Error()})
			continue
		}

		if validation := s.validator.ValidateProperties(properties, m); !validation.IsValid {
			result.Rejected = append(result.Rejected, RowError{Row: i + 1, Message: validationMessage(validation)})
			continue
		}

		documents = append(documents, domain.NewDocument(m.Collection(), properties))
	}

	inserted, err := s.template.InsertAll(ctx, documents)
	if err != nil {
		return Result{}, fmt.Errorf("failed to persist ingested documents: %w", err)
	}
	result.Inserted = len(inserted)
	return result, nil
}

// column binds one file column to a mapped field.
type column struct {
	field mapping.FieldDefinition
	// skip marks columns whose header matches no mapped field.
	skip bool
}

// bindColumns matches header cells to mapped fields by declared or
// persisted name, case-insensitively. At least one column must bind.
func bindColumns(header []string, m *mapping.EntityMapping) ([]column, error) {
	byName := make(map[string]mapping.FieldDefinition)
	for _, field := range m.Fields() {
		byName[strings.ToLower(field.Name)] = field
		byName[strings.ToLower(field.Persisted)] = field
	}

	columns := make([]column, len(header))
	bound := 0
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		field, ok := byName[name]
		if !ok {
			columns[i] = column{skip: true}
			continue
		}
		columns[i] = column{field: field}
		bound++
	}
	if bound == 0 {
		return nil, errors.New("no header column matches a mapped field")
	}
	return columns, nil
}

func buildProperties(row []string, columns []column) (map[string]any, error) {
	properties := make(map[string]any)
	for i, col := range columns {
		if col.skip {
			continue
		}
		cell := strings.TrimSpace(row[i])
		if cell == "" {
			continue
		}
		value, err := convertCell(cell, col.field.Type)
		if err != nil {
			return nil, fmt.Errorf("column '%s': %w", col.field.Persisted, err)
		}
		properties[col.field.Persisted] = value
	}
	return properties, nil
}

// convertCell parses the text form of a cell into the field's declared
// type.
func convertCell(cell string, fieldType mapping.FieldType) (any, error) {
	switch fieldType {
	case mapping.FieldTypeString, mapping.FieldTypeJSON:
		return cell, nil
	case mapping.FieldTypeInteger:
		value, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", cell)
		}
		return value, nil
	case mapping.FieldTypeFloat:
		value, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", cell)
		}
		return value, nil
	case mapping.FieldTypeBoolean:
		value, err := strconv.ParseBool(cell)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", cell)
		}
		return value, nil
	case mapping.FieldTypeTimestamp:
		if _, err := time.Parse(time.RFC3339, cell); err != nil {
			return nil, fmt.Errorf("%q is not an RFC3339 timestamp", cell)
		}
		return cell, nil
	}
	return nil, fmt.Errorf("unknown field type %q", fieldType)
}

func validationMessage(result validator.ValidationResult) string {
	messages := make([]string, 0, len(result.Errors))
	for _, err := range result.Errors {
		messages = append(messages, err.Message)
	}
	return strings.Join(messages, "; ")
}

func parseTable(filename string, payload []byte) ([][]string, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) ([][]string, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return records, nil
}

func parseExcel(payload []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return rows, nil
}

func filterEmptyRows(rows [][]string) [][]string {
	filtered := make([][]string, 0, len(rows))
	for _, row := range rows {
		empty := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if !empty {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}
