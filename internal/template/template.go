package template

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docfind/docfind/internal/domain"
)

// ErrNonUniqueResult is returned by SingleResult when a query matches
// more than one document.
var ErrNonUniqueResult = errors.New("query matched more than one document")

// DocumentTemplate is the synchronous document store surface. The
// reactive template and the repository layer build on it.
type DocumentTemplate interface {
	Insert(ctx context.Context, doc domain.Document) (domain.Document, error)
	InsertAll(ctx context.Context, docs []domain.Document) ([]domain.Document, error)
	Update(ctx context.Context, doc domain.Document) (domain.Document, error)
	Select(ctx context.Context, q domain.SelectQuery) ([]domain.Document, error)
	SingleResult(ctx context.Context, q domain.SelectQuery) (domain.Document, bool, error)
	Count(ctx context.Context, q domain.SelectQuery) (int64, error)
	Delete(ctx context.Context, q domain.DeleteQuery) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Document, bool, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Document, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// documentTemplate implements DocumentTemplate over Postgres JSONB
type documentTemplate struct {
	pool *pgxpool.Pool
}

// NewDocumentTemplate creates a new document template
func NewDocumentTemplate(pool *pgxpool.Pool) DocumentTemplate {
	return &documentTemplate{pool: pool}
}

// Insert persists a new document
func (t *documentTemplate) Insert(ctx context.Context, doc domain.Document) (domain.Document, error) {
	propertiesJSON, err := doc.GetPropertiesAsJSONB()
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to marshal properties: %w", err)
	}

	row := t.pool.QueryRow(ctx,
		`INSERT INTO documents (id, collection, properties, version)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+documentColumns,
		doc.ID, doc.Collection, propertiesJSON, doc.Version,
	)

	inserted, err := scanDocument(row)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to insert document: %w", err)
	}
	return inserted, nil
}

// InsertAll persists each document in order, stopping at the first
// failure.
func (t *documentTemplate) InsertAll(ctx context.Context, docs []domain.Document) ([]domain.Document, error) {
	inserted := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		result, err := t.Insert(ctx, doc)
		if err != nil {
			return nil, err
		}
		inserted = append(inserted, result)
	}
	return inserted, nil
}

// Update replaces a document's properties and bumps its version
func (t *documentTemplate) Update(ctx context.Context, doc domain.Document) (domain.Document, error) {
	propertiesJSON, err := doc.GetPropertiesAsJSONB()
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to marshal properties: %w", err)
	}

	row := t.pool.QueryRow(ctx,
		`UPDATE documents
		 SET properties = $2, version = version + 1, updated_at = now()
		 WHERE id = $1
		 RETURNING `+documentColumns,
		doc.ID, propertiesJSON,
	)

	updated, err := scanDocument(row)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to update document %s: %w", doc.ID, err)
	}
	return updated, nil
}

// Select runs a select query and returns the matching documents
func (t *documentTemplate) Select(ctx context.Context, q domain.SelectQuery) ([]domain.Document, error) {
	sql, args, err := buildSelectSQL(q)
	if err != nil {
		return nil, err
	}

	rows, err := t.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// SingleResult runs a select query expected to match at most one
// document. More than one match is ErrNonUniqueResult.
func (t *documentTemplate) SingleResult(ctx context.Context, q domain.SelectQuery) (domain.Document, bool, error) {
	docs, err := t.Select(ctx, q.WithLimit(2))
	if err != nil {
		return domain.Document{}, false, err
	}
	switch len(docs) {
	case 0:
		return domain.Document{}, false, nil
	case 1:
		return docs[0], true, nil
	}
	return domain.Document{}, false, ErrNonUniqueResult
}

// Count returns the number of documents the query matches
func (t *documentTemplate) Count(ctx context.Context, q domain.SelectQuery) (int64, error) {
	sql, args, err := buildCountSQL(q)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := t.pool.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// Delete removes the documents the query matches and returns how many
// were removed
func (t *documentTemplate) Delete(ctx context.Context, q domain.DeleteQuery) (int64, error) {
	sql, args, err := buildDeleteSQL(q)
	if err != nil {
		return 0, err
	}

	tag, err := t.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetByID retrieves a document by ID
func (t *documentTemplate) GetByID(ctx context.Context, id uuid.UUID) (domain.Document, bool, error) {
	row := t.pool.QueryRow(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = $1", id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Document{}, false, nil
		}
		return domain.Document{}, false, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	return doc, true, nil
}

// GetByIDs retrieves multiple documents by their IDs.
func (t *documentTemplate) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Document, error) {
	if len(ids) == 0 {
		return []domain.Document{}, nil
	}

	rows, err := t.pool.Query(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents by IDs: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// DeleteByID removes a single document by ID
func (t *documentTemplate) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if _, err := t.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	return nil
}

func collectDocuments(rows pgx.Rows) ([]domain.Document, error) {
	documents := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		documents = append(documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read document rows: %w", err)
	}
	return documents, nil
}

func scanDocument(row pgx.Row) (domain.Document, error) {
	var (
		id             uuid.UUID
		collection     string
		propertiesJSON json.RawMessage
		version        int64
		createdAt      time.Time
		updatedAt      time.Time
	)
	if err := row.Scan(&id, &collection, &propertiesJSON, &version, &createdAt, &updatedAt); err != nil {
		return domain.Document{}, err
	}

	properties, err := domain.FromJSONBProperties(propertiesJSON)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to decode properties for document %s: %w", id, err)
	}

	return domain.Document{
		ID:         id,
		Collection: collection,
		Properties: properties,
		Version:    version,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}
