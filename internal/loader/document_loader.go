package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader"

	"github.com/docfind/docfind/internal/domain"
	"github.com/docfind/docfind/internal/template"
)

// DocumentLoader batches concurrent by-ID lookups into one store fetch.
type DocumentLoader struct {
	Loader *dataloader.Loader
}

// NewDocumentLoader creates a loader over the given template.
func NewDocumentLoader(docTemplate template.DocumentTemplate) *DocumentLoader {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		// Convert keys to []uuid.UUID
		ids := make([]uuid.UUID, len(keys))
		for i, k := range keys {
			id, err := uuid.Parse(k.String())
			if err != nil {
				results := make([]*dataloader.Result, len(keys))
				for j := range results {
					results[j] = &dataloader.Result{Error: fmt.Errorf("invalid UUID: %w", err)}
				}
				return results
			}
			ids[i] = id
		}

		// Fetch documents in batch
		documents, err := docTemplate.GetByIDs(ctx, ids)
		if err != nil {
			results := make([]*dataloader.Result, len(keys))
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		// Map UUID -> document for ordering
		documentMap := make(map[uuid.UUID]domain.Document)
		for _, doc := range documents {
			documentMap[doc.ID] = doc
		}

		// Build results in the same order as keys
		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			if doc, ok := documentMap[id]; ok {
				results[i] = &dataloader.Result{Data: doc}
			} else {
				results[i] = &dataloader.Result{Data: nil}
			}
		}

		return results
	}

	// NoCache keeps the loader batching-only. The loader lives as long
	// as its repository, so a memoizing cache would serve stale reads
	// after updates and deletes and grow without bound.
	loader := dataloader.NewBatchedLoader(batchFn,
		dataloader.WithWait(5*time.Millisecond),
		dataloader.WithCache(&dataloader.NoCache{}))

	return &DocumentLoader{Loader: loader}
}

// Load fetches one document by ID through the batching loader. The
// boolean reports whether the document exists.
func (l *DocumentLoader) Load(ctx context.Context, id uuid.UUID) (domain.Document, bool, error) {
	thunk := l.Loader.Load(ctx, dataloader.StringKey(id.String()))
	data, err := thunk()
	if err != nil {
		return domain.Document{}, false, err
	}
	if data == nil {
		return domain.Document{}, false, nil
	}
	doc, ok := data.(domain.Document)
	if !ok {
		return domain.Document{}, false, fmt.Errorf("unexpected loader payload %T", data)
	}
	return doc, true, nil
}
