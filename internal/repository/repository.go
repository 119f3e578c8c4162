package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/docfind/docfind/internal/domain"
	"github.com/docfind/docfind/internal/loader"
	"github.com/docfind/docfind/internal/mapping"
	"github.com/docfind/docfind/internal/query"
	"github.com/docfind/docfind/internal/reactive"
	"github.com/docfind/docfind/internal/template"
)

// Repository binds one entity mapping to the document store and derives
// queries from finder method names. Results come back as lazy reactive
// values; the store is not touched until a terminal call.
type Repository struct {
	mapping    *mapping.EntityMapping
	converters *mapping.Converters
	template   template.DocumentTemplate
	reactive   *template.ReactiveDocumentTemplate
	deriver    *query.Deriver
	byID       *loader.DocumentLoader
}

// New creates a repository for the entity described by the mapping. A
// nil converters registry means no field conversions.
func New(m *mapping.EntityMapping, converters *mapping.Converters, docTemplate template.DocumentTemplate) *Repository {
	if converters == nil {
		converters = mapping.NewConverters()
	}
	return &Repository{
		mapping:    m,
		converters: converters,
		template:   docTemplate,
		reactive:   template.NewReactiveDocumentTemplate(docTemplate),
		deriver:    query.NewDeriver(),
		byID:       loader.NewDocumentLoader(docTemplate),
	}
}

// Mapping returns the entity mapping the repository is bound to.
func (r *Repository) Mapping() *mapping.EntityMapping {
	return r.mapping
}

// Save defers persisting a new document into the repository's
// collection. A document built for another collection is rejected.
func (r *Repository) Save(doc domain.Document) reactive.Single[domain.Document] {
	if err := r.checkCollection(doc); err != nil {
		return failedSingle[domain.Document](err)
	}
	return r.reactive.Insert(doc)
}

// SaveAll defers persisting a batch of documents, streaming them back in
// insertion order.
func (r *Repository) SaveAll(docs []domain.Document) reactive.Stream[domain.Document] {
	for _, doc := range docs {
		if err := r.checkCollection(doc); err != nil {
			return failedStream[domain.Document](err)
		}
	}
	return r.reactive.InsertAll(docs)
}

// Update defers replacing an existing document's properties.
func (r *Repository) Update(doc domain.Document) reactive.Single[domain.Document] {
	if err := r.checkCollection(doc); err != nil {
		return failedSingle[domain.Document](err)
	}
	return r.reactive.Update(doc)
}

// FindByID defers fetching one document by ID. Concurrent lookups are
// batched into a single store fetch.
func (r *Repository) FindByID(id uuid.UUID) reactive.Single[template.SingleMatch] {
	return reactive.NewSingle(func(ctx context.Context) (template.SingleMatch, error) {
		doc, found, err := r.byID.Load(ctx, id)
		return template.SingleMatch{Document: doc, Found: found}, err
	})
}

// DeleteByID defers removing one document by ID.
func (r *Repository) DeleteByID(id uuid.UUID) reactive.Single[struct{}] {
	return r.reactive.DeleteByID(id)
}

// Find derives a select query from a FindBy method name and returns the
// matching documents as a stream. Derivation failures (unknown method
// shape, unmapped fields, argument mismatches) surface immediately.
func (r *Repository) Find(methodName string, args ...any) (reactive.Stream[domain.Document], error) {
	if err := r.requireKind(methodName, query.KindSelect); err != nil {
		return reactive.Stream[domain.Document]{}, err
	}
	q, err := r.deriver.DeriveSelect(methodName, args, r.mapping, r.converters)
	if err != nil {
		return reactive.Stream[domain.Document]{}, err
	}
	return r.reactive.Select(q), nil
}

// FindOne derives a select query expected to match at most one
// document.
func (r *Repository) FindOne(methodName string, args ...any) (reactive.Single[template.SingleMatch], error) {
	if err := r.requireKind(methodName, query.KindSelect); err != nil {
		return reactive.Single[template.SingleMatch]{}, err
	}
	q, err := r.deriver.DeriveSelect(methodName, args, r.mapping, r.converters)
	if err != nil {
		return reactive.Single[template.SingleMatch]{}, err
	}
	return r.reactive.SingleResult(q), nil
}

// Count derives a count query from a CountBy method name.
func (r *Repository) Count(methodName string, args ...any) (reactive.Single[int64], error) {
	if err := r.requireKind(methodName, query.KindCount); err != nil {
		return reactive.Single[int64]{}, err
	}
	q, err := r.deriver.DeriveSelect(methodName, args, r.mapping, r.converters)
	if err != nil {
		return reactive.Single[int64]{}, err
	}
	return r.reactive.Count(q), nil
}

// Exists derives an existence check from an ExistsBy method name.
func (r *Repository) Exists(methodName string, args ...any) (reactive.Single[bool], error) {
	if err := r.requireKind(methodName, query.KindExists); err != nil {
		return reactive.Single[bool]{}, err
	}
	q, err := r.deriver.DeriveSelect(methodName, args, r.mapping, r.converters)
	if err != nil {
		return reactive.Single[bool]{}, err
	}
	count := r.reactive.Count(q)
	return reactive.NewSingle(func(ctx context.Context) (bool, error) {
		n, err := count.Get(ctx)
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}), nil
}

// Delete derives a delete query from a DeleteBy method name, yielding
// the number of documents removed.
func (r *Repository) Delete(methodName string, args ...any) (reactive.Single[int64], error) {
	q, err := r.deriver.DeriveDelete(methodName, args, r.mapping, r.converters)
	if err != nil {
		return reactive.Single[int64]{}, err
	}
	return r.reactive.Delete(q), nil
}

func (r *Repository) requireKind(methodName string, kind query.MethodKind) error {
	parsed, err := query.ParseMethod(methodName)
	if err != nil {
		return err
	}
	if parsed.Kind != kind {
		return fmt.Errorf("method %q is a %s method, expected %s", methodName, parsed.Kind, kind)
	}
	return nil
}

func (r *Repository) checkCollection(doc domain.Document) error {
	if doc.Collection != r.mapping.Collection() {
		return fmt.Errorf("document belongs to collection %q, repository is bound to %q",
			doc.Collection, r.mapping.Collection())
	}
	return nil
}

func failedSingle[T any](err error) reactive.Single[T] {
	return reactive.NewSingle(func(context.Context) (T, error) {
		var zero T
		return zero, err
	})
}

func failedStream[T any](err error) reactive.Stream[T] {
	return reactive.NewStream(func(context.Context, func(T) error) error {
		return err
	})
}
