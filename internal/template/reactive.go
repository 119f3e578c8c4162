package template

import (
	"context"

	"github.com/google/uuid"

	"github.com/docfind/docfind/internal/domain"
	"github.com/docfind/docfind/internal/reactive"
)

// ReactiveDocumentTemplate re-exposes the document template through lazy
// single-value and stream results. Nothing touches the store until a
// terminal call on the returned value.
type ReactiveDocumentTemplate struct {
	template DocumentTemplate
}

// NewReactiveDocumentTemplate wraps a synchronous template.
func NewReactiveDocumentTemplate(template DocumentTemplate) *ReactiveDocumentTemplate {
	return &ReactiveDocumentTemplate{template: template}
}

// Insert defers persisting a new document.
func (r *ReactiveDocumentTemplate) Insert(doc domain.Document) reactive.Single[domain.Document] {
	return reactive.NewSingle(func(ctx context.Context) (domain.Document, error) {
		return r.template.Insert(ctx, doc)
	})
}

// InsertAll defers persisting a batch of documents, streaming them back
// in insertion order.
func (r *ReactiveDocumentTemplate) InsertAll(docs []domain.Document) reactive.Stream[domain.Document] {
	return reactive.FromSliceFunc(func(ctx context.Context) ([]domain.Document, error) {
		return r.template.InsertAll(ctx, docs)
	})
}

// Update defers replacing a document's properties.
func (r *ReactiveDocumentTemplate) Update(doc domain.Document) reactive.Single[domain.Document] {
	return reactive.NewSingle(func(ctx context.Context) (domain.Document, error) {
		return r.template.Update(ctx, doc)
	})
}

// Select defers a query, streaming the matching documents.
func (r *ReactiveDocumentTemplate) Select(q domain.SelectQuery) reactive.Stream[domain.Document] {
	return reactive.FromSliceFunc(func(ctx context.Context) ([]domain.Document, error) {
		return r.template.Select(ctx, q)
	})
}

// SingleResult defers a query expected to match at most one document.
// The boolean reports whether a document matched.
func (r *ReactiveDocumentTemplate) SingleResult(q domain.SelectQuery) reactive.Single[SingleMatch] {
	return reactive.NewSingle(func(ctx context.Context) (SingleMatch, error) {
		doc, found, err := r.template.SingleResult(ctx, q)
		return SingleMatch{Document: doc, Found: found}, err
	})
}

// Count defers counting the documents a query matches.
func (r *ReactiveDocumentTemplate) Count(q domain.SelectQuery) reactive.Single[int64] {
	return reactive.NewSingle(func(ctx context.Context) (int64, error) {
		return r.template.Count(ctx, q)
	})
}

// Delete defers removing the documents a query matches, yielding the
// number removed.
func (r *ReactiveDocumentTemplate) Delete(q domain.DeleteQuery) reactive.Single[int64] {
	return reactive.NewSingle(func(ctx context.Context) (int64, error) {
		return r.template.Delete(ctx, q)
	})
}

// GetByID defers fetching one document by ID.
func (r *ReactiveDocumentTemplate) GetByID(id uuid.UUID) reactive.Single[SingleMatch] {
	return reactive.NewSingle(func(ctx context.Context) (SingleMatch, error) {
		doc, found, err := r.template.GetByID(ctx, id)
		return SingleMatch{Document: doc, Found: found}, err
	})
}

// DeleteByID defers removing one document by ID.
func (r *ReactiveDocumentTemplate) DeleteByID(id uuid.UUID) reactive.Single[struct{}] {
	return reactive.NewSingle(func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.template.DeleteByID(ctx, id)
	})
}

// SingleMatch carries an optional single query result.
type SingleMatch struct {
	Document domain.Document
	Found    bool
}
