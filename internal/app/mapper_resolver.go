package app

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/example/mapgen/internal/ports/secondary"
)

// MapperResolver finds the mapping documents bound to a declaring type.
type MapperResolver struct {
	store secondary.DocumentStore
}

// NewMapperResolver creates a MapperResolver backed by store.
func NewMapperResolver(store secondary.DocumentStore) *MapperResolver {
	return &MapperResolver{store: store}
}

// Resolve returns every document whose namespace equals declaringTypeID,
// ordered by canonical path. An empty result is not an error.
func (r *MapperResolver) Resolve(ctx context.Context, declaringTypeID string) ([]secondary.MappingDocument, error) {
	found, err := r.store.FindDocumentsByNamespace(ctx, declaringTypeID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to find mapper documents for %s", declaringTypeID)
	}

	docs := make([]secondary.MappingDocument, 0, len(found))
	for _, d := range found {
		if d.Namespace() == declaringTypeID {
			docs = append(docs, d)
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Path() < docs[j].Path()
	})
	return docs, nil
}
