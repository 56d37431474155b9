package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"shelter-partner/internal/ports/docstore"
)

// DocStore es un docstore.Store in-memory (dev / tests).
type DocStore struct {
	mu     sync.RWMutex
	byPath map[string]map[string]any
}

func NewDocStore() *DocStore {
	return &DocStore{
		byPath: make(map[string]map[string]any),
	}
}

func (s *DocStore) UpdateFields(ctx context.Context, path string, fields map[string]any) error {
	return s.UpdateFieldsIf(ctx, path, nil, fields)
}

func (s *DocStore) UpdateFieldsIf(ctx context.Context, path string, expect, fields map[string]any) error {
	if err := docstore.ValidateDocumentPath(path); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.byPath[path]
	if !ok {
		return docstore.ErrNotFound
	}
	if len(expect) > 0 && !docstore.MatchesFields(doc, normalizeMap(expect)) {
		return docstore.ErrPreconditionFailed
	}
	for k, v := range fields {
		doc[k] = normalize(v)
	}
	return nil
}

func (s *DocStore) GetDocument(ctx context.Context, path string) (docstore.Document, error) {
	if err := docstore.ValidateDocumentPath(path); err != nil {
		return docstore.Document{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.byPath[path]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return docstore.Document{Path: path, Data: normalizeMap(doc)}, nil
}

func (s *DocStore) AppendToArrayField(ctx context.Context, path, field string, elem map[string]any) error {
	if err := docstore.ValidateDocumentPath(path); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.byPath[path]
	if !ok {
		return docstore.ErrNotFound
	}

	var items []any
	switch cur := doc[field].(type) {
	case nil:
	case []any:
		items = cur
	default:
		return fmt.Errorf("%w: %s", docstore.ErrNotArray, field)
	}
	e := normalizeMap(elem)
	if docstore.ContainsElement(items, e) {
		return nil
	}
	doc[field] = append(items, e)
	return nil
}

func (s *DocStore) SetDocument(ctx context.Context, path string, data map[string]any) error {
	if err := docstore.ValidateDocumentPath(path); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byPath[path] = normalizeMap(data)
	return nil
}

func (s *DocStore) ListDocuments(ctx context.Context, collectionPath string) ([]docstore.Document, error) {
	if err := docstore.ValidateCollectionPath(collectionPath); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := collectionPath + "/"
	out := make([]docstore.Document, 0)
	for p, doc := range s.byPath {
		if !strings.HasPrefix(p, prefix) || strings.Contains(p[len(prefix):], "/") {
			continue
		}
		out = append(out, docstore.Document{Path: p, Data: normalizeMap(doc)})
	}

	// Orden estable por path
	sort.Slice(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})
	return out, nil
}

// normalize copia en profundidad y deja arrays como []any, igual que un backend real.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalizeMap(t)
	case []map[string]any:
		out := make([]any, 0, len(t))
		for _, m := range t {
			out = append(out, normalizeMap(m))
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, it := range t {
			out = append(out, normalize(it))
		}
		return out
	case []string:
		out := make([]any, 0, len(t))
		for _, s := range t {
			out = append(out, s)
		}
		return out
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}
