package docstore

import (
	"context"
	"sort"
	"sync"
)

// WriteHook is consulted for every write of a batch before anything is applied; a non-nil error
// aborts the whole batch.
type WriteHook func(w Write) error

// MemoryStore is an in-process Store. Batches are applied under one lock after every write has
// been staged, so readers never observe a partial batch.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]map[string]interface{}
	hook WriteHook
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[string]map[string]interface{}{}}
}

// SetWriteHook installs a hook used to inject faults in tests.
func (s *MemoryStore) SetWriteHook(hook WriteHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

// Get loads a document into dest.
func (s *MemoryStore) Get(ctx context.Context, collection, id string, dest interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	doc, ok := s.data[collection][id]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return decodeInto(doc, dest)
}

// Set writes a single document.
func (s *MemoryStore) Set(ctx context.Context, collection, id string, data interface{}, opts ...SetOption) error {
	return s.Batch(ctx, []Write{newWrite(collection, id, data, opts)})
}

// Query returns matching documents ordered by id.
func (s *MemoryStore) Query(ctx context.Context, collection string, dest interface{}, filters ...Filter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateFilters(filters); err != nil {
		return err
	}

	s.mu.RLock()
	ids := make([]string, 0, len(s.data[collection]))
	for id := range s.data[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	results := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		doc := s.data[collection][id]
		if matches(doc, filters) {
			results = append(results, doc)
		}
	}
	s.mu.RUnlock()

	return decodeInto(results, dest)
}

// Batch applies all writes or none.
func (s *MemoryStore) Batch(ctx context.Context, writes []Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type staged struct {
		collection, id string
		doc            map[string]interface{}
	}
	pending := make([]staged, 0, len(writes))
	view := map[string]map[string]interface{}{}

	for _, w := range writes {
		if err := validateWrite(w); err != nil {
			return err
		}
		if s.hook != nil {
			if err := s.hook(w); err != nil {
				return err
			}
		}
		doc, err := toDocument(w.Data)
		if err != nil {
			return err
		}
		key := w.Collection + "/" + w.ID
		if w.Merge {
			current, ok := view[key]
			if !ok {
				if existing, found := s.data[w.Collection][w.ID]; found {
					if current, err = cloneDocument(existing); err != nil {
						return err
					}
				}
			}
			doc = mergeDocuments(current, doc)
		}
		view[key] = doc
		pending = append(pending, staged{collection: w.Collection, id: w.ID, doc: doc})
	}

	for _, p := range pending {
		if s.data[p.collection] == nil {
			s.data[p.collection] = map[string]map[string]interface{}{}
		}
		s.data[p.collection][p.id] = p.doc
	}
	return nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close(context.Context) error { return nil }
