package docstore

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore maps collections and ids directly onto Firestore documents. Batches run in a
// Firestore transaction; merge writes use MergeAll so nested ledger maps merge field by field.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore constructs the store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// Get loads a document into dest.
func (s *FirestoreStore) Get(ctx context.Context, collection, id string, dest interface{}) error {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("get document %s/%s: %w", collection, id, err)
	}
	return decodeInto(snap.Data(), dest)
}

// Set writes a single document.
func (s *FirestoreStore) Set(ctx context.Context, collection, id string, data interface{}, opts ...SetOption) error {
	w := newWrite(collection, id, data, opts)
	if err := validateWrite(w); err != nil {
		return err
	}
	doc, err := toDocument(w.Data)
	if err != nil {
		return err
	}
	ref := s.client.Collection(collection).Doc(id)
	if w.Merge {
		_, err = ref.Set(ctx, doc, firestore.MergeAll)
	} else {
		_, err = ref.Set(ctx, doc)
	}
	if err != nil {
		return fmt.Errorf("set document %s/%s: %w", collection, id, err)
	}
	return nil
}

// Query returns matching documents ordered by document id.
func (s *FirestoreStore) Query(ctx context.Context, collection string, dest interface{}, filters ...Filter) error {
	if err := validateFilters(filters); err != nil {
		return err
	}
	q := s.client.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Field, string(f.Op), normaliseValue(f.Value))
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	// Ordering by document id server-side would clash with range filters on other fields.
	var snaps []*firestore.DocumentSnapshot
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("query documents %s: %w", collection, err)
		}
		snaps = append(snaps, snap)
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Ref.ID < snaps[j].Ref.ID })

	docs := make([]map[string]interface{}, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, snap.Data())
	}
	return decodeInto(docs, dest)
}

// Batch applies every write inside one transaction.
func (s *FirestoreStore) Batch(ctx context.Context, writes []Write) error {
	type prepared struct {
		ref   *firestore.DocumentRef
		doc   map[string]interface{}
		merge bool
	}
	items := make([]prepared, 0, len(writes))
	for _, w := range writes {
		if err := validateWrite(w); err != nil {
			return err
		}
		doc, err := toDocument(w.Data)
		if err != nil {
			return err
		}
		items = append(items, prepared{ref: s.client.Collection(w.Collection).Doc(w.ID), doc: doc, merge: w.Merge})
	}

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, item := range items {
			var err error
			if item.merge {
				err = tx.Set(item.ref, item.doc, firestore.MergeAll)
			} else {
				err = tx.Set(item.ref, item.doc)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("document batch failed: %w", err)
	}
	return nil
}

// Close releases the client.
func (s *FirestoreStore) Close(context.Context) error {
	return s.client.Close()
}
