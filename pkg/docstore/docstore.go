// Package docstore defines the transactional document store the scheduling engine depends on.
//
// Documents are addressed by (collection, id) and exchanged as JSON-compatible values. Every backend
// implements the same contract: Get, Set (optionally merging), equality/range Query and an
// all-or-nothing Batch.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrNotFound is returned by Get when no document exists at (collection, id).
var ErrNotFound = errors.New("docstore: document not found")

// Operator is a query comparison operator.
type Operator string

const (
	OpEqual          Operator = "=="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
)

// Filter restricts a query to documents whose top-level Field compares to Value.
type Filter struct {
	Field string
	Op    Operator
	Value interface{}
}

// Where builds a Filter.
func Where(field string, op Operator, value interface{}) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Write is one operation inside a Batch. With Merge set, nested maps in Data are merged into the
// stored document key by key; any other value (arrays included) replaces the stored one.
type Write struct {
	Collection string
	ID         string
	Data       interface{}
	Merge      bool
}

// SetOption tunes a single Set call.
type SetOption func(*Write)

// Merge makes Set merge into the existing document instead of replacing it.
func Merge() SetOption {
	return func(w *Write) { w.Merge = true }
}

// Store is the document store contract.
type Store interface {
	Get(ctx context.Context, collection, id string, dest interface{}) error
	Set(ctx context.Context, collection, id string, data interface{}, opts ...SetOption) error
	Query(ctx context.Context, collection string, dest interface{}, filters ...Filter) error
	Batch(ctx context.Context, writes []Write) error
	Close(ctx context.Context) error
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateWrite(w Write) error {
	if w.Collection == "" || w.ID == "" {
		return fmt.Errorf("docstore: write requires collection and id")
	}
	if w.Data == nil {
		return fmt.Errorf("docstore: write %s/%s has no data", w.Collection, w.ID)
	}
	return nil
}

func validateFilters(filters []Filter) error {
	for _, f := range filters {
		if !fieldPattern.MatchString(f.Field) {
			return fmt.Errorf("docstore: invalid filter field %q", f.Field)
		}
		switch f.Op {
		case OpEqual, OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual:
		default:
			return fmt.Errorf("docstore: unsupported operator %q", f.Op)
		}
	}
	return nil
}

func newWrite(collection, id string, data interface{}, opts []SetOption) Write {
	w := Write{Collection: collection, ID: id, Data: data}
	for _, opt := range opts {
		opt(&w)
	}
	return w
}

// Ping issues a cheap read to check that the backend is reachable.
func Ping(ctx context.Context, s Store) error {
	var discard map[string]interface{}
	err := s.Get(ctx, "_health", "ping", &discard)
	if err == nil || errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
