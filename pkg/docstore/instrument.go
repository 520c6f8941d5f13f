package docstore

import (
	"context"
	"time"
)

// Observer receives the duration of every store call.
type Observer func(op, collection string, duration time.Duration, err error)

type instrumented struct {
	next     Store
	observer Observer
}

// Instrument wraps a Store so each call is reported to observer.
func Instrument(next Store, observer Observer) Store {
	if observer == nil {
		return next
	}
	return &instrumented{next: next, observer: observer}
}

func (s *instrumented) Get(ctx context.Context, collection, id string, dest interface{}) error {
	start := time.Now()
	err := s.next.Get(ctx, collection, id, dest)
	s.observer("get", collection, time.Since(start), err)
	return err
}

func (s *instrumented) Set(ctx context.Context, collection, id string, data interface{}, opts ...SetOption) error {
	start := time.Now()
	err := s.next.Set(ctx, collection, id, data, opts...)
	s.observer("set", collection, time.Since(start), err)
	return err
}

func (s *instrumented) Query(ctx context.Context, collection string, dest interface{}, filters ...Filter) error {
	start := time.Now()
	err := s.next.Query(ctx, collection, dest, filters...)
	s.observer("query", collection, time.Since(start), err)
	return err
}

func (s *instrumented) Batch(ctx context.Context, writes []Write) error {
	start := time.Now()
	err := s.next.Batch(ctx, writes)
	s.observer("batch", "", time.Since(start), err)
	return err
}

func (s *instrumented) Close(ctx context.Context) error {
	return s.next.Close(ctx)
}
