package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
)

// PostgresStore keeps every document as a JSONB row in a single documents table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore constructs the store.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const postgresSchema = `CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	data JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (collection, id)
)`

// EnsureSchema creates the documents table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("ensure documents table: %w", err)
	}
	return nil
}

// Get loads a document into dest.
func (s *PostgresStore) Get(ctx context.Context, collection, id string, dest interface{}) error {
	const query = `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	var raw types.JSONText
	if err := s.db.GetContext(ctx, &raw, query, collection, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get document %s/%s: %w", collection, id, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode document %s/%s: %w", collection, id, err)
	}
	return nil
}

// Set writes a single document.
func (s *PostgresStore) Set(ctx context.Context, collection, id string, data interface{}, opts ...SetOption) error {
	return s.Batch(ctx, []Write{newWrite(collection, id, data, opts)})
}

// Query pushes filters down as JSONB predicates and returns rows ordered by id.
func (s *PostgresStore) Query(ctx context.Context, collection string, dest interface{}, filters ...Filter) error {
	if err := validateFilters(filters); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString(`SELECT data FROM documents WHERE collection = $1`)
	args := []interface{}{collection}
	for _, f := range filters {
		value := normaliseValue(f.Value)
		args = append(args, value)
		placeholder := fmt.Sprintf("$%d", len(args))
		switch value.(type) {
		case float64:
			fmt.Fprintf(&sb, ` AND (data->>'%s')::numeric %s %s`, f.Field, sqlOperator(f.Op), placeholder)
		case bool:
			fmt.Fprintf(&sb, ` AND (data->>'%s')::boolean %s %s`, f.Field, sqlOperator(f.Op), placeholder)
		case string:
			fmt.Fprintf(&sb, ` AND data->>'%s' %s %s`, f.Field, sqlOperator(f.Op), placeholder)
		default:
			return fmt.Errorf("docstore: unsupported filter value %T for %s", f.Value, f.Field)
		}
	}
	sb.WriteString(` ORDER BY id`)

	var rows []types.JSONText
	if err := s.db.SelectContext(ctx, &rows, sb.String(), args...); err != nil {
		return fmt.Errorf("query documents %s: %w", collection, err)
	}

	docs := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, json.RawMessage(row))
	}
	return decodeInto(docs, dest)
}

// Batch applies every write inside one transaction. Merge writes lock the current row first.
func (s *PostgresStore) Batch(ctx context.Context, writes []Write) (err error) {
	for _, w := range writes {
		if err := validateWrite(w); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin document batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for _, w := range writes {
		doc, encErr := toDocument(w.Data)
		if encErr != nil {
			return encErr
		}
		if w.Merge {
			current, loadErr := s.lockForMerge(ctx, tx, w.Collection, w.ID)
			if loadErr != nil {
				return loadErr
			}
			doc = mergeDocuments(current, doc)
		}
		payload, encErr := json.Marshal(doc)
		if encErr != nil {
			return fmt.Errorf("encode document %s/%s: %w", w.Collection, w.ID, encErr)
		}

		const upsert = `INSERT INTO documents (collection, id, data, updated_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
		if _, err = tx.ExecContext(ctx, upsert, w.Collection, w.ID, types.JSONText(payload), now); err != nil {
			return fmt.Errorf("write document %s/%s: %w", w.Collection, w.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit document batch: %w", err)
	}
	return nil
}

func (s *PostgresStore) lockForMerge(ctx context.Context, tx *sqlx.Tx, collection, id string) (map[string]interface{}, error) {
	const query = `SELECT data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`
	var raw types.JSONText
	if err := tx.GetContext(ctx, &raw, query, collection, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return map[string]interface{}{}, nil
		}
		return nil, fmt.Errorf("lock document %s/%s: %w", collection, id, err)
	}
	var current map[string]interface{}
	if err := json.Unmarshal(raw, &current); err != nil {
		return nil, fmt.Errorf("decode document %s/%s: %w", collection, id, err)
	}
	return current, nil
}

// Close releases the database handle.
func (s *PostgresStore) Close(context.Context) error {
	return s.db.Close()
}

func sqlOperator(op Operator) string {
	if op == OpEqual {
		return "="
	}
	return string(op)
}
