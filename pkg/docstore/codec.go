package docstore

import (
	"encoding/json"
	"fmt"
	"strings"
)

// toDocument normalises any JSON-serialisable value into a generic document map.
func toDocument(v interface{}) (map[string]interface{}, error) {
	if doc, ok := v.(map[string]interface{}); ok {
		return cloneDocument(doc)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode document: %w", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("docstore: document must encode to an object: %w", err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	return doc, nil
}

func cloneDocument(doc map[string]interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode document: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("docstore: decode document: %w", err)
	}
	return out, nil
}

// decodeInto converts a generic value (document or list of documents) into dest.
func decodeInto(v interface{}, dest interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("docstore: encode result: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("docstore: decode result: %w", err)
	}
	return nil
}

// mergeDocuments merges src into dst recursively for nested maps; other values overwrite.
func mergeDocuments(dst, src map[string]interface{}) map[string]interface{} {
	if dst == nil {
		dst = map[string]interface{}{}
	}
	for key, value := range src {
		srcMap, srcIsMap := value.(map[string]interface{})
		dstMap, dstIsMap := dst[key].(map[string]interface{})
		if srcIsMap && dstIsMap {
			dst[key] = mergeDocuments(dstMap, srcMap)
			continue
		}
		dst[key] = value
	}
	return dst
}

// flattenPaths turns nested maps into dotted field paths, as needed by field-level update APIs.
// Empty nested maps are kept as leaves.
func flattenPaths(prefix string, doc map[string]interface{}, out map[string]interface{}) {
	for key, value := range doc {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok && len(nested) > 0 {
			flattenPaths(path, nested, out)
			continue
		}
		out[path] = value
	}
}

// matches evaluates filters against a generic document.
func matches(doc map[string]interface{}, filters []Filter) bool {
	for _, f := range filters {
		value, ok := doc[f.Field]
		if !ok {
			return false
		}
		cmp, comparable := compareValues(value, normaliseValue(f.Value))
		if !comparable {
			return false
		}
		switch f.Op {
		case OpEqual:
			if cmp != 0 {
				return false
			}
		case OpLess:
			if cmp >= 0 {
				return false
			}
		case OpLessOrEqual:
			if cmp > 0 {
				return false
			}
		case OpGreater:
			if cmp <= 0 {
				return false
			}
		case OpGreaterOrEqual:
			if cmp < 0 {
				return false
			}
		}
	}
	return true
}

// normaliseValue maps a filter value onto the JSON representation stored in documents.
func normaliseValue(v interface{}) interface{} {
	var out interface{}
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func compareValues(a, b interface{}) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case bool:
		bv, ok := b.(bool)
		if !ok || av != bv {
			return 1, ok
		}
		return 0, true
	}
	return 0, false
}
