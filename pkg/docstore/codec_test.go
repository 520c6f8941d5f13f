package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlattenPathsLedger(t *testing.T) {
	doc := map[string]interface{}{
		"name": "Ana",
		"classes": map[string]interface{}{
			"2025": map[string]interface{}{
				"March": map[string]interface{}{"3": "Cancelada", "10": "Cancelada"},
				"April": map[string]interface{}{},
			},
		},
		"dia_aula": []interface{}{"Monday"},
	}

	out := map[string]interface{}{}
	flattenPaths("", doc, out)

	assert.Equal(t, map[string]interface{}{
		"name":                  "Ana",
		"classes.2025.March.3":  "Cancelada",
		"classes.2025.March.10": "Cancelada",
		"classes.2025.April":    map[string]interface{}{},
		"dia_aula":              []interface{}{"Monday"},
	}, out)
}

func TestFlattenPathsPrefix(t *testing.T) {
	out := map[string]interface{}{"existing": 1}
	flattenPaths("classes", map[string]interface{}{"2026": map[string]interface{}{"October": map[string]interface{}{"20": "Cancelada"}}}, out)

	assert.Equal(t, "Cancelada", out["classes.2026.October.20"])
	assert.Equal(t, 1, out["existing"])
	assert.Len(t, out, 2)
}

func TestFlattenPathsEmptyDocument(t *testing.T) {
	out := map[string]interface{}{}
	flattenPaths("", map[string]interface{}{}, out)
	assert.Empty(t, out)
}
