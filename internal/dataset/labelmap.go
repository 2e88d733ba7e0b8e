package dataset

import "fmt"

// LabelMapMismatchError reports a field name a later split introduced that
// the first-built label map does not know. Extending the map silently would
// desynchronize label ids across splits, so this is always fatal.
type LabelMapMismatchError struct {
	Split string
	Page  string
	Field string
}

func (e *LabelMapMismatchError) Error() string {
	return fmt.Sprintf("split %q: field %q from page %q not found in the label map",
		e.Split, e.Field, e.Page)
}

// LabelMap is the bidirectional gold-field-name to dense-id table shared by
// all splits of a dataset collection. Id 0 is reserved for unlabeled nodes.
type LabelMap struct {
	ids  map[string]int
	keys []string
}

// NewLabelMap creates a map containing only the "unlabeled" entry.
func NewLabelMap() *LabelMap {
	return &LabelMap{
		ids:  map[string]int{"": 0},
		keys: []string{""},
	}
}

// AddField registers a field, assigning the next dense id. Idempotent.
func (m *LabelMap) AddField(field string) {
	if _, ok := m.ids[field]; ok {
		return
	}
	m.ids[field] = len(m.keys)
	m.keys = append(m.keys, field)
}

// ID returns the dense id for a field, with ok=false for unknown fields.
func (m *LabelMap) ID(field string) (int, bool) {
	id, ok := m.ids[field]
	return id, ok
}

// Field returns the field name for a dense id; id 0 yields "".
func (m *LabelMap) Field(id int) (string, bool) {
	if id < 0 || id >= len(m.keys) {
		return "", false
	}
	return m.keys[id], true
}

// Len returns the number of entries including the unlabeled one.
func (m *LabelMap) Len() int { return len(m.keys) }

// LabelOf resolves a node's scalar label id: the id of the first label key,
// or 0 when the node carries none.
func (m *LabelMap) LabelOf(labelKeys []string) (int, error) {
	if len(labelKeys) == 0 {
		return 0, nil
	}
	id, ok := m.ids[labelKeys[0]]
	if !ok {
		return 0, fmt.Errorf("label key %q not in label map", labelKeys[0])
	}
	return id, nil
}
