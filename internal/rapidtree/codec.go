package rapidtree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrCorruptedProgress = errors.New("corrupted progress document")

// PersistedNode is the stored part of a node; title, level and icon come from the catalog.
type PersistedNode struct {
	ID          string `json:"id"`
	IsCompleted bool   `json:"isCompleted"`
	IsLocked    bool   `json:"isLocked"`
}

// PersistedDocument maps category name to its ordered persisted nodes.
type PersistedDocument map[string][]PersistedNode

func (d Document) Persisted() PersistedDocument {
	persisted := make(PersistedDocument, len(d.Categories))
	for _, category := range d.Categories {
		nodes := make([]PersistedNode, len(category.Nodes))
		for i, node := range category.Nodes {
			nodes[i] = PersistedNode{
				ID:          node.ID,
				IsCompleted: node.IsCompleted,
				IsLocked:    node.IsLocked,
			}
		}
		persisted[category.Name] = nodes
	}
	return persisted
}

func Serialize(doc Document) ([]byte, error) {
	return json.Marshal(doc.Persisted())
}

// Deserialize overlays the persisted completion flags on fresh defaults, and recomputes
// all lock flags, stored ones are ignored. Unknown categories and nodes are dropped.
// A blob that cannot be decoded yields the fresh defaults together with ErrCorruptedProgress.
func Deserialize(catalog *Catalog, blob []byte) (Document, error) {
	doc := Initialize(catalog)

	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return doc, nil
	}

	var persisted PersistedDocument
	if err := json.Unmarshal(trimmed, &persisted); err != nil {
		return doc, fmt.Errorf("%w: %w", ErrCorruptedProgress, err)
	}

	for _, category := range doc.Categories {
		completed := make(map[string]bool, len(persisted[category.Name]))
		for _, pn := range persisted[category.Name] {
			if pn.IsCompleted {
				completed[pn.ID] = true
			}
		}
		for i := range category.Nodes {
			category.Nodes[i].IsCompleted = completed[category.Nodes[i].ID]
		}
	}
	doc.relock()

	return doc, nil
}

// Normalize decodes and re-encodes a blob, healing stale lock flags and unknown entries.
func Normalize(catalog *Catalog, blob []byte) ([]byte, error) {
	doc, err := Deserialize(catalog, blob)
	if err != nil {
		return nil, err
	}
	return Serialize(doc)
}
