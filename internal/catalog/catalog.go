// Package catalog holds the product map used to resolve the free-text
// ProductName column of an incident upload to a flow product identifier.
//
// A ProductMap is built once at startup from one of several sources (an
// embedded default, a YAML/JSON file, or a PostgreSQL table) and is never
// modified afterwards, so it is safe for concurrent readers without locking.
package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ProductMap maps canonical product names to product identifiers.
//
// Identifiers are opaque: they are kept as the JSON value they were loaded
// as (number or string) and forwarded to the flow unchanged.
type ProductMap struct {
	ids map[string]json.RawMessage
}

// Canonical returns the lookup key for a product name: whitespace trimmed,
// upper-cased. Matching is exact on this key; there is no fuzzy matching.
func Canonical(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// New builds a ProductMap from name/id pairs. Names are canonicalized; two
// names that canonicalize to the same key are rejected.
func New(entries map[string]json.RawMessage) (*ProductMap, error) {
	ids := make(map[string]json.RawMessage, len(entries))
	for name, id := range entries {
		key := Canonical(name)
		if key == "" {
			return nil, fmt.Errorf("empty product name")
		}
		if !json.Valid(id) {
			return nil, fmt.Errorf("product %q: id is not a JSON value", name)
		}
		if _, dup := ids[key]; dup {
			return nil, fmt.Errorf("duplicate product name %q", key)
		}
		ids[key] = append(json.RawMessage(nil), id...)
	}
	return &ProductMap{ids: ids}, nil
}

// Resolve looks up a product name. The name is canonicalized first.
func (m *ProductMap) Resolve(name string) (json.RawMessage, bool) {
	id, ok := m.ids[Canonical(name)]
	return id, ok
}

// Len returns the number of products.
func (m *ProductMap) Len() int {
	return len(m.ids)
}

// Names returns the canonical product names in sorted order.
func (m *ProductMap) Names() []string {
	names := make([]string, 0, len(m.ids))
	for name := range m.ids {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
