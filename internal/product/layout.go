package product

import (
	"sort"
	"strings"
)

// Nested is the storage -> category -> items layout of the pantry document.
type Nested map[string]map[string][]map[string]any

// Flatten turns a nested document into flat records that carry their
// storage and category keys.
func Flatten(n Nested) []map[string]any {
	var out []map[string]any
	for _, storage := range sortedKeys(n) {
		categories := n[storage]
		for _, category := range sortedKeys(categories) {
			for _, item := range categories[category] {
				rec := make(map[string]any, len(item)+2)
				for k, v := range item {
					rec[k] = v
				}
				rec["storage"] = storage
				rec["category"] = category
				out = append(out, rec)
			}
		}
	}
	return out
}

// Nest groups flat records by storage and category. Keys are written in their
// prefixed form; missing values become storage.pantry and
// category.uncategorized.
func Nest(records []map[string]any) Nested {
	out := make(Nested)
	for _, rec := range records {
		storage := prefixed("storage.", rec["storage"], DefaultStorage)
		category := prefixed("category.", rec["category"], DefaultCategory)

		item := make(map[string]any, len(rec))
		for k, v := range rec {
			if k == "storage" || k == "category" {
				continue
			}
			item[k] = v
		}
		if out[storage] == nil {
			out[storage] = make(map[string][]map[string]any)
		}
		out[storage][category] = append(out[storage][category], item)
	}
	return out
}

func prefixed(prefix string, v any, def string) string {
	s, _ := v.(string)
	if s == "" {
		s = def
	}
	if strings.HasPrefix(s, prefix) {
		return s
	}
	return prefix + s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
