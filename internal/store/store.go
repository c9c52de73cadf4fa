package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"pantry/internal/catalog"
	"pantry/internal/product"
	"pantry/internal/recipe"
	"pantry/internal/shopping"
)

// Layout is the on-disk shape of the products document.
type Layout int

const (
	LayoutFlat Layout = iota
	LayoutNested
)

// Paths locates every document of the data directory.
type Paths struct {
	Domain    string
	Products  string
	Recipes   string
	Shopping  string
	History   string
	Favorites string
	Units     string
}

// FileStore reads and writes the pantry documents. Products are normalized
// on every read; nothing is cached between calls.
type FileStore struct {
	paths      Paths
	normalizer *product.Normalizer
}

// NewFileStore creates a store over paths.
func NewFileStore(paths Paths, n *product.Normalizer) *FileStore {
	return &FileStore{paths: paths, normalizer: n}
}

// Doc names one document of the data directory.
type Doc int

const (
	DocDomain Doc = iota
	DocProducts
	DocRecipes
	DocShopping
	DocHistory
	DocFavorites
	DocUnits
)

func (s *FileStore) path(doc Doc) string {
	switch doc {
	case DocDomain:
		return s.paths.Domain
	case DocProducts:
		return s.paths.Products
	case DocRecipes:
		return s.paths.Recipes
	case DocShopping:
		return s.paths.Shopping
	case DocHistory:
		return s.paths.History
	case DocFavorites:
		return s.paths.Favorites
	case DocUnits:
		return s.paths.Units
	}
	return ""
}

// Version reports the cache validators of doc.
func (s *FileStore) Version(doc Doc) (Info, error) {
	return Stat(s.path(doc))
}

// Paths returns the document locations.
func (s *FileStore) Paths() Paths {
	return s.paths
}

// Domain loads the domain dataset.
func (s *FileStore) Domain(ctx context.Context) (catalog.Domain, error) {
	var d catalog.Domain
	if err := ctx.Err(); err != nil {
		return d, err
	}
	if err := ReadJSON(s.paths.Domain, &d); err != nil {
		return catalog.Domain{}, err
	}
	return d, nil
}

// RawRecipes loads the recipes document without normalizing it.
func (s *FileStore) RawRecipes(ctx context.Context) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var raw []any
	if err := ReadJSON(s.paths.Recipes, &raw); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(raw))
	for idx, item := range raw {
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: not an object", filepath.Base(s.paths.Recipes), idx)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Recipes loads and normalizes the recipes.
func (s *FileStore) Recipes(ctx context.Context) ([]recipe.Recipe, error) {
	raw, err := s.RawRecipes(ctx)
	if err != nil {
		return nil, err
	}
	return recipe.NormalizeAll(raw), nil
}

// RawProducts loads the product records as flat records together with the
// layout they were stored in. A missing document is an empty flat pantry.
func (s *FileStore) RawProducts(ctx context.Context) ([]map[string]any, Layout, error) {
	if err := ctx.Err(); err != nil {
		return nil, LayoutFlat, err
	}
	var doc any
	err := ReadJSON(s.paths.Products, &doc)
	if errors.Is(err, ErrNotFound) {
		return []map[string]any{}, LayoutFlat, nil
	}
	if err != nil {
		return nil, LayoutFlat, err
	}

	switch v := doc.(type) {
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if rec, ok := item.(map[string]any); ok {
				out = append(out, rec)
			}
		}
		return out, LayoutFlat, nil
	case map[string]any:
		return product.Flatten(nestedFrom(v)), LayoutNested, nil
	}
	return nil, LayoutFlat, fmt.Errorf("%s: root is neither an array nor an object", filepath.Base(s.paths.Products))
}

// Products loads and normalizes the pantry.
func (s *FileStore) Products(ctx context.Context) ([]product.Product, error) {
	raw, _, err := s.RawProducts(ctx)
	if err != nil {
		return nil, err
	}
	return s.normalizer.NormalizeAll(raw), nil
}

// UpdateProducts applies fn to the pantry under the products lock and writes
// the result back in the layout it was read in.
func (s *FileStore) UpdateProducts(ctx context.Context, fn func([]product.Product) ([]product.Product, error)) ([]product.Product, error) {
	var out []product.Product
	err := WithLock(s.paths.Products, func() error {
		raw, layout, err := s.RawProducts(ctx)
		if err != nil {
			return err
		}
		updated, err := fn(s.normalizer.NormalizeAll(raw))
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		records := product.Records(updated)
		var doc any = records
		if layout == LayoutNested {
			doc = product.Nest(records)
		}
		if err := WriteJSONAtomic(s.paths.Products, doc); err != nil {
			return err
		}
		out = updated
		return nil
	})
	return out, err
}

// Shopping loads the current shopping list. A missing document is an empty
// list.
func (s *FileStore) Shopping(ctx context.Context) ([]shopping.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items := []shopping.Item{}
	if err := readOptional(s.paths.Shopping, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []shopping.Item{}
	}
	return items, nil
}

// UpdateShopping applies fn to the shopping list under its lock.
func (s *FileStore) UpdateShopping(ctx context.Context, fn func([]shopping.Item) ([]shopping.Item, error)) ([]shopping.Item, error) {
	var out []shopping.Item
	err := WithLock(s.paths.Shopping, func() error {
		items, err := s.Shopping(ctx)
		if err != nil {
			return err
		}
		updated, err := fn(items)
		if err != nil {
			return err
		}
		if updated == nil {
			updated = []shopping.Item{}
		}
		if err := WriteJSONAtomic(s.paths.Shopping, updated); err != nil {
			return err
		}
		out = updated
		return nil
	})
	return out, err
}

// History loads the consumption history.
func (s *FileStore) History(ctx context.Context) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries := []map[string]any{}
	if err := readOptional(s.paths.History, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []map[string]any{}
	}
	return entries, nil
}

// AppendHistory adds entry to the history and returns the full history.
func (s *FileStore) AppendHistory(ctx context.Context, entry map[string]any) ([]map[string]any, error) {
	var out []map[string]any
	err := WithLock(s.paths.History, func() error {
		entries, err := s.History(ctx)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		if err := WriteJSONAtomic(s.paths.History, entries); err != nil {
			return err
		}
		out = entries
		return nil
	})
	return out, err
}

// Favorites loads the favorite recipes list.
func (s *FileStore) Favorites(ctx context.Context) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	favs := []any{}
	if err := readOptional(s.paths.Favorites, &favs); err != nil {
		return nil, err
	}
	return favs, nil
}

// SaveFavorites replaces the favorites list.
func (s *FileStore) SaveFavorites(ctx context.Context, favs []any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if favs == nil {
		favs = []any{}
	}
	return WithLock(s.paths.Favorites, func() error {
		return WriteJSONAtomic(s.paths.Favorites, favs)
	})
}

// Units loads the user unit preferences.
func (s *FileStore) Units(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefs := map[string]any{}
	if err := readOptional(s.paths.Units, &prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// SaveUnits replaces the unit preferences.
func (s *FileStore) SaveUnits(ctx context.Context, prefs map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if prefs == nil {
		prefs = map[string]any{}
	}
	return WithLock(s.paths.Units, func() error {
		return WriteJSONAtomic(s.paths.Units, prefs)
	})
}

func readOptional(path string, v any) error {
	err := ReadJSON(path, v)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func nestedFrom(doc map[string]any) product.Nested {
	out := make(product.Nested, len(doc))
	for storage, v := range doc {
		categories, ok := v.(map[string]any)
		if !ok {
			continue
		}
		out[storage] = make(map[string][]map[string]any, len(categories))
		for category, list := range categories {
			items, ok := list.([]any)
			if !ok {
				continue
			}
			for _, item := range items {
				if rec, ok := item.(map[string]any); ok {
					out[storage][category] = append(out[storage][category], rec)
				}
			}
		}
	}
	return out
}
