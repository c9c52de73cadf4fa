package product

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"pantry/internal/catalog"
	"pantry/internal/units"
)

// Catalog is the part of the domain catalog the normalizer reads from.
type Catalog interface {
	AliasResolver
	Product(id string) (catalog.DomainProduct, bool)
}

// Normalizer coerces arbitrary records into complete Products.
type Normalizer struct {
	catalog Catalog
}

// NewNormalizer returns a Normalizer backed by c. A nil catalog disables the
// catalog lookups.
func NewNormalizer(c Catalog) *Normalizer {
	return &Normalizer{catalog: c}
}

var tagCategories = map[string]string{
	"spice":  SpiceCategory,
	"spices": SpiceCategory,
	"herb":   SpiceCategory,
}

// source carries one record through the field resolvers. Catalog matches are
// looked up at most once.
type source struct {
	rec     map[string]any
	catalog Catalog

	byIDDone    bool
	byID        *catalog.DomainProduct
	byAliasDone bool
	byAlias     *catalog.DomainProduct
}

func (s *source) productByID() *catalog.DomainProduct {
	if s.byIDDone {
		return s.byID
	}
	s.byIDDone = true
	if s.catalog == nil {
		return nil
	}
	id := stringField(s.rec, "productId", "id")
	if p, ok := s.catalog.Product(id); ok {
		s.byID = &p
	}
	return s.byID
}

func (s *source) productByAlias() *catalog.DomainProduct {
	if s.byAliasDone {
		return s.byAlias
	}
	s.byAliasDone = true
	if s.catalog == nil {
		return nil
	}
	alias := stringField(s.rec, "alias")
	if alias == "" {
		if list, ok := s.rec["aliases"].([]any); ok && len(list) > 0 {
			alias, _ = list[0].(string)
		}
	}
	if id, ok := s.catalog.ResolveAlias(alias); ok {
		if p, ok := s.catalog.Product(id); ok {
			s.byAlias = &p
		}
	}
	return s.byAlias
}

// resolver yields a field value or reports that it has none.
type resolver func(s *source) (string, bool)

func resolve(s *source, chain ...resolver) string {
	for _, r := range chain {
		if v, ok := r(s); ok {
			return v
		}
	}
	return ""
}

func explicit(clean func(string) string, keys ...string) resolver {
	return func(s *source) (string, bool) {
		v := clean(stringField(s.rec, keys...))
		return v, v != ""
	}
}

func fromCatalog(lookup func(*source) *catalog.DomainProduct, field func(catalog.DomainProduct) string, clean func(string) string) resolver {
	return func(s *source) (string, bool) {
		p := lookup(s)
		if p == nil {
			return "", false
		}
		v := clean(field(*p))
		return v, v != ""
	}
}

func constant(v string) resolver {
	return func(*source) (string, bool) { return v, true }
}

func tagCategory(s *source) (string, bool) {
	for _, tag := range tagList(s.rec["tags"]) {
		if c, ok := tagCategories[strings.ToLower(tag)]; ok {
			return c, true
		}
	}
	return "", false
}

func displayName(p catalog.DomainProduct) string {
	for _, l := range []string{"pl", "en"} {
		if n := p.Names[l]; n != "" {
			return n
		}
	}
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

func unitID(p catalog.DomainProduct) string     { return p.UnitID }
func categoryID(p catalog.DomainProduct) string { return p.CategoryID }

func keep(v string) string { return strings.TrimSpace(v) }

func cleanCategory(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	return strings.TrimPrefix(v, "category.")
}

func cleanStorage(v string) string {
	v = strings.TrimSpace(v)
	return strings.TrimPrefix(v, "storage.")
}

var (
	nameChain = []resolver{
		explicit(keep, "name"),
		fromCatalog((*source).productByID, displayName, keep),
		fromCatalog((*source).productByAlias, displayName, keep),
		constant(DefaultName),
	}
	unitChain = []resolver{
		explicit(units.Canonical, "unit", "unitId"),
		fromCatalog((*source).productByID, unitID, units.Canonical),
		fromCatalog((*source).productByAlias, unitID, units.Canonical),
		constant(units.Default),
	}
	categoryChain = []resolver{
		explicit(cleanCategory, "category", "categoryId"),
		fromCatalog((*source).productByID, categoryID, cleanCategory),
		fromCatalog((*source).productByAlias, categoryID, cleanCategory),
		tagCategory,
		constant(DefaultCategory),
	}
	storageChain = []resolver{
		explicit(cleanStorage, "storage"),
		constant(DefaultStorage),
	}
)

// Normalize returns the canonical Product for rec. It never fails: missing,
// empty or mistyped fields fall back to catalog data or defaults.
func (n *Normalizer) Normalize(rec map[string]any) Product {
	s := &source{rec: rec}
	if n != nil {
		s.catalog = n.catalog
	}

	p := Product{
		Name:        resolve(s, nameChain...),
		Unit:        resolve(s, unitChain...),
		Category:    resolve(s, categoryChain...),
		Storage:     resolve(s, storageChain...),
		Quantity:    nonNegative(safeFloat(rec["quantity"], 0)),
		Threshold:   nonNegative(safeFloat(rec["threshold"], 0)),
		Main:        coerceBool(rec["main"], true),
		PackageSize: nonNegative(safeFloat(rec["package_size"], 1)),
		PackSize:    optionalFloat(rec["pack_size"]),
		Tags:        tagList(rec["tags"]),
	}

	p.ID = stringField(rec, "productId", "id")
	if p.ID == "" {
		if alias := s.productByAlias(); alias != nil {
			p.ID = alias.ID
		}
	}

	level := Level(stringField(rec, "level"))
	if coerceBool(rec["is_spice"], false) || p.Category == SpiceCategory {
		if !level.Valid() {
			level = levelFromQuantity(p.Quantity)
		}
		p.IsSpice = true
		p.Category = SpiceCategory
		p.Quantity = 0
		p.Threshold = 1
		p.Main = true
		p.Level = &level
		return p
	}

	if level.Valid() {
		p.Level = &level
	}
	return p
}

// NormalizeAll normalizes every record.
func (n *Normalizer) NormalizeAll(recs []map[string]any) []Product {
	out := make([]Product, 0, len(recs))
	for _, rec := range recs {
		out = append(out, n.Normalize(rec))
	}
	return out
}

func levelFromQuantity(q float64) Level {
	switch {
	case q <= 0:
		return LevelNone
	case q == 1:
		return LevelLow
	default:
		return LevelMedium
	}
}

// stringField returns the first non-empty value among keys. Numbers are
// formatted; other types are ignored.
func stringField(rec map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := rec[k].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func tagList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return append([]string{}, t...)
	case string:
		return []string{t}
	}
	return []string{}
}

// SafeFloat converts v to a finite float64, returning def when that is not
// possible.
func SafeFloat(v any, def float64) float64 {
	return safeFloat(v, def)
}

func safeFloat(v any, def float64) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return def
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return def
		}
		f = parsed
	case bool:
		if n {
			f = 1
		}
	default:
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

func nonNegative(f float64) float64 {
	return math.Max(0, f)
}

// optionalFloat is nil for absent or empty values, otherwise a clamped float.
func optionalFloat(v any) *float64 {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok && s == "" {
		return nil
	}
	f := nonNegative(safeFloat(v, 0))
	return &f
}

// CoerceBool accepts a literal bool or the case-insensitive string "true";
// anything else yields def.
func CoerceBool(v any, def bool) bool {
	return coerceBool(v, def)
}

func coerceBool(v any, def bool) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true")
	}
	return def
}
