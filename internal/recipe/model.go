package recipe

import (
	"encoding/json"
	"strconv"
	"strings"

	"pantry/internal/product"
)

// Names holds the localized display names of a recipe.
type Names struct {
	PL string `json:"pl"`
	EN string `json:"en"`
}

// Get returns the name for locale, falling back to Polish and then English.
func (n Names) Get(locale string) string {
	if strings.EqualFold(locale, "en") && n.EN != "" {
		return n.EN
	}
	if n.PL != "" {
		return n.PL
	}
	return n.EN
}

// Recipe represents a cookable dish definition
type Recipe struct {
	ID          string       `json:"id"`
	Name        string       `json:"name,omitempty"`
	Names       Names        `json:"names"`
	Portions    float64      `json:"portions"`
	Time        string       `json:"time"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []string     `json:"steps"`
	Tags        []string     `json:"tags"`
}

// Ingredient is one line of a recipe. Quantities are per Recipe.Portions.
type Ingredient struct {
	ProductID  string  `json:"productId"`
	Name       string  `json:"name,omitempty"`
	Qty        float64 `json:"qty"`
	UnitID     string  `json:"unitId"`
	Optional   bool    `json:"optional"`
	Note       *string `json:"note,omitempty"`
	Unresolved bool    `json:"unresolved,omitempty"`
}

// RawIngredient is an ingredient entry as found in the recipes document:
// either a StructuredIngredient or a RawNote.
type RawIngredient interface {
	normalize() Ingredient
}

// StructuredIngredient is an ingredient entry written as a JSON object.
type StructuredIngredient map[string]any

// RawNote is any ingredient entry that is not an object, kept as text.
type RawNote string

// ParseIngredient classifies a decoded ingredient entry.
func ParseIngredient(v any) RawIngredient {
	if m, ok := v.(map[string]any); ok {
		return StructuredIngredient(m)
	}
	return RawNote(stringify(v))
}

func (s StructuredIngredient) normalize() Ingredient {
	ing := Ingredient{
		ProductID:  text(s["productId"]),
		Qty:        nonNegative(product.SafeFloat(s["qty"], 0)),
		UnitID:     text(s["unitId"]),
		Optional:   product.CoerceBool(s["optional"], false),
		Unresolved: product.CoerceBool(s["unresolved"], false),
	}
	if note, ok := s["note"]; ok && note != nil {
		n := stringify(note)
		ing.Note = &n
	}
	return ing
}

func (r RawNote) normalize() Ingredient {
	note := string(r)
	return Ingredient{Note: &note, Unresolved: true}
}

// Normalize turns a raw recipe record into a Recipe. It never fails:
// portions are at least 1, non-string steps and tags are dropped and corrupt
// ingredients become unresolved placeholders.
func Normalize(rec map[string]any) Recipe {
	r := Recipe{
		ID:          text(rec["id"]),
		Portions:    product.SafeFloat(rec["portions"], 1),
		Time:        stringify(rec["time"]),
		Steps:       stringList(rec["steps"]),
		Tags:        stringList(rec["tags"]),
		Ingredients: []Ingredient{},
	}
	if r.Portions < 1 {
		r.Portions = 1
	}
	if names, ok := rec["names"].(map[string]any); ok {
		r.Names = Names{PL: text(names["pl"]), EN: text(names["en"])}
	}
	if list, ok := rec["ingredients"].([]any); ok {
		for _, raw := range list {
			r.Ingredients = append(r.Ingredients, ParseIngredient(raw).normalize())
		}
	}
	return r
}

// NormalizeAll normalizes every record, keeping their order.
func NormalizeAll(recs []map[string]any) []Recipe {
	out := make([]Recipe, 0, len(recs))
	for _, rec := range recs {
		out = append(out, Normalize(rec))
	}
	return out
}

func text(v any) string {
	s, _ := v.(string)
	return s
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func stringList(v any) []string {
	out := []string{}
	list, _ := v.([]any)
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
