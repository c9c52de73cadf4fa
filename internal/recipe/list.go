package recipe

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"pantry/internal/logger"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Catalog resolves ingredient product ids to display names.
type Catalog interface {
	ResolveDisplayName(id, locale string) (string, bool)
}

// Query selects, orders and pages a recipe listing.
type Query struct {
	Locale   string `form:"locale"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	SortBy   string `form:"sort_by"`
	Order    string `form:"order"`
}

// Page is one page of a recipe listing.
type Page struct {
	Items    []Recipe `json:"items"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
	Total    int      `json:"total"`
}

// List localizes recipes and returns the requested page. Ingredients whose
// product cannot be resolved are flagged instead of hiding their recipe.
func List(recipes []Recipe, c Catalog, q Query) Page {
	q = q.clamped()
	log := logger.WithModule("recipe")

	items := make([]Recipe, 0, len(recipes))
	for _, r := range recipes {
		items = append(items, localize(r, c, q.Locale, log))
	}
	sortRecipes(items, q.SortBy, strings.EqualFold(q.Order, "desc"))

	total := len(items)
	start := (q.Page - 1) * q.PageSize
	if start > total {
		start = total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}
	return Page{Items: items[start:end], Page: q.Page, PageSize: q.PageSize, Total: total}
}

func (q Query) clamped() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.PageSize == 0:
		q.PageSize = DefaultPageSize
	case q.PageSize < 1:
		q.PageSize = 1
	case q.PageSize > MaxPageSize:
		q.PageSize = MaxPageSize
	}
	if q.Locale == "" {
		q.Locale = "pl"
	}
	return q
}

func localize(r Recipe, c Catalog, locale string, log *logrus.Entry) Recipe {
	r.Name = r.Names.Get(locale)
	ingredients := make([]Ingredient, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		name, ok := "", false
		if ing.ProductID != "" && c != nil {
			name, ok = c.ResolveDisplayName(ing.ProductID, locale)
		}
		if ok {
			ing.Name = name
		} else if !ing.Unresolved {
			ing.Unresolved = true
			log.WithFields(logrus.Fields{
				"recipe":    r.ID,
				"productId": ing.ProductID,
			}).Warn("recipe ingredient references unknown product")
		}
		ingredients[i] = ing
	}
	r.Ingredients = ingredients
	return r
}

func sortRecipes(items []Recipe, by string, desc bool) {
	var less func(a, b Recipe) bool
	switch strings.ToLower(by) {
	case "name":
		less = func(a, b Recipe) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case "id":
		less = func(a, b Recipe) bool { return strings.ToLower(a.ID) < strings.ToLower(b.ID) }
	case "time":
		less = func(a, b Recipe) bool { return strings.ToLower(a.Time) < strings.ToLower(b.Time) }
	case "portions":
		less = func(a, b Recipe) bool { return a.Portions < b.Portions }
	default:
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}
