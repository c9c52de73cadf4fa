package recipe

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCatalog map[string]map[string]string

func (m mockCatalog) ResolveDisplayName(id, locale string) (string, bool) {
	names, ok := m[id]
	if !ok {
		return "", false
	}
	if n := names[locale]; n != "" {
		return n, true
	}
	return names["pl"], true
}

var catalogFixture = mockCatalog{
	"prod.egg":  {"pl": "Jajko", "en": "Egg"},
	"prod.rice": {"pl": "Ryż", "en": "Rice"},
}

func TestListFlagsUnresolvedIngredients(t *testing.T) {
	recipes := []Recipe{
		{
			ID:    "r1",
			Names: Names{PL: "Ryż z jajkiem", EN: "Egg rice"},
			Ingredients: []Ingredient{
				{ProductID: "prod.rice", Qty: 100, UnitID: "unit.g"},
				{ProductID: "prod.unicorn", Qty: 1, UnitID: "unit.szt"},
				{Qty: 1},
			},
		},
	}

	page := List(recipes, catalogFixture, Query{Locale: "en"})
	require.Len(t, page.Items, 1)

	r := page.Items[0]
	assert.Equal(t, "Egg rice", r.Name)
	assert.Equal(t, "Rice", r.Ingredients[0].Name)
	assert.False(t, r.Ingredients[0].Unresolved)
	assert.True(t, r.Ingredients[1].Unresolved)
	assert.True(t, r.Ingredients[2].Unresolved)

	assert.False(t, recipes[0].Ingredients[1].Unresolved)
}

func TestListSortsCaseInsensitively(t *testing.T) {
	recipes := []Recipe{
		{ID: "b", Names: Names{PL: "banana bread"}, Portions: 4},
		{ID: "a", Names: Names{PL: "Apple pie"}, Portions: 8},
		{ID: "c", Names: Names{PL: "carrot cake"}, Portions: 2},
	}

	ids := func(p Page) []string {
		var out []string
		for _, r := range p.Items {
			out = append(out, r.ID)
		}
		return out
	}

	assert.Equal(t, []string{"a", "b", "c"}, ids(List(recipes, nil, Query{SortBy: "name"})))
	assert.Equal(t, []string{"c", "b", "a"}, ids(List(recipes, nil, Query{SortBy: "NAME", Order: "DESC"})))
	assert.Equal(t, []string{"c", "b", "a"}, ids(List(recipes, nil, Query{SortBy: "portions"})))
	assert.Equal(t, []string{"b", "a", "c"}, ids(List(recipes, nil, Query{SortBy: "unknown"})))
}

func TestListPaginates(t *testing.T) {
	var recipes []Recipe
	for i := 0; i < 250; i++ {
		recipes = append(recipes, Recipe{ID: fmt.Sprintf("r%03d", i)})
	}

	page := List(recipes, nil, Query{})
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Len(t, page.Items, DefaultPageSize)
	assert.Equal(t, 250, page.Total)

	page = List(recipes, nil, Query{Page: 2, PageSize: 1000})
	assert.Equal(t, MaxPageSize, page.PageSize)
	require.Len(t, page.Items, 50)
	assert.Equal(t, "r200", page.Items[0].ID)

	page = List(recipes, nil, Query{Page: -3, PageSize: -5})
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.PageSize)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "r000", page.Items[0].ID)

	page = List(recipes, nil, Query{Page: 99, PageSize: 10})
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}
