package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry/internal/api"
	"pantry/internal/recipe"
)

func TestGetRecipesLocalizes(t *testing.T) {
	s := newTestServer(t, api.Options{})

	rr := s.do(t, http.MethodGet, "/api/recipes?locale=en", "")
	requireStatus(t, http.StatusOK, rr)

	page := decode[recipe.Page](t, rr)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, recipe.DefaultPageSize, page.PageSize)
	require.Len(t, page.Items, 3)

	boiled := page.Items[0]
	assert.Equal(t, "Boiled rice", boiled.Name)
	require.Len(t, boiled.Ingredients, 2)
	assert.Equal(t, "Rice", boiled.Ingredients[0].Name)
	assert.False(t, boiled.Ingredients[0].Unresolved)
	assert.True(t, boiled.Ingredients[1].Optional)

	truffles := page.Items[2]
	assert.Equal(t, "45", truffles.Time)
	require.Len(t, truffles.Ingredients, 1)
	assert.True(t, truffles.Ingredients[0].Unresolved)
	assert.Equal(t, "prod.truffle", truffles.Ingredients[0].ProductID)
}

func TestGetRecipesDefaultsToPolish(t *testing.T) {
	s := newTestServer(t, api.Options{})

	page := decode[recipe.Page](t, s.do(t, http.MethodGet, "/api/recipes", ""))
	require.NotEmpty(t, page.Items)
	assert.Equal(t, "Ryż na wodzie", page.Items[0].Name)
	assert.Equal(t, "Ryż", page.Items[0].Ingredients[0].Name)
}

func TestGetRecipesPagesAndSorts(t *testing.T) {
	s := newTestServer(t, api.Options{})

	page := decode[recipe.Page](t, s.do(t, http.MethodGet, "/api/recipes?page=2&page_size=2", ""))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.PageSize)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "recipe.c", page.Items[0].ID)

	page = decode[recipe.Page](t, s.do(t, http.MethodGet, "/api/recipes?sort_by=portions&order=desc", ""))
	require.Len(t, page.Items, 3)
	assert.Equal(t, []string{"recipe.c", "recipe.a", "recipe.b"}, []string{page.Items[0].ID, page.Items[1].ID, page.Items[2].ID})

	page = decode[recipe.Page](t, s.do(t, http.MethodGet, "/api/recipes?page_size=1000", ""))
	assert.Equal(t, recipe.MaxPageSize, page.PageSize)

	page = decode[recipe.Page](t, s.do(t, http.MethodGet, "/api/recipes?page=9", ""))
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.Total)
}

func TestGetRecipesRejectsMalformedQuery(t *testing.T) {
	s := newTestServer(t, api.Options{})

	rr := s.do(t, http.MethodGet, "/api/recipes?page=abc", "")
	requireStatus(t, http.StatusBadRequest, rr)

	body := decode[map[string]any](t, rr)
	assert.Len(t, body["traceId"], 8)
}

func TestGetRecipesConditional(t *testing.T) {
	s := newTestServer(t, api.Options{})

	en := s.do(t, http.MethodGet, "/api/recipes?locale=en", "")
	requireStatus(t, http.StatusOK, en)
	etag := en.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rr := s.do(t, http.MethodGet, "/api/recipes?locale=en", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rr.Code)

	pl := s.do(t, http.MethodGet, "/api/recipes?locale=pl", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusOK, pl.Code)
	assert.NotEqual(t, etag, pl.Header().Get("ETag"))
}
