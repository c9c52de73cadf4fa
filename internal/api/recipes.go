package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pantry/internal/recipe"
	"pantry/internal/store"
)

// GetRecipes returns one page of normalized recipes localized to the
// requested locale.
func (h *Handler) GetRecipes(c *gin.Context) {
	var q recipe.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	if h.cached(c, store.DocRecipes, c.Request.URL.RawQuery) {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	recipes, err := h.Store.Recipes(ctx)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe.List(recipes, h.Catalog, q))
}
