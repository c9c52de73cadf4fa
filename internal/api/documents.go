package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pantry/internal/logger"
	"pantry/internal/product"
)

// GetHistory returns the consumption history.
func (h *Handler) GetHistory(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	entries, err := h.Store.History(ctx)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// AddHistory appends a consumption entry. Products named in
// used_ingredients are removed from the pantry entirely.
func (h *Handler) AddHistory(c *gin.Context) {
	entry := map[string]any{}
	if err := c.ShouldBindJSON(&entry); err != nil {
		badRequest(c, err)
		return
	}
	if date, _ := entry["date"].(string); date == "" {
		entry["date"] = time.Now().Format(time.DateOnly)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	entries, err := h.Store.AppendHistory(ctx, entry)
	if err != nil {
		serverError(c, err)
		return
	}

	if used := usedIngredients(entry["used_ingredients"]); len(used) > 0 {
		_, err := h.Store.UpdateProducts(ctx, func(current []product.Product) ([]product.Product, error) {
			return removeNamed(current, used), nil
		})
		if err != nil {
			serverError(c, err)
			return
		}
		logger.WithModule("api").WithFields(logrus.Fields{"count": len(used)}).Info("removed used products from pantry")
	}
	c.JSON(http.StatusOK, entries)
}

func usedIngredients(v any) map[string]bool {
	list, _ := v.([]any)
	names := make(map[string]bool, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			names[s] = true
		}
	}
	return names
}

// GetFavorites returns the favorite recipes.
func (h *Handler) GetFavorites(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	favs, err := h.Store.Favorites(ctx)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, favs)
}

// PutFavorites replaces the favorite recipes.
func (h *Handler) PutFavorites(c *gin.Context) {
	favs := []any{}
	if err := c.ShouldBindJSON(&favs); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	if err := h.Store.SaveFavorites(ctx, favs); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, favs)
}

// GetUnits returns the unit preferences.
func (h *Handler) GetUnits(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	prefs, err := h.Store.Units(ctx)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// PutUnits replaces the unit preferences.
func (h *Handler) PutUnits(c *gin.Context) {
	prefs := map[string]any{}
	if err := c.ShouldBindJSON(&prefs); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	if err := h.Store.SaveUnits(ctx, prefs); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}
