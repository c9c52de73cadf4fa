package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"pantry/internal/product"
	"pantry/internal/store"
)

// GetDomain returns the raw domain dataset.
func (h *Handler) GetDomain(c *gin.Context) {
	if h.cached(c, store.DocDomain, "") {
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	d, err := h.Store.Domain(ctx)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GetProducts returns the pantry, or the legacy view when configured so.
func (h *Handler) GetProducts(c *gin.Context) {
	if h.opts.ProductsView == "legacy" {
		h.GetLegacyProducts(c)
		return
	}
	if h.cached(c, store.DocProducts, "") {
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	products, err := h.Store.Products(ctx)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": products})
}

// GetLegacyProducts returns the flat legacy view built from the domain data.
func (h *Handler) GetLegacyProducts(c *gin.Context) {
	if h.cached(c, store.DocDomain, "legacy") {
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	d, err := h.Store.Domain(ctx)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": product.LegacyView(d)})
}

// SaveProducts normalizes one record or a list of records and merges them
// into the pantry by name.
func (h *Handler) SaveProducts(c *gin.Context) {
	var payload any
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	records, err := productRecords(payload)
	if err != nil {
		badRequest(c, err)
		return
	}
	incoming := h.Normalizer.NormalizeAll(records)

	ctx, cancel := h.context(c)
	defer cancel()

	products, err := h.Store.UpdateProducts(ctx, func(current []product.Product) ([]product.Product, error) {
		return mergeByName(current, incoming), nil
	})
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": products})
}

// DeleteProduct removes every product with the given name or id.
func (h *Handler) DeleteProduct(c *gin.Context) {
	name := c.Param("name")

	ctx, cancel := h.context(c)
	defer cancel()

	_, err := h.Store.UpdateProducts(ctx, func(current []product.Product) ([]product.Product, error) {
		return removeNamed(current, map[string]bool{name: true}), nil
	})
	if err != nil {
		serverError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func productRecords(payload any) ([]map[string]any, error) {
	switch v := payload.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		out := make([]map[string]any, 0, len(v))
		for i, item := range v {
			rec, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: item %d is not an object", errInvalidPayload, i)
			}
			out = append(out, rec)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: expected an object or an array of objects", errInvalidPayload)
}

// mergeByName replaces products sharing a name with the incoming version and
// appends the rest, keeping the existing order.
func mergeByName(current, incoming []product.Product) []product.Product {
	out := make([]product.Product, len(current))
	copy(out, current)
	index := make(map[string]int, len(out))
	for i, p := range out {
		index[p.Name] = i
	}
	for _, p := range incoming {
		if i, ok := index[p.Name]; ok {
			out[i] = p
			continue
		}
		index[p.Name] = len(out)
		out = append(out, p)
	}
	return out
}

func removeNamed(current []product.Product, names map[string]bool) []product.Product {
	out := make([]product.Product, 0, len(current))
	for _, p := range current {
		if names[p.Name] || (p.ID != "" && names[p.ID]) {
			continue
		}
		out = append(out, p)
	}
	return out
}
