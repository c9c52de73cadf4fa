package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"pantry/internal/logger"
	"pantry/internal/product"
	"pantry/internal/recipe"
	"pantry/internal/shopping"
)

type generateRequest struct {
	Recipes []shopping.Selection `json:"recipes" binding:"required,dive"`
}

type markRequest struct {
	InCart *bool `json:"inCart" binding:"required"`
}

// GetShopping returns the persisted shopping list.
func (h *Handler) GetShopping(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	items, err := h.Store.Shopping(ctx)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GenerateShopping builds a new shopping list from the selected recipes and
// the current pantry, replacing the previous list.
func (h *Handler) GenerateShopping(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	var (
		recipes []recipe.Recipe
		stock   []product.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recipes, err = h.Store.Recipes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stock, err = h.Store.Products(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		serverError(c, err)
		return
	}

	generated := shopping.Generate(recipes, stock, req.Recipes, h.Catalog)
	items, err := h.Store.UpdateShopping(ctx, func([]shopping.Item) ([]shopping.Item, error) {
		return generated, nil
	})
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// errNotOnList aborts a shopping update that matched no item.
var errNotOnList = errors.New("product is not on the shopping list")

// MarkShopping toggles the in-cart flag of one product's items. The list is
// left untouched when the product is not on it.
func (h *Handler) MarkShopping(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	productID := c.Param("productId")

	ctx, cancel := h.context(c)
	defer cancel()

	items, err := h.Store.UpdateShopping(ctx, func(current []shopping.Item) ([]shopping.Item, error) {
		updated, found := shopping.Mark(current, productID, *req.InCart)
		if !found {
			return nil, errNotOnList
		}
		return updated, nil
	})
	if errors.Is(err, errNotOnList) {
		NotFound(c)
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// ConfirmShopping moves the items in the cart into the pantry and keeps the
// rest as the new list. The shopping lock is held for the whole exchange and
// the products lock is taken inside it, never the other way round. Items
// whose unit does not match the stored product stay on the list.
func (h *Handler) ConfirmShopping(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	items, err := h.Store.UpdateShopping(ctx, func(current []shopping.Item) ([]shopping.Item, error) {
		purchased, remaining := shopping.Split(current)
		if len(purchased) == 0 {
			return remaining, nil
		}

		var skipped []shopping.Item
		_, err := h.Store.UpdateProducts(ctx, func(products []product.Product) ([]product.Product, error) {
			var updated []product.Product
			updated, skipped = shopping.ApplyPurchases(products, purchased, h.Catalog)
			return updated, nil
		})
		if err != nil {
			return nil, err
		}
		if len(skipped) > 0 {
			logger.WithContext(c.Request.Context()).WithFields(logrus.Fields{
				"module":  "api",
				"skipped": len(skipped),
			}).Warn("some purchases could not be applied to the pantry")
		}
		return append(remaining, skipped...), nil
	})
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
