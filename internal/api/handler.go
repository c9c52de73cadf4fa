package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"pantry/internal/catalog"
	"pantry/internal/logger"
	"pantry/internal/product"
	"pantry/internal/recipe"
	"pantry/internal/shopping"
	"pantry/internal/store"
)

// Catalog defines the domain catalog lookups the handlers need.
type Catalog interface {
	ResolveAlias(text string) (string, bool)
	ResolveDisplayName(id, locale string) (string, bool)
	Product(id string) (catalog.DomainProduct, bool)
}

// ProductStore defines the pantry persistence operations.
type ProductStore interface {
	RawProducts(ctx context.Context) ([]map[string]any, store.Layout, error)
	Products(ctx context.Context) ([]product.Product, error)
	UpdateProducts(ctx context.Context, fn func([]product.Product) ([]product.Product, error)) ([]product.Product, error)
}

// RecipeStore defines the read-only recipe and domain operations.
type RecipeStore interface {
	Domain(ctx context.Context) (catalog.Domain, error)
	RawRecipes(ctx context.Context) ([]map[string]any, error)
	Recipes(ctx context.Context) ([]recipe.Recipe, error)
}

// ShoppingStore defines the shopping list persistence operations.
type ShoppingStore interface {
	Shopping(ctx context.Context) ([]shopping.Item, error)
	UpdateShopping(ctx context.Context, fn func([]shopping.Item) ([]shopping.Item, error)) ([]shopping.Item, error)
}

// DocumentStore defines the small user documents.
type DocumentStore interface {
	History(ctx context.Context) ([]map[string]any, error)
	AppendHistory(ctx context.Context, entry map[string]any) ([]map[string]any, error)
	Favorites(ctx context.Context) ([]any, error)
	SaveFavorites(ctx context.Context, favs []any) error
	Units(ctx context.Context) (map[string]any, error)
	SaveUnits(ctx context.Context, prefs map[string]any) error
}

// Store is everything the handlers persist.
type Store interface {
	ProductStore
	RecipeStore
	ShoppingStore
	DocumentStore
	Version(doc store.Doc) (store.Info, error)
}

// Options tune the handler behaviour.
type Options struct {
	ProductsView   string
	RequestTimeout time.Duration
}

// Handler handles HTTP requests.
type Handler struct {
	Store      Store
	Catalog    Catalog
	Normalizer *product.Normalizer
	opts       Options
}

// NewHandler creates a new Handler.
func NewHandler(s Store, c Catalog, opts Options) *Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Second
	}
	if opts.ProductsView == "" {
		opts.ProductsView = "pantry"
	}
	return &Handler{Store: s, Catalog: c, Normalizer: product.NewNormalizer(c), opts: opts}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")

	api.GET("/domain", h.GetDomain)
	api.GET("/products", h.GetProducts)
	api.GET("/products/legacy", h.GetLegacyProducts)
	api.POST("/products", h.SaveProducts)
	api.PUT("/products", h.SaveProducts)
	api.DELETE("/products/:name", h.DeleteProduct)

	api.GET("/recipes", h.GetRecipes)

	api.GET("/history", h.GetHistory)
	api.POST("/history", h.AddHistory)
	api.GET("/favorites", h.GetFavorites)
	api.PUT("/favorites", h.PutFavorites)
	api.GET("/units", h.GetUnits)
	api.PUT("/units", h.PutUnits)

	api.GET("/shopping", h.GetShopping)
	api.POST("/shopping", h.GenerateShopping)
	api.POST("/shopping/confirm", h.ConfirmShopping)
	api.PATCH("/shopping/:productId", h.MarkShopping)

	api.GET("/health", h.Health)
	api.GET("/_health", h.Stats)
	api.GET("/validate", h.Validate)
}

// NotFound answers unknown routes.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

func (h *Handler) context(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.opts.RequestTimeout)
}

// serverError logs err under the request's trace id and answers without leaking
// the cause.
func serverError(c *gin.Context, err error) {
	fields := logrus.Fields{
		"endpoint": c.FullPath(),
		"method":   c.Request.Method,
		"args":     c.Request.URL.RawQuery,
	}
	if errors.Is(err, context.DeadlineExceeded) {
		traceID := logger.WarnWithTrace(c.Request.Context(), fmt.Sprintf("request timed out: %v", err), fields)
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "Request Timeout", "traceId": traceID})
		return
	}
	traceID := logger.ErrorWithTrace(c.Request.Context(), err, fields)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error", "traceId": traceID})
}

// badRequest reports a malformed payload.
func badRequest(c *gin.Context, err error) {
	msg := describe(err)
	traceID := logger.WarnWithTrace(c.Request.Context(), "invalid payload: "+msg, logrus.Fields{
		"endpoint": c.FullPath(),
		"method":   c.Request.Method,
	})
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "traceId": traceID})
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
		return strings.Join(msgs, "; ")
	}
	if errors.Is(err, errInvalidPayload) {
		return err.Error()
	}
	return "invalid JSON payload"
}

var errInvalidPayload = errors.New("invalid payload")
