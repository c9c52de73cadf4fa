package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"pantry/internal/catalog"
	"pantry/internal/logger"
	"pantry/internal/product"
	"pantry/internal/store"
	"pantry/internal/units"
)

// SchemaVersion identifies the normalized data model served by the API.
const SchemaVersion = "normalized@1"

const maxReportedErrors = 5

// Health checks that every core dataset loads.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := h.Store.Products(gctx)
		return err
	})
	g.Go(func() error {
		_, err := h.Store.Recipes(gctx)
		return err
	})
	g.Go(func() error {
		_, err := h.Store.Domain(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		traceID := logger.ErrorWithTrace(c.Request.Context(), err, logrus.Fields{"endpoint": c.FullPath()})
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "datasets unavailable", "traceId": traceID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Stats reports dataset sizes and the last update time.
func (h *Handler) Stats(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	var (
		domain  catalog.Domain
		recipes int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		domain, err = h.Store.Domain(gctx)
		return err
	})
	g.Go(func() error {
		list, err := h.Store.Recipes(gctx)
		recipes = len(list)
		return err
	})
	if err := g.Wait(); err != nil {
		serverError(c, err)
		return
	}

	var lastUpdated time.Time
	for _, doc := range []store.Doc{store.DocDomain, store.DocRecipes} {
		info, err := h.Store.Version(doc)
		if err != nil {
			serverError(c, err)
			return
		}
		if info.ModTime.After(lastUpdated) {
			lastUpdated = info.ModTime
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"schemaVersion": SchemaVersion,
		"productsCount": len(product.LegacyView(domain)),
		"recipesCount":  recipes,
		"lastUpdated":   lastUpdated.UTC().Format(time.RFC3339),
	})
}

type datasetReport struct {
	Count  int      `json:"count"`
	Errors []string `json:"errors"`
}

func newReport(count int, errs []string) datasetReport {
	if errs == nil {
		errs = []string{}
	}
	if len(errs) > maxReportedErrors {
		errs = errs[:maxReportedErrors]
	}
	return datasetReport{Count: count, Errors: errs}
}

// Validate summarizes the consistency of the stored datasets. Unreadable
// documents are reported with a trace id instead of the cause.
func (h *Handler) Validate(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	var (
		rawProducts []map[string]any
		rawRecipes  []map[string]any
		domain      catalog.Domain
		history     []map[string]any
		loadErrs    [4]error
	)
	// Each load reports its own failure; none of them cancels the others.
	var g errgroup.Group
	g.Go(func() error {
		rawProducts, _, loadErrs[0] = h.Store.RawProducts(ctx)
		return nil
	})
	g.Go(func() error {
		rawRecipes, loadErrs[1] = h.Store.RawRecipes(ctx)
		return nil
	})
	g.Go(func() error {
		domain, loadErrs[2] = h.Store.Domain(ctx)
		return nil
	})
	g.Go(func() error {
		history, loadErrs[3] = h.Store.History(ctx)
		return nil
	})
	_ = g.Wait()

	unreadable := func(err error) []string {
		traceID := logger.ErrorWithTrace(c.Request.Context(), err, logrus.Fields{"endpoint": c.FullPath()})
		return []string{fmt.Sprintf("dataset unreadable (trace %s)", traceID)}
	}

	var domainErrs, recipeErrs []string
	if loadErrs[2] == nil {
		for _, msg := range catalog.Check(domain, rawRecipes) {
			if strings.HasPrefix(msg, "recipe[") {
				recipeErrs = append(recipeErrs, msg)
			} else {
				domainErrs = append(domainErrs, msg)
			}
		}
	}

	summary := gin.H{}
	if loadErrs[0] != nil {
		summary["products"] = newReport(0, unreadable(loadErrs[0]))
	} else {
		summary["products"] = newReport(len(rawProducts), checkProducts(rawProducts))
	}
	if loadErrs[1] != nil {
		summary["recipes"] = newReport(0, unreadable(loadErrs[1]))
	} else {
		summary["recipes"] = newReport(len(rawRecipes), recipeErrs)
	}
	if loadErrs[2] != nil {
		summary["domain"] = newReport(0, unreadable(loadErrs[2]))
	} else {
		summary["domain"] = newReport(len(domain.Products), domainErrs)
	}
	if loadErrs[3] != nil {
		summary["history"] = newReport(0, unreadable(loadErrs[3]))
	} else {
		summary["history"] = newReport(len(history), nil)
	}
	c.JSON(http.StatusOK, summary)
}

// checkProducts flags stored records the normalizer would have to invent
// data for.
func checkProducts(records []map[string]any) []string {
	var problems []string
	for i, rec := range records {
		name, _ := rec["name"].(string)
		_, hasID := rec["productId"].(string)
		_, hasAlias := rec["alias"].(string)
		if name == "" && !hasID && !hasAlias {
			problems = append(problems, fmt.Sprintf("products[%d]: missing name", i))
		}
		if unit, ok := rec["unit"].(string); ok && unit != "" && !units.Known(unit) {
			problems = append(problems, fmt.Sprintf("products[%d]: unknown unit %s", i, unit))
		}
		if q, ok := rec["quantity"]; ok && product.SafeFloat(q, -1) < 0 {
			problems = append(problems, fmt.Sprintf("products[%d]: invalid quantity", i))
		}
	}
	return problems
}
