package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry/internal/config"
)

func writeData(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"domain.json": `{
			"categories": [{"id": "category.grains"}],
			"units": [{"id": "unit.g"}],
			"products": [{"id": "prod.rice", "names": {"pl": "Ryż", "en": "Rice"}, "aliases": ["ryż"], "categoryId": "category.grains", "unitId": "unit.g"}]
		}`,
		"recipes.json": `[{"id": "recipe.rice", "names": {"pl": "Ryż", "en": "Rice"}, "portions": 1,
			"ingredients": [{"productId": "prod.rice", "qty": 100, "unitId": "unit.g"}]}]`,
		"products.json": `{"storage.pantry": {"category.grains": [{"name": "Ryż", "quantity": 40, "unit": "g"}]}}`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}

func TestNewServer(t *testing.T) {
	// Point the configuration at a scratch data directory
	dir := t.TempDir()
	writeData(t, dir)
	t.Setenv("DATA_DIR", dir)
	t.Setenv("GIN_MODE", "test")
	t.Setenv("ADDRESS", "127.0.0.1:18080")

	cfg, err := config.Load("")
	require.NoError(t, err)

	srv := newServer(cfg)
	assert.Equal(t, "127.0.0.1:18080", srv.Addr)

	// The health check sees every dataset
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())

	// Generating a list reads the nested pantry and resolves its names
	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/shopping", strings.NewReader(`{"recipes":[{"id":"recipe.rice","servings":2}]}`))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var items []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "prod.rice", items[0]["productId"])
	assert.Equal(t, 160.0, items[0]["quantity_to_buy"])
}

func TestNewServerWithoutDomain(t *testing.T) {
	// A missing domain file still starts the server with an empty catalog
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("GIN_MODE", "test")
	t.Setenv("PRODUCTS_VIEW", "legacy")

	cfg, err := config.Load("")
	require.NoError(t, err)

	srv := newServer(cfg)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
