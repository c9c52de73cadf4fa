package api_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"pantry/internal/api"
	"pantry/internal/catalog"
	"pantry/internal/logger"
	"pantry/internal/product"
	"pantry/internal/store"
)

const testDomain = `{
  "categories": [
    {"id": "category.grains"},
    {"id": "category.drinks"},
    {"id": "category.dairy-eggs"},
    {"id": "category.spices"}
  ],
  "units": [
    {"id": "unit.g"}, {"id": "unit.kg"}, {"id": "unit.ml"}, {"id": "unit.l"},
    {"id": "unit.szt"}, {"id": "unit.lvl"}
  ],
  "products": [
    {"id": "prod.rice", "names": {"pl": "Ryż", "en": "Rice"}, "aliases": ["ryż", "rice"], "categoryId": "category.grains", "unitId": "unit.g"},
    {"id": "prod.water", "names": {"pl": "Woda", "en": "Water"}, "aliases": ["woda"], "categoryId": "category.drinks", "unitId": "unit.ml"},
    {"id": "prod.egg", "names": {"pl": "Jajko", "en": "Egg"}, "aliases": ["jajko"], "categoryId": "category.dairy-eggs", "unitId": "unit.szt"},
    {"id": "prod.pepper", "names": {"pl": "Pieprz", "en": "Pepper"}, "aliases": ["pieprz"], "categoryId": "category.spices", "unitId": "unit.lvl"}
  ]
}`

const testRecipes = `[
  {
    "id": "recipe.a",
    "names": {"pl": "Ryż na wodzie", "en": "Boiled rice"},
    "portions": 2,
    "time": "20 min",
    "ingredients": [
      {"productId": "prod.rice", "qty": 100, "unitId": "unit.g"},
      {"productId": "prod.water", "qty": 1, "unitId": "unit.l", "optional": true}
    ],
    "steps": ["Gotuj"],
    "tags": ["obiad"]
  },
  {
    "id": "recipe.b",
    "names": {"pl": "Jajka z ryżem", "en": "Eggs with rice"},
    "portions": 1,
    "time": "15 min",
    "ingredients": [
      {"productId": "prod.rice", "qty": 0.2, "unitId": "unit.kg"},
      {"productId": "prod.egg", "qty": 2, "unitId": "unit.szt"}
    ],
    "steps": ["Smaż"],
    "tags": []
  },
  {
    "id": "recipe.c",
    "names": {"pl": "Trufle", "en": "Truffles"},
    "portions": 4,
    "time": 45,
    "ingredients": [
      {"productId": "prod.truffle", "qty": 10, "unitId": "unit.g"}
    ]
  }
]`

const testProducts = `[
  {"name": "Ryż", "quantity": 100, "unit": "g", "category": "grains"},
  {"name": "Woda", "quantity": 500, "unit": "ml"},
  {"name": "Jajko", "quantity": 1, "unit": "szt"}
]`

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	logger.Replace(quiet)
	os.Exit(m.Run())
}

type testServer struct {
	router *gin.Engine
	store  *store.FileStore
}

func newTestServer(t *testing.T, opts api.Options) *testServer {
	t.Helper()
	dir := t.TempDir()
	paths := store.Paths{
		Domain:    filepath.Join(dir, "domain.json"),
		Products:  filepath.Join(dir, "products.json"),
		Recipes:   filepath.Join(dir, "recipes.json"),
		Shopping:  filepath.Join(dir, "shopping.json"),
		History:   filepath.Join(dir, "history.json"),
		Favorites: filepath.Join(dir, "favorites.json"),
		Units:     filepath.Join(dir, "units.json"),
	}
	require.NoError(t, os.WriteFile(paths.Domain, []byte(testDomain), 0o644))
	require.NoError(t, os.WriteFile(paths.Recipes, []byte(testRecipes), 0o644))
	require.NoError(t, os.WriteFile(paths.Products, []byte(testProducts), 0o644))

	var d catalog.Domain
	require.NoError(t, json.Unmarshal([]byte(testDomain), &d))
	resolver := catalog.FromDomain(d)

	fs := store.NewFileStore(paths, product.NewNormalizer(resolver))
	h := api.NewHandler(fs, resolver, opts)
	return &testServer{router: api.NewRouter(h, []string{"*"}), store: fs}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

type productsResponse struct {
	Items []product.Product `json:"items"`
}

func findProduct(t *testing.T, items []product.Product, name string) product.Product {
	t.Helper()
	for _, p := range items {
		if p.Name == name {
			return p
		}
	}
	require.FailNow(t, "product not found", name)
	return product.Product{}
}

func requireStatus(t *testing.T, want int, rr *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, want, rr.Code, rr.Body.String())
}
