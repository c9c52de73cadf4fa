// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"pantry/internal/logger"
	"pantry/internal/store"
)

// Products views served by GET /api/products.
const (
	ViewPantry = "pantry"
	ViewLegacy = "legacy"
)

// Config holds everything needed to run the API server.
type Config struct {
	Address        string        `env:"ADDRESS" envDefault:":8080"`
	DataDir        string        `env:"DATA_DIR" envDefault:"./data"`
	DomainFile     string        `env:"DOMAIN_FILE" envDefault:"domain.json"`
	ProductsFile   string        `env:"PRODUCTS_FILE" envDefault:"products.json"`
	RecipesFile    string        `env:"RECIPES_FILE" envDefault:"recipes.json"`
	ShoppingFile   string        `env:"SHOPPING_FILE" envDefault:"shopping.json"`
	HistoryFile    string        `env:"HISTORY_FILE" envDefault:"history.json"`
	FavoritesFile  string        `env:"FAVORITES_FILE" envDefault:"favorites.json"`
	UnitsFile      string        `env:"UNITS_FILE" envDefault:"units.json"`
	ProductsView   string        `env:"PRODUCTS_VIEW" envDefault:"pantry"`
	CORSOrigins    []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:8081"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5s"`
	GinMode        string        `env:"GIN_MODE" envDefault:"release"`

	Log logger.Config
}

// Load reads an optional .env file from envFile (ignored when it does not
// exist), then parses the environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings env tags cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Address) == "" {
		return errors.New("ADDRESS must not be empty")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("DATA_DIR must not be empty")
	}
	switch c.ProductsView {
	case ViewPantry, ViewLegacy:
	default:
		return fmt.Errorf("unknown PRODUCTS_VIEW %q", c.ProductsView)
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown GIN_MODE %q", c.GinMode)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// Path resolves a data file name against the data directory. Absolute names
// are returned unchanged.
func (c *Config) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// Paths returns the locations of every document.
func (c *Config) Paths() store.Paths {
	return store.Paths{
		Domain:    c.Path(c.DomainFile),
		Products:  c.Path(c.ProductsFile),
		Recipes:   c.Path(c.RecipesFile),
		Shopping:  c.Path(c.ShoppingFile),
		History:   c.Path(c.HistoryFile),
		Favorites: c.Path(c.FavoritesFile),
		Units:     c.Path(c.UnitsFile),
	}
}
