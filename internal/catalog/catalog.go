// Package catalog resolves product aliases and technical ids against the
// bundled domain dataset of products, categories and units.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"pantry/internal/logger"
)

// Domain is the authoritative reference dataset.
type Domain struct {
	Categories []Category      `json:"categories"`
	Units      []Unit          `json:"units"`
	Products   []DomainProduct `json:"products"`
}

// Category is a product category of the domain dataset.
type Category struct {
	ID    string            `json:"id"`
	Names map[string]string `json:"names,omitempty"`
}

// Unit is a unit of measure of the domain dataset.
type Unit struct {
	ID    string            `json:"id"`
	Names map[string]string `json:"names,omitempty"`
}

// DomainProduct is a canonical product record.
type DomainProduct struct {
	ID         string            `json:"id"`
	Name       string            `json:"name,omitempty"`
	Names      map[string]string `json:"names,omitempty"`
	Aliases    []string          `json:"aliases,omitempty"`
	CategoryID string            `json:"categoryId,omitempty"`
	UnitID     string            `json:"unitId,omitempty"`
}

// LoadDomain reads a domain dataset from path.
func LoadDomain(path string) (Domain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Domain{}, fmt.Errorf("failed to read domain data: %w", err)
	}
	var d Domain
	if err := json.Unmarshal(data, &d); err != nil {
		return Domain{}, fmt.Errorf("failed to parse domain data: %w", err)
	}
	return d, nil
}

// Resolver maps alias strings and ids to canonical domain products. It is
// built once; lookups are safe for concurrent use.
type Resolver struct {
	path string

	mu       sync.Mutex
	loaded   bool
	loadErr  error
	products map[string]DomainProduct
	aliases  map[string]string
}

// NewResolver returns a resolver that loads path on first use.
func NewResolver(path string) *Resolver {
	return &Resolver{path: path}
}

// FromDomain builds a resolver from an already decoded dataset.
func FromDomain(d Domain) *Resolver {
	r := &Resolver{loaded: true}
	r.build(d)
	return r
}

// Load performs the one-time load and reports its error. Later calls return
// the same result without touching the file again.
func (r *Resolver) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return r.loadErr
	}
	r.loaded = true

	d, err := LoadDomain(r.path)
	if err != nil {
		r.loadErr = err
		logger.WithModule("catalog").WithError(err).Warn("domain data unavailable, catalog is empty")
		r.build(Domain{})
		return err
	}
	r.build(d)
	return nil
}

func (r *Resolver) ensure() {
	r.mu.Lock()
	loaded := r.loaded
	r.mu.Unlock()
	if !loaded {
		_ = r.Load()
	}
}

func (r *Resolver) build(d Domain) {
	r.products = make(map[string]DomainProduct, len(d.Products))
	r.aliases = make(map[string]string, len(d.Products)*2)

	log := logger.WithModule("catalog")
	for _, p := range d.Products {
		id := p.ID
		if id == "" {
			id = p.Name
		}
		if id == "" {
			continue
		}
		if len(p.Names) == 0 && p.Name != "" {
			p.Names = map[string]string{"pl": p.Name, "en": p.Name}
		}
		p.ID = id
		if _, dup := r.products[id]; dup {
			log.WithField("product", id).Warn("duplicate product id, keeping first")
			continue
		}
		r.products[id] = p

		for _, alias := range append([]string{id}, p.Aliases...) {
			key := NormalizeAlias(alias)
			if key == "" {
				continue
			}
			if owner, taken := r.aliases[key]; taken {
				if owner != id {
					log.WithFields(logrus.Fields{
						"alias":   alias,
						"owner":   owner,
						"ignored": id,
					}).Warn("alias collision")
				}
				continue
			}
			r.aliases[key] = id
		}
	}
}

// ResolveAlias returns the product id registered for text.
func (r *Resolver) ResolveAlias(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	r.ensure()
	id, ok := r.aliases[NormalizeAlias(text)]
	return id, ok
}

// ResolveDisplayName returns the name of id in locale, falling back to
// Polish and then English.
func (r *Resolver) ResolveDisplayName(id, locale string) (string, bool) {
	p, ok := r.Product(id)
	if !ok {
		return "", false
	}
	for _, l := range []string{locale, "pl", "en"} {
		if name := p.Names[l]; name != "" {
			return name, true
		}
	}
	return "", false
}

// Product returns the domain product with the given id.
func (r *Resolver) Product(id string) (DomainProduct, bool) {
	if id == "" {
		return DomainProduct{}, false
	}
	r.ensure()
	p, ok := r.products[id]
	return p, ok
}

// Len reports how many products the catalog holds.
func (r *Resolver) Len() int {
	r.ensure()
	return len(r.products)
}

// NormalizeAlias folds text to the key used for alias lookups: Unicode
// decomposition, combining marks removed, lowercased.
func NormalizeAlias(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, text)
	if err != nil {
		out = text
	}
	return strings.ToLower(strings.TrimSpace(out))
}
