package product

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"pantry/internal/catalog"
	"pantry/internal/logger"
)

// Legacy is the flat product shape served to older clients.
type Legacy struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	NamePL      string   `json:"name_pl"`
	NameEN      string   `json:"name_en"`
	Category    string   `json:"category"`
	Unit        string   `json:"unit"`
	Quantity    float64  `json:"quantity"`
	Threshold   float64  `json:"threshold"`
	Storage     string   `json:"storage"`
	Main        bool     `json:"main"`
	PackageSize float64  `json:"package_size"`
	PackSize    *float64 `json:"pack_size"`
	Level       *Level   `json:"level"`
	IsSpice     bool     `json:"is_spice"`
	Aliases     []string `json:"aliases"`
	Tags        []string `json:"tags"`
}

// LegacyView flattens the domain products. Products referencing a category
// or unit missing from the dataset are left out.
func LegacyView(d catalog.Domain) []Legacy {
	log := logger.WithModule("product")

	categories := make(map[string]bool, len(d.Categories))
	for _, c := range d.Categories {
		categories[c.ID] = true
	}
	unitIDs := make(map[string]bool, len(d.Units))
	for _, u := range d.Units {
		unitIDs[u.ID] = true
	}

	out := make([]Legacy, 0, len(d.Products))
	for _, p := range d.Products {
		if !categories[p.CategoryID] {
			log.WithFields(logrus.Fields{"product": p.ID, "category": p.CategoryID}).
				Warn("product references missing category")
			continue
		}
		if !unitIDs[p.UnitID] {
			log.WithFields(logrus.Fields{"product": p.ID, "unit": p.UnitID}).
				Warn("product references missing unit")
			continue
		}

		category := strings.ReplaceAll(strings.TrimPrefix(p.CategoryID, "category."), "-", "_")
		name := p.ID
		if len(p.Aliases) > 0 {
			name = p.Aliases[0]
		}
		aliases := p.Aliases
		if aliases == nil {
			aliases = []string{}
		}

		item := Legacy{
			ID:          p.ID,
			Name:        name,
			NamePL:      p.Names["pl"],
			NameEN:      p.Names["en"],
			Category:    category,
			Unit:        strings.TrimPrefix(p.UnitID, "unit."),
			Storage:     DefaultStorage,
			Main:        true,
			PackageSize: 1,
			IsSpice:     category == SpiceCategory,
			Aliases:     aliases,
			Tags:        []string{},
		}
		if item.IsSpice {
			level := LevelNone
			item.Level = &level
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].NamePL) < strings.ToLower(out[j].NamePL)
	})
	return out
}
