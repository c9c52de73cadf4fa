package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// FindConflicts returns every normalized alias claimed by more than one
// product, mapped to the sorted ids claiming it.
func FindConflicts(products []DomainProduct) map[string][]string {
	owners := make(map[string]map[string]struct{})
	for _, p := range products {
		for _, alias := range p.Aliases {
			key := NormalizeAlias(alias)
			if key == "" {
				continue
			}
			if owners[key] == nil {
				owners[key] = make(map[string]struct{})
			}
			owners[key][p.ID] = struct{}{}
		}
	}

	conflicts := make(map[string][]string)
	for alias, ids := range owners {
		if len(ids) < 2 {
			continue
		}
		list := make([]string, 0, len(ids))
		for id := range ids {
			list = append(list, id)
		}
		sort.Strings(list)
		conflicts[alias] = list
	}
	return conflicts
}

// Check cross-validates the domain dataset and the raw recipes referencing
// it. The returned messages are empty when the data is consistent.
func Check(d Domain, recipes []map[string]any) []string {
	var problems []string

	categories := make(map[string]bool, len(d.Categories))
	for _, c := range d.Categories {
		categories[c.ID] = true
	}
	unitIDs := make(map[string]bool, len(d.Units))
	for _, u := range d.Units {
		unitIDs[u.ID] = true
	}

	ids := make(map[string]bool, len(d.Products))
	aliasOwner := make(map[string]string)
	for idx, p := range d.Products {
		var missing []string
		if p.ID == "" {
			missing = append(missing, "id")
		}
		if p.Names["pl"] == "" {
			missing = append(missing, "names.pl")
		}
		if p.Names["en"] == "" {
			missing = append(missing, "names.en")
		}
		if p.CategoryID == "" {
			missing = append(missing, "categoryId")
		}
		if p.UnitID == "" {
			missing = append(missing, "unitId")
		}
		if len(missing) > 0 {
			problems = append(problems, fmt.Sprintf("product[%d]: missing %s", idx, strings.Join(missing, ", ")))
			continue
		}

		if ids[p.ID] {
			problems = append(problems, fmt.Sprintf("duplicate product id: %s", p.ID))
		}
		ids[p.ID] = true

		if !categories[p.CategoryID] {
			problems = append(problems, fmt.Sprintf("product %s: unknown categoryId %s", p.ID, p.CategoryID))
		}
		if !unitIDs[p.UnitID] {
			problems = append(problems, fmt.Sprintf("product %s: unknown unitId %s", p.ID, p.UnitID))
		}

		for _, alias := range p.Aliases {
			key := NormalizeAlias(alias)
			if owner, ok := aliasOwner[key]; ok && owner != p.ID {
				problems = append(problems, fmt.Sprintf("alias '%s' for %s duplicates alias for %s", alias, p.ID, owner))
				continue
			}
			aliasOwner[key] = p.ID
		}
	}

	for r, recipe := range recipes {
		ingredients, _ := recipe["ingredients"].([]any)
		for i, raw := range ingredients {
			ing, ok := raw.(map[string]any)
			if !ok {
				problems = append(problems, fmt.Sprintf("recipe[%d] ingredient[%d]: not an object", r, i))
				continue
			}
			if id, _ := ing["productId"].(string); id != "" && !ids[id] {
				problems = append(problems, fmt.Sprintf("recipe[%d] ingredient[%d]: unknown productId %s", r, i, id))
			}
			if id, _ := ing["unitId"].(string); id != "" && !unitIDs[id] {
				problems = append(problems, fmt.Sprintf("recipe[%d] ingredient[%d]: unknown unitId %s", r, i, id))
			}
			if id, _ := ing["categoryId"].(string); id != "" && !categories[id] {
				problems = append(problems, fmt.Sprintf("recipe[%d] ingredient[%d]: unknown categoryId %s", r, i, id))
			}
		}
		tags, _ := recipe["tags"].([]any)
		for t, tag := range tags {
			if _, ok := tag.(string); !ok {
				problems = append(problems, fmt.Sprintf("recipe[%d] tag[%d] not a string", r, t))
			}
		}
	}

	return problems
}
