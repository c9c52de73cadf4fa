// Package shopping derives shopping lists from recipe selections and applies
// purchased items back to the pantry.
package shopping

import (
	"github.com/shopspring/decimal"

	"pantry/internal/product"
	"pantry/internal/recipe"
	"pantry/internal/units"
)

// Item is one deficit on the shopping list, expressed in its base unit.
type Item struct {
	ProductID     string  `json:"productId"`
	UnitID        string  `json:"unitId"`
	QuantityToBuy float64 `json:"quantity_to_buy"`
	Optional      bool    `json:"optional"`
	InCart        bool    `json:"in_cart"`
}

// Selection asks for a recipe cooked for the given number of servings.
type Selection struct {
	ID       string  `json:"id" binding:"required"`
	Servings float64 `json:"servings"`
}

// demandPlaces bounds the precision of scaled demand so that repeating
// fractions such as thirds cancel against whole pantry quantities.
const demandPlaces = 9

type key struct {
	product string
	unit    string
}

type demand struct {
	qty       decimal.Decimal
	mandatory bool
}

// Generate aggregates the ingredient demand of the selected recipes, subtracts
// the pantry stock and returns the positive deficits in first-seen order.
// Selections naming unknown recipes are ignored.
func Generate(recipes []recipe.Recipe, stock []product.Product, selections []Selection, r product.AliasResolver) []Item {
	byID := make(map[string]recipe.Recipe, len(recipes))
	for _, rec := range recipes {
		if _, ok := byID[rec.ID]; !ok {
			byID[rec.ID] = rec
		}
	}

	var order []key
	need := make(map[key]*demand)
	for _, sel := range selections {
		rec, ok := byID[sel.ID]
		if !ok || sel.Servings <= 0 {
			continue
		}
		servings := decimal.NewFromFloat(sel.Servings)
		portions := decimal.NewFromFloat(rec.Portions)
		if !portions.IsPositive() {
			portions = decimal.NewFromInt(1)
		}

		for _, ing := range rec.Ingredients {
			if ing.Unresolved || ing.ProductID == "" || ing.UnitID == "" || ing.Qty <= 0 {
				continue
			}
			scaled := decimal.NewFromFloat(ing.Qty).Mul(servings).Div(portions)
			qty, unit := units.ToBaseDecimal(scaled, ing.UnitID)
			k := key{product: ing.ProductID, unit: unit}
			d, seen := need[k]
			if !seen {
				d = &demand{qty: decimal.Zero}
				need[k] = d
				order = append(order, k)
			}
			d.qty = d.qty.Add(qty)
			if !ing.Optional {
				d.mandatory = true
			}
		}
	}

	have := make(map[key]decimal.Decimal, len(stock))
	for _, p := range stock {
		qty, unit := units.ToBaseDecimal(decimal.NewFromFloat(p.Quantity), p.Unit)
		k := key{product: p.Key(r), unit: unit}
		have[k] = have[k].Add(qty)
	}

	items := make([]Item, 0, len(order))
	for _, k := range order {
		d := need[k]
		remaining := decimal.Max(d.qty.Round(demandPlaces).Sub(have[k]), decimal.Zero)
		if !remaining.IsPositive() {
			continue
		}
		items = append(items, Item{
			ProductID:     k.product,
			UnitID:        units.ID(k.unit),
			QuantityToBuy: remaining.InexactFloat64(),
			Optional:      !d.mandatory,
		})
	}
	return items
}

// Mark sets the in-cart flag of every item for productID. It reports whether
// any item matched.
func Mark(items []Item, productID string, inCart bool) ([]Item, bool) {
	out := make([]Item, len(items))
	copy(out, items)
	found := false
	for i := range out {
		if out[i].ProductID == productID {
			out[i].InCart = inCart
			found = true
		}
	}
	return out, found
}

// Split separates the items in the cart from the rest.
func Split(items []Item) (purchased, remaining []Item) {
	purchased, remaining = []Item{}, []Item{}
	for _, it := range items {
		if it.InCart {
			purchased = append(purchased, it)
		} else {
			remaining = append(remaining, it)
		}
	}
	return purchased, remaining
}
