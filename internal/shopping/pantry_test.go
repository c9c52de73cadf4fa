package shopping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry/internal/catalog"
	"pantry/internal/product"
)

func find(t *testing.T, products []product.Product, name string) product.Product {
	t.Helper()
	for _, p := range products {
		if p.Name == name {
			return p
		}
	}
	require.FailNow(t, "product not found", name)
	return product.Product{}
}

func TestConfirmFlowUpdatesPantry(t *testing.T) {
	items := Generate(fixtureRecipes(), fixtureStock(), fixtureSelection, nil)
	items, _ = Mark(items, "prod.rice", true)
	items, _ = Mark(items, "prod.egg", true)

	purchased, remaining := Split(items)
	updated, skipped := ApplyPurchases(fixtureStock(), purchased, nil)

	assert.Empty(t, skipped)
	assert.Equal(t, 600.0, find(t, updated, "prod.rice").Quantity)
	assert.Equal(t, 4.0, find(t, updated, "prod.egg").Quantity)
	assert.Equal(t, 500.0, find(t, updated, "prod.water").Quantity)

	require.Len(t, remaining, 1)
	assert.Equal(t, "prod.water", remaining[0].ProductID)
}

func TestApplyPurchasesConvertsIntoStockUnit(t *testing.T) {
	stock := []product.Product{{Name: "mąka", Quantity: 1, Unit: "kg"}}

	updated, skipped := ApplyPurchases(stock, []Item{{ProductID: "mąka", UnitID: "unit.g", QuantityToBuy: 250}}, nil)
	assert.Empty(t, skipped)
	assert.Equal(t, 1.25, updated[0].Quantity)
	assert.Equal(t, 1.0, stock[0].Quantity)
}

func TestApplyPurchasesSkipsUnconvertible(t *testing.T) {
	stock := []product.Product{{Name: "jajka", Quantity: 2, Unit: "szt"}}
	item := Item{ProductID: "jajka", UnitID: "unit.g", QuantityToBuy: 100}

	updated, skipped := ApplyPurchases(stock, []Item{item}, nil)
	assert.Equal(t, []Item{item}, skipped)
	assert.Equal(t, 2.0, updated[0].Quantity)
}

func TestApplyPurchasesCreatesMissingProducts(t *testing.T) {
	updated, skipped := ApplyPurchases(nil, []Item{
		{ProductID: "prod.milk", UnitID: "unit.ml", QuantityToBuy: 500},
		{ProductID: "prod.milk", UnitID: "unit.ml", QuantityToBuy: 250},
	}, nil)

	assert.Empty(t, skipped)
	require.Len(t, updated, 1)
	milk := updated[0]
	assert.Equal(t, "prod.milk", milk.ID)
	assert.Equal(t, "prod.milk", milk.Name)
	assert.Equal(t, 750.0, milk.Quantity)
	assert.Equal(t, "ml", milk.Unit)
	assert.Equal(t, product.DefaultCategory, milk.Category)
	assert.Equal(t, product.DefaultStorage, milk.Storage)
	assert.Equal(t, 1.0, milk.Threshold)
	assert.True(t, milk.Main)
}

func TestApplyPurchasesMatchesByCatalogID(t *testing.T) {
	r := catalog.FromDomain(catalog.Domain{Products: []catalog.DomainProduct{
		{ID: "prod.rice", Names: map[string]string{"pl": "Ryż"}, Aliases: []string{"ryż"}},
	}})
	stock := []product.Product{{Name: "Ryż", Quantity: 100, Unit: "g"}}

	items := Generate(fixtureRecipes(), stock, []Selection{{ID: "recipe.a", Servings: 2}}, r)
	require.Len(t, items, 1)
	assert.Equal(t, "prod.water", items[0].ProductID)

	updated, _ := ApplyPurchases(stock, []Item{{ProductID: "prod.rice", UnitID: "unit.g", QuantityToBuy: 50}}, r)
	require.Len(t, updated, 1)
	assert.Equal(t, 150.0, updated[0].Quantity)
}

func TestApplyPurchasesRefillsSpices(t *testing.T) {
	none := product.LevelNone
	stock := []product.Product{{Name: "pieprz", Unit: "lvl", IsSpice: true, Level: &none}}

	updated, _ := ApplyPurchases(stock, []Item{{ProductID: "pieprz", UnitID: "unit.lvl", QuantityToBuy: 1}}, nil)
	require.NotNil(t, updated[0].Level)
	assert.Equal(t, product.LevelHigh, *updated[0].Level)
	assert.Equal(t, 0.0, updated[0].Quantity)
	assert.Equal(t, product.LevelNone, *stock[0].Level)
}
