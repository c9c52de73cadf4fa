package shopping

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pantry/internal/logger"
	"pantry/internal/product"
	"pantry/internal/units"
)

// ApplyPurchases adds purchased items to the pantry. Quantities are converted
// into each product's own unit; items whose unit cannot be converted are
// returned as skipped and leave the stock untouched. Unknown products are
// created with pantry defaults.
func ApplyPurchases(products []product.Product, purchased []Item, r product.AliasResolver) ([]product.Product, []Item) {
	log := logger.WithModule("shopping")

	out := make([]product.Product, len(products))
	copy(out, products)
	index := make(map[string]int, len(out))
	for i, p := range out {
		for _, k := range []string{p.Name, p.Key(r)} {
			if _, taken := index[k]; !taken {
				index[k] = i
			}
		}
	}

	var skipped []Item
	for _, it := range purchased {
		qty := decimal.NewFromFloat(it.QuantityToBuy)
		unit := units.Canonical(it.UnitID)

		i, ok := index[it.ProductID]
		if !ok {
			out = append(out, newProduct(it.ProductID, qty, unit))
			index[it.ProductID] = len(out) - 1
			continue
		}

		p := &out[i]
		if p.IsSpice {
			level := product.LevelHigh
			p.Level = &level
			continue
		}
		converted, ok := units.ConvertDecimal(qty, unit, p.Unit)
		if !ok {
			log.WithFields(logrus.Fields{
				"product": it.ProductID,
				"from":    unit,
				"to":      p.Unit,
			}).Warn("cannot convert purchase into stock unit, skipping")
			skipped = append(skipped, it)
			continue
		}
		p.Quantity = decimal.NewFromFloat(p.Quantity).Add(converted).InexactFloat64()
	}
	return out, skipped
}

func newProduct(id string, qty decimal.Decimal, unit string) product.Product {
	if unit == "" {
		unit = units.Default
	}
	return product.Product{
		ID:          id,
		Name:        id,
		Quantity:    qty.InexactFloat64(),
		Unit:        unit,
		Category:    product.DefaultCategory,
		Storage:     product.DefaultStorage,
		Threshold:   1,
		Main:        true,
		PackageSize: 1,
		Tags:        []string{},
	}
}
