package units

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Unit codes understood by the conversion table.
const (
	Count      = "szt"
	Gram       = "g"
	Kilogram   = "kg"
	Milliliter = "ml"
	Liter      = "l"
	Level      = "lvl"
)

// Default is the unit assumed when a record carries none.
const Default = Count

const idPrefix = "unit."

type pair struct {
	from, to string
}

var (
	thousand   = decimal.NewFromInt(1000)
	thousandth = decimal.New(1, -3)
)

// factors holds the linear scale for every registered ordered pair.
var factors = map[pair]decimal.Decimal{
	{Gram, Kilogram}:    thousandth,
	{Kilogram, Gram}:    thousand,
	{Milliliter, Liter}: thousandth,
	{Liter, Milliliter}: thousand,
}

// base maps a unit to the unit all quantities of its dimension are summed in.
var base = map[string]string{
	Kilogram: Gram,
	Liter:    Milliliter,
}

var synonyms = map[string]string{
	"pcs":         Count,
	"pc":          Count,
	"piece":       Count,
	"pieces":      Count,
	"szt":         Count,
	"szt.":        Count,
	"g":           Gram,
	"gram":        Gram,
	"grams":       Gram,
	"kg":          Kilogram,
	"kilogram":    Kilogram,
	"kilograms":   Kilogram,
	"ml":          Milliliter,
	"milliliter":  Milliliter,
	"millilitre":  Milliliter,
	"milliliters": Milliliter,
	"millilitres": Milliliter,
	"l":           Liter,
	"liter":       Liter,
	"litre":       Liter,
	"liters":      Liter,
	"litres":      Liter,
	"lvl":         Level,
}

// Canonical turns free text or a "unit.<code>" id into a unit code. Text that
// matches no synonym is returned trimmed and lowercased.
func Canonical(text string) string {
	v := strings.ToLower(strings.TrimSpace(text))
	v = strings.TrimPrefix(v, idPrefix)
	if code, ok := synonyms[v]; ok {
		return code
	}
	return v
}

// ID renders a unit code in the "unit.<code>" form used by recipes and the
// shopping list.
func ID(unit string) string {
	code := Canonical(unit)
	if code == "" {
		return ""
	}
	return idPrefix + code
}

// ConvertDecimal converts qty between two units. The boolean is false when the
// pair is not registered; callers must then keep the quantity in its own unit.
func ConvertDecimal(qty decimal.Decimal, from, to string) (decimal.Decimal, bool) {
	from, to = Canonical(from), Canonical(to)
	if from == to {
		return qty, true
	}
	factor, ok := factors[pair{from, to}]
	if !ok {
		return qty, false
	}
	return qty.Mul(factor), true
}

// Convert is the float64 form of ConvertDecimal.
func Convert(qty float64, from, to string) (float64, bool) {
	out, ok := ConvertDecimal(decimal.NewFromFloat(qty), from, to)
	if !ok {
		return qty, false
	}
	return out.InexactFloat64(), true
}

// BaseOf returns the base unit for unit.
func BaseOf(unit string) string {
	code := Canonical(unit)
	if b, ok := base[code]; ok {
		return b
	}
	return code
}

// ToBaseDecimal reduces qty to its base unit. It never fails: when the
// conversion is unresolved the input is returned unchanged.
func ToBaseDecimal(qty decimal.Decimal, unit string) (decimal.Decimal, string) {
	code := Canonical(unit)
	target := BaseOf(code)
	out, ok := ConvertDecimal(qty, code, target)
	if !ok {
		return qty, code
	}
	return out, target
}

// ToBase is the float64 form of ToBaseDecimal.
func ToBase(qty float64, unit string) (float64, string) {
	out, code := ToBaseDecimal(decimal.NewFromFloat(qty), unit)
	return out.InexactFloat64(), code
}

// Known reports whether unit names one of the supported unit codes.
func Known(unit string) bool {
	switch Canonical(unit) {
	case Count, Gram, Kilogram, Milliliter, Liter, Level:
		return true
	}
	return false
}
