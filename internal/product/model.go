package product

// Level is the fill level tracked for spices instead of a numeric quantity.
type Level string

const (
	LevelNone   Level = "none"
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Valid reports whether l is one of the four known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelNone, LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

// Default values used when a record omits a field.
const (
	DefaultName     = "Unknown"
	DefaultCategory = "uncategorized"
	DefaultStorage  = "pantry"
	SpiceCategory   = "spices"
)

// Product is a stocked or stockable pantry item.
type Product struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Quantity    float64  `json:"quantity"`
	Unit        string   `json:"unit"`
	Category    string   `json:"category"`
	Storage     string   `json:"storage"`
	Threshold   float64  `json:"threshold"`
	Main        bool     `json:"main"`
	PackageSize float64  `json:"package_size"`
	PackSize    *float64 `json:"pack_size"`
	Tags        []string `json:"tags"`
	Level       *Level   `json:"level"`
	IsSpice     bool     `json:"is_spice"`
}

// AliasResolver maps free text to a catalog product id.
type AliasResolver interface {
	ResolveAlias(text string) (string, bool)
}

// Key returns the identity used to match stock against recipe demand: the
// catalog id when the product carries or resolves to one, else its name.
func (p Product) Key(r AliasResolver) string {
	if p.ID != "" {
		return p.ID
	}
	if r != nil {
		if id, ok := r.ResolveAlias(p.Name); ok {
			return id
		}
	}
	return p.Name
}

// Record renders p as an untyped record accepted by Normalizer.Normalize.
func (p Product) Record() map[string]any {
	rec := map[string]any{
		"name":         p.Name,
		"quantity":     p.Quantity,
		"unit":         p.Unit,
		"category":     p.Category,
		"storage":      p.Storage,
		"threshold":    p.Threshold,
		"main":         p.Main,
		"package_size": p.PackageSize,
		"pack_size":    nil,
		"level":        nil,
		"is_spice":     p.IsSpice,
	}
	if p.ID != "" {
		rec["id"] = p.ID
	}
	if p.PackSize != nil {
		rec["pack_size"] = *p.PackSize
	}
	if p.Level != nil {
		rec["level"] = string(*p.Level)
	}
	tags := make([]any, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, t)
	}
	rec["tags"] = tags
	return rec
}

// Records renders a product list for storage.
func Records(products []Product) []map[string]any {
	out := make([]map[string]any, 0, len(products))
	for _, p := range products {
		out = append(out, p.Record())
	}
	return out
}
