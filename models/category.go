package models

// Category is a static problem type. The registry is compiled into the
// binary and never mutated at runtime; the seeded `categories` table exists
// only so report rows have a foreign key to join against.
type Category struct {
	ID    string `json:"id" gorm:"primaryKey"`
	Name  string `json:"name" gorm:"not null"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var Categories = []Category{
	{ID: "broken-sidewalks", Name: "Veredas rotas", Icon: "map", Color: "yellow"},
	{ID: "potholes", Name: "Pistas con huecos", Icon: "alert-triangle", Color: "orange"},
	{ID: "garbage", Name: "Basura acumulada", Icon: "trash", Color: "green"},
	{ID: "unstable-walls", Name: "Paredes inestables", Icon: "building", Color: "red"},
	{ID: "no-lights", Name: "Calles sin luz", Icon: "lightbulb", Color: "purple"},
	{ID: "unstable-poles", Name: "Postes en mal estado", Icon: "power", Color: "blue"},
}

// CategoryByID looks up a category. Unknown ids return ok=false; callers
// omit category-specific rendering rather than fail.
func CategoryByID(id string) (Category, bool) {
	for _, c := range Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// IsValidCategory reports whether id names a registered category.
func IsValidCategory(id string) bool {
	_, ok := CategoryByID(id)
	return ok
}

const (
	SeverityLow      = 1
	SeverityMedium   = 2
	SeverityHigh     = 3
	SeverityCritical = 4
)

// SeverityLabel returns the display label for a 1-4 severity.
func SeverityLabel(severity int) string {
	switch severity {
	case SeverityLow:
		return "Baja"
	case SeverityMedium:
		return "Media"
	case SeverityHigh:
		return "Alta"
	case SeverityCritical:
		return "Urgente"
	default:
		return "No especificada"
	}
}

// SeverityColor returns the color token for a 1-4 severity.
func SeverityColor(severity int) string {
	switch severity {
	case SeverityLow:
		return "green"
	case SeverityMedium:
		return "yellow"
	case SeverityHigh:
		return "orange"
	case SeverityCritical:
		return "red"
	default:
		return "blue"
	}
}

// IsValidSeverity reports whether severity is within the 1-4 scale.
func IsValidSeverity(severity int) bool {
	return severity >= SeverityLow && severity <= SeverityCritical
}
