package domain

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrCategoryNotFound            = errors.New("category not found")
	ErrCategoryAlreadyExists       = errors.New("category with this name already exists")
	ErrInvalidColor                = errors.New("color must be one of the palette colors")
	ErrPredefinedCategoryImmutable = errors.New("predefined categories cannot be renamed")
	ErrPredefinedCategoryDelete    = errors.New("predefined categories cannot be deleted")
	ErrReservedCategoryName        = errors.New("General is reserved for the whole-month budget")
)

// CategoriesStorageKey is the local storage key prefix of a user's category list.
const CategoriesStorageKey = "user-categories"

// Color is a palette tag. Display colors are resolved through Hex.
type Color string

const (
	ColorOrange Color = "orange"
	ColorBlue   Color = "blue"
	ColorRed    Color = "red"
	ColorPurple Color = "purple"
	ColorYellow Color = "yellow"
	ColorTeal   Color = "teal"
	ColorPink   Color = "pink"
	ColorGreen  Color = "green"
	ColorGray   Color = "gray"
)

// Palette lists the selectable colors in display order.
var Palette = []Color{
	ColorOrange, ColorBlue, ColorRed, ColorPurple, ColorYellow,
	ColorTeal, ColorPink, ColorGreen, ColorGray,
}

var paletteHex = map[Color]string{
	ColorOrange: "#F97316",
	ColorBlue:   "#3B82F6",
	ColorRed:    "#EF4444",
	ColorPurple: "#A855F7",
	ColorYellow: "#EAB308",
	ColorTeal:   "#14B8A6",
	ColorPink:   "#EC4899",
	ColorGreen:  "#22C55E",
	ColorGray:   "#6B7280",
}

// Valid reports whether c is a palette tag.
func (c Color) Valid() bool {
	_, ok := paletteHex[c]
	return ok
}

// Hex returns the display color, gray for unknown tags.
func (c Color) Hex() string {
	if hex, ok := paletteHex[c]; ok {
		return hex
	}
	return paletteHex[ColorGray]
}

type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Color        Color  `json:"color"`
	IsPredefined bool   `json:"isPredefined"`
}

// DefaultCategories returns a fresh copy of the predefined set.
func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "Comida", Color: ColorOrange, IsPredefined: true},
		{ID: "2", Name: "Transporte", Color: ColorBlue, IsPredefined: true},
		{ID: "3", Name: "Salud", Color: ColorRed, IsPredefined: true},
		{ID: "4", Name: "Ropa", Color: ColorPurple, IsPredefined: true},
		{ID: "5", Name: "Entretenimiento", Color: ColorYellow, IsPredefined: true},
		{ID: "6", Name: "Servicios", Color: ColorTeal, IsPredefined: true},
	}
}

// CategorySource tells where a loaded category list came from.
type CategorySource string

const (
	CategorySourceStored   CategorySource = "stored"
	CategorySourceDefaults CategorySource = "defaults"
)

// CategoryLoad is the result of decoding a stored category list.
type CategoryLoad struct {
	Categories []Category
	Source     CategorySource
	// Reason is set when the defaults were used because the stored value was rejected.
	Reason string
}

// storedCategory keeps fields optional so missing ones can be told apart from empty ones.
type storedCategory struct {
	ID           *string `json:"id"`
	Name         *string `json:"name"`
	Color        *string `json:"color"`
	IsPredefined bool    `json:"isPredefined"`
}

// DecodeCategories parses a stored category list. Any value that is not a
// non-empty JSON array of objects with id, name and color yields the defaults.
func DecodeCategories(raw string) CategoryLoad {
	fallback := func(reason string) CategoryLoad {
		return CategoryLoad{Categories: DefaultCategories(), Source: CategorySourceDefaults, Reason: reason}
	}

	if strings.TrimSpace(raw) == "" {
		return fallback("")
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return fallback("not a JSON array")
	}
	if len(items) == 0 {
		return fallback("empty list")
	}

	categories := make([]Category, 0, len(items))
	for _, item := range items {
		var sc storedCategory
		if err := json.Unmarshal(item, &sc); err != nil {
			return fallback("element is not an object")
		}
		if sc.ID == nil || sc.Name == nil || sc.Color == nil {
			return fallback("element missing id, name or color")
		}
		categories = append(categories, Category{
			ID:           *sc.ID,
			Name:         *sc.Name,
			Color:        Color(*sc.Color),
			IsPredefined: sc.IsPredefined,
		})
	}

	return CategoryLoad{Categories: categories, Source: CategorySourceStored}
}

// EncodeCategories serializes the full list for local storage.
func EncodeCategories(categories []Category) (string, error) {
	if categories == nil {
		categories = []Category{}
	}
	data, err := json.Marshal(categories)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CategoryKey folds a category name for matching. Expenses keep the spelling
// they were saved with, so lookups by name compare keys.
func CategoryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// FindCategory returns the category whose name matches name, ignoring case.
func FindCategory(categories []Category, name string) (Category, bool) {
	key := CategoryKey(name)
	for _, c := range categories {
		if CategoryKey(c.Name) == key {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryLabel returns the stored spelling of name, the name itself when the
// category is gone, or the uncategorized label when it is blank.
func CategoryLabel(categories []Category, name string) string {
	if c, ok := FindCategory(categories, name); ok {
		return c.Name
	}
	if strings.TrimSpace(name) == "" {
		return UncategorizedLabel
	}
	return strings.TrimSpace(name)
}

// ColorFor returns the display color of the named category, gray when unknown.
func ColorFor(categories []Category, name string) string {
	if c, ok := FindCategory(categories, name); ok {
		return c.Color.Hex()
	}
	return ColorGray.Hex()
}
