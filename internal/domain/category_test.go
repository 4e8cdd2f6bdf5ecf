package domain

import (
	"testing"
)

func TestDecodeCategories(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantSource CategorySource
		wantLen    int
	}{
		{
			name:       "empty storage",
			raw:        "",
			wantSource: CategorySourceDefaults,
			wantLen:    6,
		},
		{
			name:       "invalid json",
			raw:        "{not json",
			wantSource: CategorySourceDefaults,
			wantLen:    6,
		},
		{
			name:       "object instead of array",
			raw:        `{"id":"1","name":"Comida","color":"orange"}`,
			wantSource: CategorySourceDefaults,
			wantLen:    6,
		},
		{
			name:       "empty array",
			raw:        `[]`,
			wantSource: CategorySourceDefaults,
			wantLen:    6,
		},
		{
			name:       "element missing color",
			raw:        `[{"id":"1","name":"Comida"}]`,
			wantSource: CategorySourceDefaults,
			wantLen:    6,
		},
		{
			name:       "element is a string",
			raw:        `["Comida"]`,
			wantSource: CategorySourceDefaults,
			wantLen:    6,
		},
		{
			name:       "valid list",
			raw:        `[{"id":"1","name":"Comida","color":"orange","isPredefined":true},{"id":"x","name":"Mascotas","color":"pink","isPredefined":false}]`,
			wantSource: CategorySourceStored,
			wantLen:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeCategories(tt.raw)
			if got.Source != tt.wantSource {
				t.Errorf("Expected source %s, got %s", tt.wantSource, got.Source)
			}
			if len(got.Categories) != tt.wantLen {
				t.Errorf("Expected %d categories, got %d", tt.wantLen, len(got.Categories))
			}
		})
	}
}

func TestDecodeCategories_DefaultsArePredefined(t *testing.T) {
	got := DecodeCategories("")
	names := []string{"Comida", "Transporte", "Salud", "Ropa", "Entretenimiento", "Servicios"}
	for i, c := range got.Categories {
		if c.Name != names[i] {
			t.Errorf("Expected category %d to be %s, got %s", i, names[i], c.Name)
		}
		if !c.IsPredefined {
			t.Errorf("Expected %s to be predefined", c.Name)
		}
	}
}

func TestEncodeCategories_RoundTripKeepsOrder(t *testing.T) {
	in := []Category{
		{ID: "a", Name: "Mascotas", Color: ColorPink},
		{ID: "1", Name: "Comida", Color: ColorOrange, IsPredefined: true},
	}
	raw, err := EncodeCategories(in)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	got := DecodeCategories(raw)
	if got.Source != CategorySourceStored {
		t.Fatalf("Expected stored source, got %s", got.Source)
	}
	if got.Categories[0].Name != "Mascotas" || got.Categories[1].Name != "Comida" {
		t.Errorf("Expected order to be preserved, got %+v", got.Categories)
	}
	if !got.Categories[1].IsPredefined {
		t.Error("Expected isPredefined to survive encoding")
	}
}

func TestColorHex(t *testing.T) {
	if ColorOrange.Hex() != "#F97316" {
		t.Errorf("Expected orange hex, got %s", ColorOrange.Hex())
	}
	if Color("magenta").Hex() != ColorGray.Hex() {
		t.Error("Expected unknown color to fall back to gray")
	}
	if Color("magenta").Valid() {
		t.Error("Expected unknown color to be invalid")
	}
}

func TestColorFor(t *testing.T) {
	categories := DefaultCategories()
	if got := ColorFor(categories, "Salud"); got != ColorRed.Hex() {
		t.Errorf("Expected red for Salud, got %s", got)
	}
	if got := ColorFor(categories, "Borrada"); got != ColorGray.Hex() {
		t.Errorf("Expected gray for unknown category, got %s", got)
	}
	if got := ColorFor(categories, " salud "); got != ColorRed.Hex() {
		t.Errorf("Expected case and spaces to be ignored, got %s", got)
	}
}

func TestCategoryLabel(t *testing.T) {
	categories := DefaultCategories()
	tests := map[string]string{
		"comida":     "Comida",
		"TRANSPORTE": "Transporte",
		"Borrada":    "Borrada",
		"  ":         UncategorizedLabel,
	}
	for name, want := range tests {
		if got := CategoryLabel(categories, name); got != want {
			t.Errorf("CategoryLabel(%q) = %q, want %q", name, got, want)
		}
	}
}
