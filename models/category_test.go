package models

import "testing"

func TestCategoryByID(t *testing.T) {
	tests := []struct {
		id       string
		wantName string
		wantOK   bool
	}{
		{"potholes", "Pistas con huecos", true},
		{"garbage", "Basura acumulada", true},
		{"unstable-poles", "Postes en mal estado", true},
		{"swimming-pools", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		cat, ok := CategoryByID(tc.id)
		if ok != tc.wantOK {
			t.Errorf("CategoryByID(%q) ok = %v, want %v", tc.id, ok, tc.wantOK)
		}
		if cat.Name != tc.wantName {
			t.Errorf("CategoryByID(%q) name = %q, want %q", tc.id, cat.Name, tc.wantName)
		}
	}
}

func TestRegistryHasUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range Categories {
		if seen[c.ID] {
			t.Errorf("duplicate category id %q", c.ID)
		}
		seen[c.ID] = true
		if c.Name == "" || c.Color == "" {
			t.Errorf("category %q missing name or color", c.ID)
		}
	}
	if len(Categories) != 6 {
		t.Errorf("registry has %d categories, want 6", len(Categories))
	}
}

func TestSeverityLabels(t *testing.T) {
	tests := []struct {
		severity  int
		wantLabel string
		wantColor string
	}{
		{SeverityLow, "Baja", "green"},
		{SeverityMedium, "Media", "yellow"},
		{SeverityHigh, "Alta", "orange"},
		{SeverityCritical, "Urgente", "red"},
		{0, "No especificada", "blue"},
		{9, "No especificada", "blue"},
	}
	for _, tc := range tests {
		if got := SeverityLabel(tc.severity); got != tc.wantLabel {
			t.Errorf("SeverityLabel(%d) = %q, want %q", tc.severity, got, tc.wantLabel)
		}
		if got := SeverityColor(tc.severity); got != tc.wantColor {
			t.Errorf("SeverityColor(%d) = %q, want %q", tc.severity, got, tc.wantColor)
		}
	}
}

func TestIsValidSeverity(t *testing.T) {
	for sev := 1; sev <= 4; sev++ {
		if !IsValidSeverity(sev) {
			t.Errorf("severity %d should be valid", sev)
		}
	}
	for _, sev := range []int{0, -1, 5, 100} {
		if IsValidSeverity(sev) {
			t.Errorf("severity %d should be invalid", sev)
		}
	}
}
