package models

import (
	"testing"

	"github.com/google/uuid"
)

func floatPtr(v float64) *float64 { return &v }

func TestCreateReportRequestValidateReportsAllMissingFields(t *testing.T) {
	request := &CreateReportRequest{}
	errs := request.Validate()

	for _, field := range []string{"description", "category", "location"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("missing %s was not reported; errors: %v", field, errs)
		}
	}
	if len(errs) != 3 {
		t.Errorf("expected 3 simultaneous field errors, got %d: %v", len(errs), errs)
	}
}

func TestCreateReportRequestValidateSeverityDefaults(t *testing.T) {
	request := &CreateReportRequest{
		Description: "hueco enorme en la esquina",
		CategoryID:  "potholes",
		Latitude:    floatPtr(-12.05),
		Longitude:   floatPtr(-77.04),
	}
	errs := request.Validate()
	if errs.Any() {
		t.Fatalf("unexpected field errors: %v", errs)
	}
	if request.Severity != SeverityMedium {
		t.Errorf("severity defaulted to %d, want %d", request.Severity, SeverityMedium)
	}
}

func TestCreateReportRequestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name      string
		request   CreateReportRequest
		wantField string
	}{
		{
			name: "unknown category",
			request: CreateReportRequest{
				Description: "x", CategoryID: "volcanoes",
				Latitude: floatPtr(1), Longitude: floatPtr(1),
			},
			wantField: "category",
		},
		{
			name: "severity out of range",
			request: CreateReportRequest{
				Description: "x", CategoryID: "garbage", Severity: 7,
				Latitude: floatPtr(1), Longitude: floatPtr(1),
			},
			wantField: "severity",
		},
		{
			name: "missing longitude",
			request: CreateReportRequest{
				Description: "x", CategoryID: "garbage",
				Latitude: floatPtr(1),
			},
			wantField: "location",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			errs := tc.request.Validate()
			if _, ok := errs[tc.wantField]; !ok {
				t.Errorf("expected error on %q, got %v", tc.wantField, errs)
			}
		})
	}
}

func TestNewReportResponse(t *testing.T) {
	r := Report{
		ID:         uuid.New(),
		CategoryID: "no-lights",
		Severity:   SeverityCritical,
		UserID:     42,
	}

	resp := NewReportResponse(r, 42, true)
	if resp.CategoryName != "Calles sin luz" {
		t.Errorf("category name = %q", resp.CategoryName)
	}
	if resp.SeverityLabel != "Urgente" || resp.SeverityColor != "red" {
		t.Errorf("severity decoration = %q/%q", resp.SeverityLabel, resp.SeverityColor)
	}
	if !resp.CanEdit {
		t.Error("creator should be able to edit")
	}
	if !resp.Supported {
		t.Error("supported flag was dropped")
	}

	other := NewReportResponse(r, 7, false)
	if other.CanEdit {
		t.Error("non-creator must not be able to edit")
	}

	anon := NewReportResponse(r, 0, false)
	if anon.CanEdit {
		t.Error("anonymous caller must not be able to edit")
	}
}

func TestNewReportResponseUnknownCategoryDegrades(t *testing.T) {
	r := Report{ID: uuid.New(), CategoryID: "retired-category", Severity: SeverityLow}
	resp := NewReportResponse(r, 0, false)
	if resp.CategoryName != "" {
		t.Errorf("unknown category produced name %q, want empty", resp.CategoryName)
	}
	if resp.SeverityLabel != "Baja" {
		t.Errorf("severity label = %q", resp.SeverityLabel)
	}
}
