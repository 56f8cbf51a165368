package models

import (
	"time"

	"github.com/google/uuid"
)

// Report is a citizen-submitted problem record pinned to a coordinate.
type Report struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Description  string    `json:"description" gorm:"type:varchar(1000);not null"`
	CategoryID   string    `json:"category_id" gorm:"not null;index"`
	Severity     int       `json:"severity" gorm:"not null;default:2"`
	ImageURL     *string   `json:"image_url"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	Latitude     float64   `json:"latitude" gorm:"not null"`
	Longitude    float64   `json:"longitude" gorm:"not null"`
	UserID       uint      `json:"user_id" gorm:"not null;index"`
	UserFullname string    `json:"fullname"`
	Supporters   int       `json:"supporters" gorm:"default:1"`
	Address      string    `json:"address"`
	District     string    `json:"district"`
	City         string    `json:"city"`
}

// Support records that a user has backed a report. One row per
// (report, user) pair; the creator's row is written at report creation.
type Support struct {
	Model
	ReportID uuid.UUID `json:"report_id" gorm:"type:uuid;not null;uniqueIndex:idx_report_user"`
	UserID   uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_report_user"`
}

// CreateReportRequest carries the authoring form fields. Latitude and
// longitude arrive as strings because the form is multipart.
type CreateReportRequest struct {
	Description string   `json:"description" conform:"trim"`
	CategoryID  string   `json:"category_id" conform:"trim"`
	Severity    int      `json:"severity"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// FieldErrors maps form field name to a message. Validation records every
// missing field so the client can render all of them at once.
type FieldErrors map[string]string

func (fe FieldErrors) Any() bool { return len(fe) > 0 }

// Validate checks the required authoring fields. Severity zero means the
// client sent none and the default applies.
func (r *CreateReportRequest) Validate() FieldErrors {
	errs := FieldErrors{}
	if r.Description == "" {
		errs["description"] = "la descripción es obligatoria"
	}
	if r.CategoryID == "" {
		errs["category"] = "selecciona una categoría"
	} else if !IsValidCategory(r.CategoryID) {
		errs["category"] = "categoría desconocida"
	}
	if r.Latitude == nil || r.Longitude == nil {
		errs["location"] = "selecciona la ubicación del problema"
	}
	if r.Severity == 0 {
		r.Severity = SeverityMedium
	}
	if !IsValidSeverity(r.Severity) {
		errs["severity"] = "la gravedad debe estar entre 1 y 4"
	}
	return errs
}

// ReportResponse is the list/detail projection sent to clients.
type ReportResponse struct {
	Report
	CategoryName  string `json:"category_name,omitempty"`
	SeverityLabel string `json:"severity_label"`
	SeverityColor string `json:"severity_color"`
	Supported     bool   `json:"supported"`
	CanEdit       bool   `json:"can_edit"`
}

// NewReportResponse decorates a report with registry lookups. An unknown
// category leaves CategoryName empty rather than failing.
func NewReportResponse(r Report, currentUserID uint, supported bool) ReportResponse {
	resp := ReportResponse{
		Report:        r,
		SeverityLabel: SeverityLabel(r.Severity),
		SeverityColor: SeverityColor(r.Severity),
		Supported:     supported,
		CanEdit:       currentUserID != 0 && currentUserID == r.UserID,
	}
	if cat, ok := CategoryByID(r.CategoryID); ok {
		resp.CategoryName = cat.Name
	}
	return resp
}

// CategoryReportCount is the per-category aggregate for the dashboard.
type CategoryReportCount struct {
	CategoryID  string `json:"category_id"`
	ReportCount int    `json:"report_count"`
}

// CategoryStat is a CategoryReportCount joined with registry metadata.
type CategoryStat struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Color        string `json:"color"`
	ReportCount  int    `json:"report_count"`
}

// DashboardStats is the aggregate block for the public dashboard.
type DashboardStats struct {
	TotalReports int64          `json:"total_reports"`
	TodayReports int64          `json:"today_reports"`
	ByCategory   []CategoryStat `json:"by_category"`
}

// LocationDetail is the reverse-geocoded context for a coordinate.
type LocationDetail struct {
	District string `json:"district"`
	City     string `json:"city"`
	Address  string `json:"address"`
}
