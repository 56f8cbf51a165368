package services

import (
	"context"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kuidando/kuidando/db"
	apiError "github.com/kuidando/kuidando/errors"
	"github.com/kuidando/kuidando/models"
	"gorm.io/gorm"
)

// Broadcaster pushes report change events to connected live-map clients.
// The websocket hub implements it; a nil broadcaster disables the feed.
type Broadcaster interface {
	ReportCreated(report models.ReportResponse)
	ReportUpdated(report models.ReportResponse)
	ReportDeleted(reportID uuid.UUID)
	ReportSupported(reportID uuid.UUID, supporters int)
}

// ReportService handles report authoring, listing and support.
type ReportService interface {
	CreateReport(ctx context.Context, request *models.CreateReportRequest, photo *multipart.FileHeader, user *models.User) (*models.ReportResponse, models.FieldErrors, *apiError.Error)
	GetReport(id uuid.UUID, currentUserID uint) (*models.ReportResponse, *apiError.Error)
	ListReports(page, pageSize int, currentUserID uint) ([]models.ReportResponse, *apiError.Error)
	ListReportsByCategory(categoryID string, page, pageSize int, currentUserID uint) ([]models.ReportResponse, *apiError.Error)
	ListMyReports(userID uint) ([]models.ReportResponse, *apiError.Error)
	UpdateReport(ctx context.Context, id uuid.UUID, request *models.CreateReportRequest, photo *multipart.FileHeader, user *models.User) (*models.ReportResponse, models.FieldErrors, *apiError.Error)
	DeleteReport(id uuid.UUID, userID uint) *apiError.Error
	SupportReport(reportID uuid.UUID, userID uint) (int, *apiError.Error)
	GetDashboardStats() (*models.DashboardStats, *apiError.Error)
}

type reportService struct {
	reportRepo db.ReportRepository
	media      MediaService
	geocoder   Geocoder
	feed       Broadcaster
}

// NewReportService instantiates a report service. geocoder and feed may be
// nil; both are best-effort collaborators.
func NewReportService(reportRepo db.ReportRepository, media MediaService, geocoder Geocoder, feed Broadcaster) ReportService {
	return &reportService{
		reportRepo: reportRepo,
		media:      media,
		geocoder:   geocoder,
		feed:       feed,
	}
}

// CreateReport validates the form, uploads the optional photo, reverse
// geocodes the coordinate and persists the report together with the
// creator's support row. Field errors are returned all at once so the
// client can render every problem in a single pass.
func (s *reportService) CreateReport(ctx context.Context, request *models.CreateReportRequest, photo *multipart.FileHeader, user *models.User) (*models.ReportResponse, models.FieldErrors, *apiError.Error) {
	if user == nil || user.ID == 0 {
		return nil, nil, apiError.ErrUnauthorized
	}

	fieldErrs := request.Validate()
	if photo != nil {
		if err := ValidatePhoto(photo); err != nil {
			fieldErrs["photo"] = err.Error()
		}
	}
	if fieldErrs.Any() {
		return nil, fieldErrs, nil
	}

	report := &models.Report{
		ID:           uuid.New(),
		Description:  request.Description,
		CategoryID:   request.CategoryID,
		Severity:     request.Severity,
		Latitude:     *request.Latitude,
		Longitude:    *request.Longitude,
		UserID:       user.ID,
		UserFullname: user.Fullname,
	}

	if photo != nil {
		imageURL, thumbURL, err := s.media.UploadReportImage(ctx, photo, report.ID.String())
		if err != nil {
			log.Printf("photo upload failed: %v", err)
			return nil, nil, apiError.New("no se pudo subir la foto", http.StatusInternalServerError)
		}
		report.ImageURL = &imageURL
		report.ThumbnailURL = &thumbURL
	}

	s.attachLocation(ctx, report)

	if err := s.reportRepo.CreateReportWithSupport(report); err != nil {
		log.Printf("create report failed: %v", err)
		return nil, nil, apiError.ErrInternalServerError
	}

	resp := models.NewReportResponse(*report, user.ID, true)
	if s.feed != nil {
		s.feed.ReportCreated(resp)
	}
	return &resp, nil, nil
}

func (s *reportService) GetReport(id uuid.UUID, currentUserID uint) (*models.ReportResponse, *apiError.Error) {
	report, err := s.reportRepo.GetReportByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apiError.ErrNotFound
		}
		log.Printf("get report failed: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	supported := false
	if currentUserID != 0 {
		supported, err = s.reportRepo.HasSupported(id, currentUserID)
		if err != nil {
			log.Printf("support lookup failed: %v", err)
		}
	}
	resp := models.NewReportResponse(*report, currentUserID, supported)
	return &resp, nil
}

func (s *reportService) ListReports(page, pageSize int, currentUserID uint) ([]models.ReportResponse, *apiError.Error) {
	reports, err := s.reportRepo.ListReports(page, pageSize)
	if err != nil {
		log.Printf("list reports failed: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return s.decorate(reports, currentUserID), nil
}

func (s *reportService) ListReportsByCategory(categoryID string, page, pageSize int, currentUserID uint) ([]models.ReportResponse, *apiError.Error) {
	if !models.IsValidCategory(categoryID) {
		return nil, apiError.New("categoría desconocida", http.StatusBadRequest)
	}
	reports, err := s.reportRepo.ListReportsByCategory(categoryID, page, pageSize)
	if err != nil {
		log.Printf("list reports by category failed: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return s.decorate(reports, currentUserID), nil
}

func (s *reportService) ListMyReports(userID uint) ([]models.ReportResponse, *apiError.Error) {
	if userID == 0 {
		return nil, apiError.ErrUnauthorized
	}
	reports, err := s.reportRepo.ListReportsByUser(userID)
	if err != nil {
		log.Printf("list my reports failed: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return s.decorate(reports, userID), nil
}

// UpdateReport reapplies the authoring validation and lets the repository's
// WHERE clause enforce that only the creator can edit.
func (s *reportService) UpdateReport(ctx context.Context, id uuid.UUID, request *models.CreateReportRequest, photo *multipart.FileHeader, user *models.User) (*models.ReportResponse, models.FieldErrors, *apiError.Error) {
	if user == nil || user.ID == 0 {
		return nil, nil, apiError.ErrUnauthorized
	}

	existing, err := s.reportRepo.GetReportByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, apiError.ErrNotFound
		}
		log.Printf("get report failed: %v", err)
		return nil, nil, apiError.ErrInternalServerError
	}
	if existing.UserID != user.ID {
		return nil, nil, apiError.New("solo el autor puede editar este reporte", http.StatusForbidden)
	}

	fieldErrs := request.Validate()
	if photo != nil {
		if err := ValidatePhoto(photo); err != nil {
			fieldErrs["photo"] = err.Error()
		}
	}
	if fieldErrs.Any() {
		return nil, fieldErrs, nil
	}

	existing.Description = request.Description
	existing.CategoryID = request.CategoryID
	existing.Severity = request.Severity
	moved := existing.Latitude != *request.Latitude || existing.Longitude != *request.Longitude
	existing.Latitude = *request.Latitude
	existing.Longitude = *request.Longitude

	if photo != nil {
		imageURL, thumbURL, err := s.media.UploadReportImage(ctx, photo, existing.ID.String())
		if err != nil {
			log.Printf("photo upload failed: %v", err)
			return nil, nil, apiError.New("no se pudo subir la foto", http.StatusInternalServerError)
		}
		existing.ImageURL = &imageURL
		existing.ThumbnailURL = &thumbURL
	}

	if moved {
		s.attachLocation(ctx, existing)
	}

	if err := s.reportRepo.UpdateReport(existing); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, apiError.ErrNotFound
		}
		log.Printf("update report failed: %v", err)
		return nil, nil, apiError.ErrInternalServerError
	}

	supported, _ := s.reportRepo.HasSupported(id, user.ID)
	resp := models.NewReportResponse(*existing, user.ID, supported)
	if s.feed != nil {
		s.feed.ReportUpdated(resp)
	}
	return &resp, nil, nil
}

func (s *reportService) DeleteReport(id uuid.UUID, userID uint) *apiError.Error {
	if userID == 0 {
		return apiError.ErrUnauthorized
	}
	if err := s.reportRepo.DeleteReport(id, userID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return apiError.ErrNotFound
		}
		log.Printf("delete report failed: %v", err)
		return apiError.ErrInternalServerError
	}
	if s.feed != nil {
		s.feed.ReportDeleted(id)
	}
	return nil
}

// SupportReport adds one support for the user. An unauthenticated caller is
// rejected, and a repeat support (the creator included) conflicts instead of
// silently counting twice.
func (s *reportService) SupportReport(reportID uuid.UUID, userID uint) (int, *apiError.Error) {
	if userID == 0 {
		return 0, apiError.ErrUnauthorized
	}
	count, err := s.reportRepo.SupportReport(reportID, userID)
	if err != nil {
		switch {
		case err == db.ErrAlreadySupported:
			return 0, apiError.ErrAlreadySupported
		case err == gorm.ErrRecordNotFound:
			return 0, apiError.ErrNotFound
		default:
			log.Printf("support report failed: %v", err)
			return 0, apiError.ErrInternalServerError
		}
	}
	if s.feed != nil {
		s.feed.ReportSupported(reportID, count)
	}
	return count, nil
}

func (s *reportService) GetDashboardStats() (*models.DashboardStats, *apiError.Error) {
	total, err := s.reportRepo.GetTotalReportCount()
	if err != nil {
		log.Printf("total count failed: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	today, err := s.reportRepo.GetTodayReportCount()
	if err != nil {
		log.Printf("today count failed: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	counts, err := s.reportRepo.GetCategoryReportCounts()
	if err != nil {
		log.Printf("category counts failed: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	byCategory := make([]models.CategoryStat, 0, len(counts))
	for _, c := range counts {
		stat := models.CategoryStat{CategoryID: c.CategoryID, ReportCount: c.ReportCount}
		if cat, ok := models.CategoryByID(c.CategoryID); ok {
			stat.CategoryName = cat.Name
			stat.Color = cat.Color
		}
		byCategory = append(byCategory, stat)
	}
	return &models.DashboardStats{
		TotalReports: total,
		TodayReports: today,
		ByCategory:   byCategory,
	}, nil
}

// attachLocation fills district/city/address best-effort. A geocoding
// failure never blocks the save.
func (s *reportService) attachLocation(ctx context.Context, report *models.Report) {
	if s.geocoder == nil {
		return
	}
	geoCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	detail, err := s.geocoder.ReverseGeocode(geoCtx, report.Latitude, report.Longitude)
	if err != nil {
		log.Printf("reverse geocode failed: %v", err)
		return
	}
	report.District = detail.District
	report.City = detail.City
	report.Address = detail.Address
}

func (s *reportService) decorate(reports []models.Report, currentUserID uint) []models.ReportResponse {
	var supportedIDs map[uuid.UUID]bool
	if currentUserID != 0 {
		ids, err := s.reportRepo.SupportedReportIDs(currentUserID)
		if err != nil {
			log.Printf("supported ids lookup failed: %v", err)
		} else {
			supportedIDs = ids
		}
	}
	responses := make([]models.ReportResponse, 0, len(reports))
	for _, r := range reports {
		responses = append(responses, models.NewReportResponse(r, currentUserID, supportedIDs[r.ID]))
	}
	return responses
}
