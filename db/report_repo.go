package db

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/kuidando/kuidando/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrAlreadySupported is returned when a (report, user) support row already
// exists. The service layer maps it to the client-facing conflict.
var ErrAlreadySupported = errors.New("user has already supported this report")

type ReportRepository interface {
	CreateReportWithSupport(report *models.Report) error
	GetReportByID(id uuid.UUID) (*models.Report, error)
	ListReports(page, pageSize int) ([]models.Report, error)
	ListReportsByUser(userID uint) ([]models.Report, error)
	ListReportsByCategory(categoryID string, page, pageSize int) ([]models.Report, error)
	UpdateReport(report *models.Report) error
	DeleteReport(id uuid.UUID, userID uint) error
	SupportReport(reportID uuid.UUID, userID uint) (int, error)
	HasSupported(reportID uuid.UUID, userID uint) (bool, error)
	SupportedReportIDs(userID uint) (map[uuid.UUID]bool, error)
	GetTotalReportCount() (int64, error)
	GetTodayReportCount() (int64, error)
	GetCategoryReportCounts() ([]models.CategoryReportCount, error)
}

type reportRepo struct {
	DB *gorm.DB
}

func NewReportRepo(db *GormDB) ReportRepository {
	return &reportRepo{db.DB}
}

// CreateReportWithSupport inserts the report row together with the creator's
// support row in one transaction. Supporters therefore never starts below 1.
func (r *reportRepo) CreateReportWithSupport(report *models.Report) error {
	tx := r.DB.Begin()
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "begin transaction")
	}

	report.Supporters = 1
	if err := tx.Create(report).Error; err != nil {
		tx.Rollback()
		return errors.Wrap(err, "failed to create report")
	}

	support := models.Support{
		ReportID: report.ID,
		UserID:   report.UserID,
	}
	if err := tx.Create(&support).Error; err != nil {
		tx.Rollback()
		return errors.Wrap(err, "failed to create creator support")
	}

	return tx.Commit().Error
}

func (r *reportRepo) GetReportByID(id uuid.UUID) (*models.Report, error) {
	var report models.Report
	if err := r.DB.Where("id = ?", id).First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepo) ListReports(page, pageSize int) ([]models.Report, error) {
	var reports []models.Report
	offset := (page - 1) * pageSize
	err := r.DB.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&reports).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list reports")
	}
	return reports, nil
}

func (r *reportRepo) ListReportsByUser(userID uint) ([]models.Report, error) {
	var reports []models.Report
	err := r.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&reports).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list user reports")
	}
	return reports, nil
}

func (r *reportRepo) ListReportsByCategory(categoryID string, page, pageSize int) ([]models.Report, error) {
	var reports []models.Report
	offset := (page - 1) * pageSize
	err := r.DB.Where("category_id = ?", categoryID).
		Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&reports).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list reports by category")
	}
	return reports, nil
}

// UpdateReport persists an edit. The WHERE clause carries the creator id so
// ownership is enforced by the system of record, not only in the client.
func (r *reportRepo) UpdateReport(report *models.Report) error {
	result := r.DB.Model(&models.Report{}).
		Where("id = ? AND user_id = ?", report.ID, report.UserID).
		Updates(map[string]interface{}{
			"description":   report.Description,
			"category_id":   report.CategoryID,
			"severity":      report.Severity,
			"latitude":      report.Latitude,
			"longitude":     report.Longitude,
			"image_url":     report.ImageURL,
			"thumbnail_url": report.ThumbnailURL,
			"address":       report.Address,
			"district":      report.District,
			"city":          report.City,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update report")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteReport physically removes the report and its support rows. Only the
// creator's id matches the WHERE clause.
func (r *reportRepo) DeleteReport(id uuid.UUID, userID uint) error {
	tx := r.DB.Begin()
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "begin transaction")
	}

	result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Report{})
	if result.Error != nil {
		tx.Rollback()
		return errors.Wrap(result.Error, "failed to delete report")
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return gorm.ErrRecordNotFound
	}

	if err := tx.Unscoped().Where("report_id = ?", id).Delete(&models.Support{}).Error; err != nil {
		tx.Rollback()
		return errors.Wrap(err, "failed to delete supports")
	}

	return tx.Commit().Error
}

// SupportReport records one support and refreshes the denormalized counter
// from the join table inside a single transaction, so concurrent supports
// cannot double-count. Returns the new supporter count.
func (r *reportRepo) SupportReport(reportID uuid.UUID, userID uint) (int, error) {
	tx := r.DB.Begin()
	if tx.Error != nil {
		return 0, errors.Wrap(tx.Error, "begin transaction")
	}

	var existing models.Support
	if err := tx.Where("report_id = ? AND user_id = ?", reportID, userID).First(&existing).Error; err == nil {
		tx.Rollback()
		return 0, ErrAlreadySupported
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return 0, errors.Wrap(err, "failed to check existing support")
	}

	support := models.Support{
		ReportID: reportID,
		UserID:   userID,
	}
	if err := tx.Create(&support).Error; err != nil {
		tx.Rollback()
		return 0, errors.Wrap(err, "failed to record support")
	}

	var supporterCount int64
	if err := tx.Model(&models.Support{}).Where("report_id = ?", reportID).Count(&supporterCount).Error; err != nil {
		log.Println("failed to count supporters, rolling back")
		tx.Rollback()
		return 0, errors.Wrap(err, "failed to count supporters")
	}

	result := tx.Model(&models.Report{}).Where("id = ?", reportID).Update("supporters", supporterCount)
	if result.Error != nil {
		log.Println("failed to update supporter count, rolling back")
		tx.Rollback()
		return 0, errors.Wrap(result.Error, "failed to update supporter count")
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return 0, gorm.ErrRecordNotFound
	}

	return int(supporterCount), tx.Commit().Error
}

func (r *reportRepo) HasSupported(reportID uuid.UUID, userID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&models.Support{}).
		Where("report_id = ? AND user_id = ?", reportID, userID).Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check support")
	}
	return count > 0, nil
}

// SupportedReportIDs returns the set of reports the user has backed, used to
// mark list responses without one query per row.
func (r *reportRepo) SupportedReportIDs(userID uint) (map[uuid.UUID]bool, error) {
	var supports []models.Support
	if err := r.DB.Where("user_id = ?", userID).Find(&supports).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list supports")
	}
	ids := make(map[uuid.UUID]bool, len(supports))
	for _, s := range supports {
		ids[s.ReportID] = true
	}
	return ids, nil
}

func (r *reportRepo) GetTotalReportCount() (int64, error) {
	var count int64
	err := r.DB.Model(&models.Report{}).Count(&count).Error
	return count, err
}

func (r *reportRepo) GetTodayReportCount() (int64, error) {
	var count int64
	startOfDay := time.Now().Truncate(24 * time.Hour)
	err := r.DB.Model(&models.Report{}).Where("created_at >= ?", startOfDay).Count(&count).Error
	return count, err
}

func (r *reportRepo) GetCategoryReportCounts() ([]models.CategoryReportCount, error) {
	var counts []models.CategoryReportCount
	err := r.DB.Model(&models.Report{}).
		Select("category_id, COUNT(*) as report_count").
		Group("category_id").
		Scan(&counts).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to count reports by category")
	}
	return counts, nil
}
