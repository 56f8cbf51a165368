package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/kuidando/kuidando/db"
	"github.com/kuidando/kuidando/models"
	"gorm.io/gorm"
)

// fakeReportRepo keeps reports and supports in maps, mirroring the
// transactional semantics of the real repository.
type fakeReportRepo struct {
	reports  map[uuid.UUID]*models.Report
	supports map[uuid.UUID]map[uint]bool
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{
		reports:  make(map[uuid.UUID]*models.Report),
		supports: make(map[uuid.UUID]map[uint]bool),
	}
}

func (f *fakeReportRepo) CreateReportWithSupport(report *models.Report) error {
	report.Supporters = 1
	f.reports[report.ID] = report
	f.supports[report.ID] = map[uint]bool{report.UserID: true}
	return nil
}

func (f *fakeReportRepo) GetReportByID(id uuid.UUID) (*models.Report, error) {
	r, ok := f.reports[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReportRepo) ListReports(page, pageSize int) ([]models.Report, error) {
	var out []models.Report
	for _, r := range f.reports {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeReportRepo) ListReportsByUser(userID uint) ([]models.Report, error) {
	var out []models.Report
	for _, r := range f.reports {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeReportRepo) ListReportsByCategory(categoryID string, page, pageSize int) ([]models.Report, error) {
	var out []models.Report
	for _, r := range f.reports {
		if r.CategoryID == categoryID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeReportRepo) UpdateReport(report *models.Report) error {
	existing, ok := f.reports[report.ID]
	if !ok || existing.UserID != report.UserID {
		return gorm.ErrRecordNotFound
	}
	cp := *report
	cp.Supporters = existing.Supporters
	f.reports[report.ID] = &cp
	return nil
}

func (f *fakeReportRepo) DeleteReport(id uuid.UUID, userID uint) error {
	existing, ok := f.reports[id]
	if !ok || existing.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	delete(f.reports, id)
	delete(f.supports, id)
	return nil
}

func (f *fakeReportRepo) SupportReport(reportID uuid.UUID, userID uint) (int, error) {
	report, ok := f.reports[reportID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	if f.supports[reportID][userID] {
		return 0, db.ErrAlreadySupported
	}
	f.supports[reportID][userID] = true
	report.Supporters = len(f.supports[reportID])
	return report.Supporters, nil
}

func (f *fakeReportRepo) HasSupported(reportID uuid.UUID, userID uint) (bool, error) {
	return f.supports[reportID][userID], nil
}

func (f *fakeReportRepo) SupportedReportIDs(userID uint) (map[uuid.UUID]bool, error) {
	ids := make(map[uuid.UUID]bool)
	for reportID, users := range f.supports {
		if users[userID] {
			ids[reportID] = true
		}
	}
	return ids, nil
}

func (f *fakeReportRepo) GetTotalReportCount() (int64, error) {
	return int64(len(f.reports)), nil
}

func (f *fakeReportRepo) GetTodayReportCount() (int64, error) {
	return int64(len(f.reports)), nil
}

func (f *fakeReportRepo) GetCategoryReportCounts() ([]models.CategoryReportCount, error) {
	counts := make(map[string]int)
	for _, r := range f.reports {
		counts[r.CategoryID]++
	}
	var out []models.CategoryReportCount
	for id, n := range counts {
		out = append(out, models.CategoryReportCount{CategoryID: id, ReportCount: n})
	}
	return out, nil
}

type fakeFeed struct {
	created   int
	updated   int
	deleted   int
	supported int
	lastCount int
}

func (f *fakeFeed) ReportCreated(models.ReportResponse) { f.created++ }
func (f *fakeFeed) ReportUpdated(models.ReportResponse) { f.updated++ }
func (f *fakeFeed) ReportDeleted(uuid.UUID)             { f.deleted++ }
func (f *fakeFeed) ReportSupported(_ uuid.UUID, count int) {
	f.supported++
	f.lastCount = count
}

func floatPtr(v float64) *float64 { return &v }

func validRequest() *models.CreateReportRequest {
	return &models.CreateReportRequest{
		Description: "poste a punto de caer",
		CategoryID:  "unstable-poles",
		Severity:    models.SeverityCritical,
		Latitude:    floatPtr(-12.05),
		Longitude:   floatPtr(-77.03),
	}
}

func newTestReportService(repo db.ReportRepository, feed Broadcaster) ReportService {
	return NewReportService(repo, nil, nil, feed)
}

func TestCreateReportStartsWithOneSupporter(t *testing.T) {
	repo := newFakeReportRepo()
	feed := &fakeFeed{}
	svc := newTestReportService(repo, feed)
	user := &models.User{Fullname: "Ana Quispe"}
	user.ID = 10

	resp, fieldErrs, apiErr := svc.CreateReport(context.Background(), validRequest(), nil, user)
	if apiErr != nil || fieldErrs.Any() {
		t.Fatalf("create failed: %v %v", apiErr, fieldErrs)
	}
	if resp.Supporters != 1 {
		t.Errorf("supporters = %d, want 1", resp.Supporters)
	}
	if !resp.Supported {
		t.Error("creator should show as having supported their own report")
	}
	if feed.created != 1 {
		t.Errorf("feed got %d created events, want 1", feed.created)
	}
}

func TestCreateReportUnauthenticated(t *testing.T) {
	svc := newTestReportService(newFakeReportRepo(), nil)
	_, _, apiErr := svc.CreateReport(context.Background(), validRequest(), nil, nil)
	if apiErr == nil || apiErr.Status != http.StatusUnauthorized {
		t.Errorf("expected unauthorized, got %v", apiErr)
	}
}

func TestCreateReportCollectsAllFieldErrors(t *testing.T) {
	svc := newTestReportService(newFakeReportRepo(), nil)
	user := &models.User{}
	user.ID = 1

	_, fieldErrs, apiErr := svc.CreateReport(context.Background(), &models.CreateReportRequest{}, nil, user)
	if apiErr != nil {
		t.Fatalf("unexpected api error: %v", apiErr)
	}
	if len(fieldErrs) != 3 {
		t.Errorf("expected 3 field errors at once, got %d: %v", len(fieldErrs), fieldErrs)
	}
}

func TestSupportReport(t *testing.T) {
	repo := newFakeReportRepo()
	feed := &fakeFeed{}
	svc := newTestReportService(repo, feed)
	creator := &models.User{Fullname: "Luis"}
	creator.ID = 1

	resp, _, apiErr := svc.CreateReport(context.Background(), validRequest(), nil, creator)
	if apiErr != nil {
		t.Fatal(apiErr)
	}

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := svc.SupportReport(resp.ID, 0)
		if err == nil || err.Status != http.StatusUnauthorized {
			t.Errorf("expected unauthorized, got %v", err)
		}
	})

	t.Run("second user counts once", func(t *testing.T) {
		count, err := svc.SupportReport(resp.ID, 2)
		if err != nil {
			t.Fatal(err)
		}
		if count != 2 {
			t.Errorf("count = %d, want 2", count)
		}
		if feed.lastCount != 2 {
			t.Errorf("feed count = %d, want 2", feed.lastCount)
		}
	})

	t.Run("repeat support conflicts", func(t *testing.T) {
		_, err := svc.SupportReport(resp.ID, 2)
		if err == nil || err.Status != http.StatusConflict {
			t.Errorf("expected conflict, got %v", err)
		}
		stored, _ := repo.GetReportByID(resp.ID)
		if stored.Supporters != 2 {
			t.Errorf("count changed on repeat support: %d", stored.Supporters)
		}
	})

	t.Run("creator self-support conflicts", func(t *testing.T) {
		_, err := svc.SupportReport(resp.ID, creator.ID)
		if err == nil || err.Status != http.StatusConflict {
			t.Errorf("expected conflict for creator, got %v", err)
		}
	})

	t.Run("unknown report", func(t *testing.T) {
		_, err := svc.SupportReport(uuid.New(), 2)
		if err == nil || err.Status != http.StatusNotFound {
			t.Errorf("expected not found, got %v", err)
		}
	})
}

func TestUpdateReportCreatorOnly(t *testing.T) {
	repo := newFakeReportRepo()
	svc := newTestReportService(repo, &fakeFeed{})
	creator := &models.User{Fullname: "Rosa"}
	creator.ID = 5
	other := &models.User{Fullname: "Pedro"}
	other.ID = 6

	resp, _, apiErr := svc.CreateReport(context.Background(), validRequest(), nil, creator)
	if apiErr != nil {
		t.Fatal(apiErr)
	}

	edit := validRequest()
	edit.Description = "ya lo arreglaron a medias"

	if _, _, err := svc.UpdateReport(context.Background(), resp.ID, edit, nil, other); err == nil || err.Status != http.StatusForbidden {
		t.Errorf("non-creator edit: expected forbidden, got %v", err)
	}

	updated, _, err := svc.UpdateReport(context.Background(), resp.ID, edit, nil, creator)
	if err != nil {
		t.Fatalf("creator edit failed: %v", err)
	}
	if updated.Description != edit.Description {
		t.Errorf("description = %q", updated.Description)
	}
	if updated.Supporters != 1 {
		t.Errorf("edit changed supporter count: %d", updated.Supporters)
	}
}

func TestDeleteReportCreatorOnly(t *testing.T) {
	repo := newFakeReportRepo()
	feed := &fakeFeed{}
	svc := newTestReportService(repo, feed)
	creator := &models.User{}
	creator.ID = 5

	resp, _, apiErr := svc.CreateReport(context.Background(), validRequest(), nil, creator)
	if apiErr != nil {
		t.Fatal(apiErr)
	}

	if err := svc.DeleteReport(resp.ID, 99); err == nil || err.Status != http.StatusNotFound {
		t.Errorf("non-creator delete: expected not found, got %v", err)
	}
	if err := svc.DeleteReport(resp.ID, creator.ID); err != nil {
		t.Fatalf("creator delete failed: %v", err)
	}
	if feed.deleted != 1 {
		t.Errorf("feed got %d deleted events, want 1", feed.deleted)
	}
	if _, err := svc.GetReport(resp.ID, 0); err == nil || err.Status != http.StatusNotFound {
		t.Error("deleted report still readable")
	}
}

func TestListReportsDecoratesSupportFlags(t *testing.T) {
	repo := newFakeReportRepo()
	svc := newTestReportService(repo, &fakeFeed{})
	creator := &models.User{}
	creator.ID = 1

	first, _, _ := svc.CreateReport(context.Background(), validRequest(), nil, creator)
	second := validRequest()
	second.CategoryID = "garbage"
	_, _, _ = svc.CreateReport(context.Background(), second, nil, creator)

	if _, err := svc.SupportReport(first.ID, 2); err != nil {
		t.Fatal(err)
	}

	list, apiErr := svc.ListReports(1, 50, 2)
	if apiErr != nil {
		t.Fatal(apiErr)
	}
	if len(list) != 2 {
		t.Fatalf("list has %d reports, want 2", len(list))
	}
	for _, r := range list {
		if r.ID == first.ID && !r.Supported {
			t.Error("supported report not flagged for the supporter")
		}
		if r.ID != first.ID && r.Supported {
			t.Error("unsupported report flagged as supported")
		}
		if r.CanEdit {
			t.Error("non-creator saw can_edit")
		}
	}
}

func TestListReportsByCategoryRejectsUnknown(t *testing.T) {
	svc := newTestReportService(newFakeReportRepo(), nil)
	if _, err := svc.ListReportsByCategory("meteorites", 1, 10, 0); err == nil || err.Status != http.StatusBadRequest {
		t.Errorf("expected bad request, got %v", err)
	}
}

func TestGetDashboardStats(t *testing.T) {
	repo := newFakeReportRepo()
	svc := newTestReportService(repo, &fakeFeed{})
	user := &models.User{}
	user.ID = 1

	_, _, _ = svc.CreateReport(context.Background(), validRequest(), nil, user)
	garbage := validRequest()
	garbage.CategoryID = "garbage"
	_, _, _ = svc.CreateReport(context.Background(), garbage, nil, user)

	stats, apiErr := svc.GetDashboardStats()
	if apiErr != nil {
		t.Fatal(apiErr)
	}
	if stats.TotalReports != 2 {
		t.Errorf("total = %d, want 2", stats.TotalReports)
	}
	for _, c := range stats.ByCategory {
		if c.CategoryName == "" {
			t.Errorf("category %q missing display name", c.CategoryID)
		}
	}
}
