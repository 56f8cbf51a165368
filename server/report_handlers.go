package server

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	errs "github.com/kuidando/kuidando/errors"
	"github.com/kuidando/kuidando/models"
	"github.com/kuidando/kuidando/server/response"
)

const defaultPageSize = 50

// parseReportForm reads the authoring fields out of the multipart form.
// Absent coordinates stay nil so validation can report them as missing.
func parseReportForm(c *gin.Context) (*models.CreateReportRequest, *multipart.FileHeader) {
	request := &models.CreateReportRequest{
		Description: c.PostForm("description"),
		CategoryID:  c.PostForm("category_id"),
	}
	if sev := c.PostForm("severity"); sev != "" {
		if v, err := strconv.Atoi(sev); err == nil {
			request.Severity = v
		} else {
			request.Severity = -1 // forces a severity field error
		}
	}
	if lat := c.PostForm("latitude"); lat != "" {
		if v, err := strconv.ParseFloat(lat, 64); err == nil {
			request.Latitude = &v
		}
	}
	if lng := c.PostForm("longitude"); lng != "" {
		if v, err := strconv.ParseFloat(lng, 64); err == nil {
			request.Longitude = &v
		}
	}
	_ = models.ValidateWhiteSpaces(request)

	photo, err := c.FormFile("photo")
	if err != nil {
		photo = nil
	}
	return request, photo
}

func (s *Server) handleCreateReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		request, photo := parseReportForm(c)

		report, fieldErrs, apiErr := s.ReportService.CreateReport(c.Request.Context(), request, photo, currentUser(c))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		if fieldErrs.Any() {
			response.JSON(c, "revisa los campos marcados", http.StatusUnprocessableEntity, gin.H{"fields": fieldErrs}, errs.New("validation failed", http.StatusUnprocessableEntity))
			return
		}
		response.JSON(c, "reporte creado", http.StatusCreated, report, nil)
	}
}

func (s *Server) handleGetReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}
		report, apiErr := s.ReportService.GetReport(id, currentUserID(c))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, report, nil)
	}
}

func (s *Server) handleListReports() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := paging(c)
		reports, apiErr := s.ReportService.ListReports(page, pageSize, currentUserID(c))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, reports, nil)
	}
}

func (s *Server) handleListReportsByCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := paging(c)
		reports, apiErr := s.ReportService.ListReportsByCategory(c.Param("category"), page, pageSize, currentUserID(c))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, reports, nil)
	}
}

// handleListMyReports powers the "mis reportes" dashboard tab.
func (s *Server) handleListMyReports() gin.HandlerFunc {
	return func(c *gin.Context) {
		reports, apiErr := s.ReportService.ListMyReports(currentUserID(c))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, reports, nil)
	}
}

func (s *Server) handleUpdateReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}
		request, photo := parseReportForm(c)

		report, fieldErrs, apiErr := s.ReportService.UpdateReport(c.Request.Context(), id, request, photo, currentUser(c))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		if fieldErrs.Any() {
			response.JSON(c, "revisa los campos marcados", http.StatusUnprocessableEntity, gin.H{"fields": fieldErrs}, errs.New("validation failed", http.StatusUnprocessableEntity))
			return
		}
		response.JSON(c, "reporte actualizado", http.StatusOK, report, nil)
	}
}

func (s *Server) handleDeleteReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}
		if apiErr := s.ReportService.DeleteReport(id, currentUserID(c)); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "reporte eliminado", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleSupportReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}
		count, apiErr := s.ReportService.SupportReport(id, currentUserID(c))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "gracias por sumarte", http.StatusOK, gin.H{"supporters": count}, nil)
	}
}

func (s *Server) handleGetAllCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.JSON(c, "", http.StatusOK, models.Categories, nil)
	}
}

func (s *Server) handleGetDashboardStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, apiErr := s.ReportService.GetDashboardStats()
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, stats, nil)
	}
}

func paging(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if pageSize < 1 || pageSize > 200 {
		pageSize = defaultPageSize
	}
	return page, pageSize
}
