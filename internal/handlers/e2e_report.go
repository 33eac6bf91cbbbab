package handlers

import (
	"github.com/devboardhq/devboard/internal/services"
	"github.com/devboardhq/devboard/pkg/response"
	"github.com/gin-gonic/gin"
)

type E2EReportHandler struct {
	reportService *services.E2EReportService
}

func NewE2EReportHandler(reportService *services.E2EReportService) *E2EReportHandler {
	return &E2EReportHandler{reportService: reportService}
}

// Get returns the report for a given date, or the latest ready report when
// no date is supplied
// GET /api/e2e/reports?date=YYYY-MM-DD
func (h *E2EReportHandler) Get(c *gin.Context) {
	date := c.Query("date")

	if date == "" {
		summary, err := h.reportService.Latest()
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, summary)
		return
	}

	summary, err := h.reportService.GetByDate(date)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, summary)
}

// Latest returns the most recent ready report
// GET /api/e2e/reports/latest
func (h *E2EReportHandler) Latest(c *gin.Context) {
	summary, err := h.reportService.Latest()
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, summary)
}

type generateReportRequest struct {
	Date  string `json:"date" binding:"required"`
	Force bool   `json:"force"`
}

// Generate builds the report for a date. An existing report returns 409
// unless force is set; a report still being generated always returns 409.
// POST /api/e2e/reports
func (h *E2EReportHandler) Generate(c *gin.Context) {
	var req generateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	summary, err := h.reportService.Generate(c.Request.Context(), req.Date, req.Force)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, summary)
}
