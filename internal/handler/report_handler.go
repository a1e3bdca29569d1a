package handler

import (
	"net/http"

	"inventory/internal/service"
	"inventory/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/reports/financial", h.GetFinancialReport)
}

// GetFinancialReport aggregates completed orders in a period
// @Summary      Financial report
// @Description  Revenue, cost, profit, top products and revenue per day for completed orders. Both bounds are inclusive.
// @Tags         reports
// @Produce      json
// @Param        start_date  query     string  true  "YYYY-MM-DD or RFC 3339"
// @Param        end_date    query     string  true  "YYYY-MM-DD or RFC 3339"
// @Success      200         {object}  response.Response{data=model.FinancialReport}
// @Failure      400         {object}  response.Response
// @Router       /api/reports/financial [get]
func (h *ReportHandler) GetFinancialReport(c *gin.Context) {
	start, end, err := dateRange(c, true)
	if err != nil {
		respondError(c, err)
		return
	}

	report, err := h.reportService.GetFinancialReport(c.Request.Context(), *start, *end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
