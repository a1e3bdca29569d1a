package handler

import (
	"net/http"

	"inventory/internal/model"
	"inventory/internal/service"
	"inventory/pkg/apperror"
	"inventory/pkg/pagination"
	"inventory/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StockHandler struct {
	stockService service.StockService
}

func NewStockHandler(stockService service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stock := router.Group("/api/stock")
	{
		stock.POST("/in", h.AddStock)
		stock.GET("/movements", h.ListMovements)
	}
}

// AddStock receives goods into inventory
// @Summary      Stock in
// @Description  Records the intake, re-weights the product cost and increments stock.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AddStockRequest  true  "Stock in payload"
// @Success      201      {object}  response.Response{data=service.StockInResult}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      503      {object}  response.Response
// @Router       /api/stock/in [post]
func (h *StockHandler) AddStock(c *gin.Context) {
	var req service.AddStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.stockService.AddStock(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListMovements returns the stock card, newest first
// @Summary      List stock movements
// @Tags         stock
// @Produce      json
// @Param        product_id  query     string  false  "Product ID"
// @Param        start_date  query     string  false  "YYYY-MM-DD or RFC 3339"
// @Param        end_date    query     string  false  "YYYY-MM-DD or RFC 3339"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Items per page (default 20)"
// @Success      200         {object}  response.Response{data=response.Paginated}
// @Failure      400         {object}  response.Response
// @Router       /api/stock/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	start, end, err := dateRange(c, false)
	if err != nil {
		respondError(c, err)
		return
	}
	p := pagination.Parse(c)

	filter := model.MovementFilter{StartDate: start, EndDate: end, Page: p.Page, Limit: p.Limit}
	if raw := c.Query("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, apperror.Validation("invalid product_id"))
			return
		}
		filter.ProductID = &id
	}

	movements, total, err := h.stockService.ListMovements(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Page(movements, total, p.Page, p.Limit)))
}
