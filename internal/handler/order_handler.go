package handler

import (
	"net/http"

	"inventory/internal/model"
	"inventory/internal/service"
	"inventory/pkg/pagination"
	"inventory/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.PUT("/:id/status", h.UpdateOrderStatus)
		orders.DELETE("/:id", h.DeleteOrder)
	}
}

// CreateOrder sells one or more products in a single transaction
// @Summary      Create order
// @Description  Decrements stock for every item and records the order as pending. Fails as a whole when any item is short.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderRequest  true  "Order payload"
// @Success      201      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Failure      503      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// GetOrder returns an order with its items
// @Summary      Get order
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ListOrders pages through orders, newest first
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Param        status      query     string  false  "pending, completed or cancelled"
// @Param        start_date  query     string  false  "YYYY-MM-DD or RFC 3339"
// @Param        end_date    query     string  false  "YYYY-MM-DD or RFC 3339"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Items per page (default 20)"
// @Success      200         {object}  response.Response{data=response.Paginated}
// @Failure      400         {object}  response.Response
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	start, end, err := dateRange(c, false)
	if err != nil {
		respondError(c, err)
		return
	}
	p := pagination.Parse(c)

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), model.OrderFilter{
		Status:    model.OrderStatus(c.Query("status")),
		StartDate: start,
		EndDate:   end,
		Page:      p.Page,
		Limit:     p.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Page(orders, total, p.Page, p.Limit)))
}

// UpdateOrderStatus completes or cancels a pending order
// @Summary      Update order status
// @Description  Cancelling returns every item's quantity to stock.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id       path      string                            true  "Order ID"
// @Param        payload  body      service.UpdateOrderStatusRequest  true  "Target status"
// @Success      200      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      503      {object}  response.Response
// @Router       /api/orders/{id}/status [put]
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req service.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// DeleteOrder removes a cancelled order
// @Summary      Delete order
// @Description  Only cancelled orders can be deleted; cancel first.
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id} [delete]
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.orderService.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Order deleted"}))
}
