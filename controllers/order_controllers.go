package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zemen-restaurant/zemen-backend/apperrors"
	"github.com/zemen-restaurant/zemen-backend/payloads"
	"github.com/zemen-restaurant/zemen-backend/services"
	"github.com/zemen-restaurant/zemen-backend/utils"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	maxIdempotencyKeyLen = 255
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// SubmitOrder -> public checkout endpoint
func (oc *OrderController) SubmitOrder(c *gin.Context) {
	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLen {
		utils.RespondError(c, apperrors.ErrInvalidField.WithMessage("%s must be at most %d characters", IdempotencyKeyHeader, maxIdempotencyKeyLen))
		return
	}

	var req payloads.SubmitOrderRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}

	order, items, err := req.Validate()
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	created, err := oc.Orders.SubmitOrder(c.Request.Context(), order, items, key)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, payloads.NewOrderResponse(*created))
}

// GetAllOrders -> admin list, newest first, optionally filtered by
// ?status= and ?order_type=
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := oc.Orders.ListOrders(c.Request.Context(), services.OrderFilter{
		Status:    c.Query("status"),
		OrderType: c.Query("order_type"),
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, payloads.NewOrderListResponse(orders))
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, err := pathID(c, "Order")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	order, err := oc.Orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, payloads.NewOrderResponse(*order))
}

func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, err := pathID(c, "Order")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var req payloads.OrderStatusRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}

	order, err := oc.Orders.UpdateOrderStatus(c.Request.Context(), id, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, payloads.NewOrderResponse(*order))
}
