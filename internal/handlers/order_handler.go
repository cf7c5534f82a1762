package handlers

import (
	"net/http"

	"pizzeria-service/internal/dto"
	"pizzeria-service/internal/middleware"
	"pizzeria-service/internal/models"
	"pizzeria-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders service.OrderService
	log    *zap.Logger
}

func NewOrderHandler(orders service.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, log: log}
}

// AddToCart godoc
// @Summary Добавить товар в корзину
// @Description Находит корзину (PENDING-заказ) покупателя или создаёт новую и добавляет строку
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID покупателя"
// @Param item body dto.AddToCartRequest true "Товар и количество"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Количество <= 0 или неизвестный товар"
// @Failure 403 {object} dto.ForbiddenErrorResponse "Чужая корзина"
// @Failure 500 {object} dto.InternalErrorResponse "Внутренняя ошибка"
// @Router /api/v1/customers/{id}/cart [post]
func (h *OrderHandler) AddToCart(c *gin.Context) {
	customerID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, err)
		return
	}
	productID := uuid.MustParse(req.ProductID)

	o, err := h.orders.AddToCart(c.Request.Context(), productID, customerID, req.Quantity)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(o))
}

// GetCart godoc
// @Summary Текущая корзина
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID покупателя"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} dto.NotFoundErrorResponse "Корзины нет"
// @Router /api/v1/customers/{id}/cart [get]
func (h *OrderHandler) GetCart(c *gin.Context) {
	customerID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.GetCart(c.Request.Context(), customerID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(o))
}

// Finalize godoc
// @Summary Оформить заказ
// @Description Оплачивает корзину выбранным способом и переводит заказ в FINISHED (или сразу в DELIVERED)
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID покупателя"
// @Param payment body dto.FinalizeRequest true "Способ оплаты: CARD или CASH"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Неверный способ оплаты"
// @Failure 409 {object} dto.ConflictErrorResponse "Нет корзины или корзина пуста"
// @Router /api/v1/customers/{id}/cart/finalize [post]
func (h *OrderHandler) Finalize(c *gin.Context) {
	customerID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, err)
		return
	}

	o, err := h.orders.FinalizeOrder(c.Request.Context(), customerID, models.PaymentMethod(req.PaymentMethod))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(o))
}

// Cancel godoc
// @Summary Отменить корзину
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID покупателя"
// @Success 200 {object} dto.OrderResponse
// @Failure 409 {object} dto.ConflictErrorResponse "Нет корзины"
// @Router /api/v1/customers/{id}/cart/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	customerID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.CancelOrder(c.Request.Context(), customerID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(o))
}

// ListByCustomer godoc
// @Summary Заказы покупателя
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID покупателя"
// @Param state query string false "PENDING, FINISHED, DELIVERED или CANCELED"
// @Success 200 {object} dto.OrderListResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Неизвестное состояние"
// @Failure 404 {object} dto.NotFoundErrorResponse "Покупатель не найден"
// @Router /api/v1/customers/{id}/orders [get]
func (h *OrderHandler) ListByCustomer(c *gin.Context) {
	customerID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var (
		list []*models.Order
		err  error
	)
	if state := c.Query("state"); state != "" {
		list, err = h.orders.GetOrdersByState(c.Request.Context(), customerID, models.OrderState(state))
	} else {
		list, err = h.orders.GetOrdersByCustomer(c.Request.Context(), customerID)
	}
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderList(list))
}

// ListByState godoc
// @Summary Заказы всех покупателей в заданном состоянии (админ)
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param state query string true "PENDING, FINISHED, DELIVERED или CANCELED"
// @Success 200 {object} dto.OrderListResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Неизвестное состояние"
// @Router /api/v1/orders [get]
func (h *OrderHandler) ListByState(c *gin.Context) {
	list, err := h.orders.GetOrdersByState(c.Request.Context(), uuid.Nil, models.OrderState(c.Query("state")))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderList(list))
}

// Get godoc
// @Summary Заказ по id
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заказа"
// @Success 200 {object} dto.OrderResponse
// @Failure 403 {object} dto.ForbiddenErrorResponse "Чужой заказ"
// @Failure 404 {object} dto.NotFoundErrorResponse "Заказ не найден"
// @Router /api/v1/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if !middleware.ClaimsFrom(c).CanActFor(o.CustomerID) {
		c.JSON(http.StatusForbidden, dto.NewForbiddenError("order belongs to another customer"))
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(o))
}

// Deliver godoc
// @Summary Отметить заказ доставленным (админ)
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заказа"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} dto.NotFoundErrorResponse "Заказ не найден"
// @Failure 409 {object} dto.ConflictErrorResponse "Заказ не в состоянии FINISHED"
// @Router /api/v1/orders/{id}/deliver [post]
func (h *OrderHandler) Deliver(c *gin.Context) {
	orderID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.DeliverOrder(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(o))
}

// Delete godoc
// @Summary Удалить заказ (админ)
// @Tags orders
// @Security BearerAuth
// @Param id path string true "ID заказа"
// @Success 204
// @Failure 404 {object} dto.NotFoundErrorResponse "Заказ не найден"
// @Failure 409 {object} dto.ConflictErrorResponse "Корзину нужно сначала отменить"
// @Router /api/v1/orders/{id} [delete]
func (h *OrderHandler) Delete(c *gin.Context) {
	orderID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.orders.DeleteOrder(c.Request.Context(), orderID); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
