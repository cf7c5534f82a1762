package handlers

import (
	"net/http"
	"strconv"
	"time"

	"pizzeria-service/internal/dto"
	"pizzeria-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CustomerHandler struct {
	customers service.CustomerService
	log       *zap.Logger
}

func NewCustomerHandler(customers service.CustomerService, log *zap.Logger) *CustomerHandler {
	return &CustomerHandler{customers: customers, log: log}
}

// Register godoc
// @Summary Регистрация покупателя
// @Tags customers
// @Accept json
// @Produce json
// @Param register body dto.RegisterRequest true "Данные регистрации"
// @Success 201 {object} dto.CustomerResponse "Успешная регистрация"
// @Failure 400 {object} dto.ValidationErrorResponse "Неверные данные"
// @Failure 409 {object} dto.ConflictErrorResponse "Email или документ уже зарегистрированы"
// @Failure 500 {object} dto.InternalErrorResponse "Внутренняя ошибка"
// @Router /api/v1/customers [post]
func (h *CustomerHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, err)
		return
	}

	cust, err := h.customers.Register(c.Request.Context(), service.RegisterInput{
		NationalID: req.NationalID,
		Name:       req.Name,
		Surname:    req.Surname,
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		Password:   req.Password,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToCustomerResponse(cust))
}

// Login godoc
// @Summary Вход покупателя
// @Description Проверяет пароль и выдаёт access-токен
// @Tags customers
// @Accept json
// @Produce json
// @Param login body dto.LoginRequest true "Данные авторизации"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Неверные данные"
// @Failure 401 {object} dto.UnauthorizedErrorResponse "Неверный email или пароль"
// @Router /api/v1/customers/login [post]
func (h *CustomerHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, err)
		return
	}

	res, err := h.customers.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.log.Warn("login failed", zap.String("email", req.Email), zap.Error(err))
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.LoginResponse{
		Customer:        dto.ToCustomerResponse(res.Customer),
		AccessToken:     res.AccessToken,
		AccessExpiresIn: int64(time.Until(res.ExpiresAt).Seconds()),
	})
}

// List godoc
// @Summary Список покупателей (админ)
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Лимит (по умолчанию 50)"
// @Param offset query int false "Смещение"
// @Success 200 {object} dto.CustomerListResponse
// @Router /api/v1/customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	list, total, err := h.customers.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	resp := dto.CustomerListResponse{Items: make([]dto.CustomerResponse, 0, len(list)), Total: total}
	for i := range list {
		resp.Items = append(resp.Items, dto.ToCustomerResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Профиль покупателя
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID покупателя"
// @Success 200 {object} dto.CustomerResponse
// @Failure 404 {object} dto.NotFoundErrorResponse "Покупатель не найден"
// @Router /api/v1/customers/{id} [get]
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	cust, err := h.customers.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCustomerResponse(cust))
}

// Update godoc
// @Summary Изменить контактные данные
// @Tags customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID покупателя"
// @Param customer body dto.UpdateCustomerRequest true "Поля для изменения"
// @Success 200 {object} dto.CustomerResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Неверные данные"
// @Failure 404 {object} dto.NotFoundErrorResponse "Покупатель не найден"
// @Router /api/v1/customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, err)
		return
	}
	cust, err := h.customers.Update(c.Request.Context(), id, service.UpdateCustomerInput{
		Name:    req.Name,
		Surname: req.Surname,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCustomerResponse(cust))
}

// Delete godoc
// @Summary Удалить покупателя вместе с заказами (админ)
// @Tags customers
// @Security BearerAuth
// @Param id path string true "ID покупателя"
// @Success 204
// @Failure 404 {object} dto.NotFoundErrorResponse "Покупатель не найден"
// @Router /api/v1/customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.customers.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
